package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/patchview/internal/ports"
	"github.com/bft-labs/patchview/pkg/series"
)

// PipelineConfig contains configuration for the series pipeline.
type PipelineConfig struct {
	// Reconstruct computes logical indices over the full series.
	Reconstruct bool

	// Window selects the part of the series handed to the renderer.
	Window series.Window
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Full is the whole assembled series.
	Full *series.Series

	// View is Full restricted to the configured window.
	View *series.Series

	// Batches is the number of batches the series was built from.
	Batches int

	// Appended is the number of batches added by this run. It equals
	// Batches after a full rebuild.
	Appended int
}

// Pipeline turns the batches of a source into a windowed series.
// Run and Refresh may be called from different goroutines; calls are
// serialized and each returns a series no other caller mutates.
type Pipeline struct {
	config PipelineConfig
	source ports.BatchSource
	logger ports.Logger

	mu       sync.Mutex
	full     *series.Series
	consumed []chunkMark
}

// chunkMark identifies a consumed batch by sequence and record count.
type chunkMark struct {
	seq  int
	size int
}

func marks(batches []series.Batch) []chunkMark {
	out := make([]chunkMark, len(batches))
	for i := range batches {
		out[i] = chunkMark{seq: batches[i].Seq, size: batches[i].Size()}
	}
	return out
}

// NewPipeline creates a pipeline reading from source.
func NewPipeline(config PipelineConfig, source ports.BatchSource, logger ports.Logger) *Pipeline {
	return &Pipeline{
		config: config,
		source: source,
		logger: logger,
	}
}

// Run rebuilds the series from every batch of the source.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	batches, err := p.source.Batches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	return p.rebuild(batches)
}

// Refresh appends batches that appeared since the previous call, resuming
// reconstruction from the last carry. It rebuilds instead when a consumed
// batch changed or disappeared, or a new batch sorts before the last
// consumed one.
func (p *Pipeline) Refresh(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	batches, err := p.source.Batches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	pending, ok := p.pending(batches)
	if !ok {
		return p.rebuild(batches)
	}

	full := p.full
	if len(pending) > 0 {
		full = full.Append(series.ConcatBatches(pending))
	}
	view, err := p.window(full)
	if err != nil {
		return nil, err
	}

	p.full = full
	p.consumed = marks(batches)
	res := &Result{Full: full, View: view, Batches: len(batches), Appended: len(pending)}
	p.logResult("refreshed series", res)
	return res, nil
}

// pending returns the batches after the consumed prefix. ok is false when
// the prefix no longer matches or the new batches do not all follow it.
func (p *Pipeline) pending(batches []series.Batch) ([]series.Batch, bool) {
	if p.full == nil || len(batches) < len(p.consumed) {
		return nil, false
	}
	last := 0
	for i, m := range p.consumed {
		if batches[i].Seq != m.seq || batches[i].Size() != m.size {
			p.logger.Debug("consumed chunk changed",
				ports.Int("seq", m.seq),
				ports.Int("size", m.size),
				ports.Int("now_seq", batches[i].Seq),
				ports.Int("now_size", batches[i].Size()),
			)
			return nil, false
		}
		last = m.seq
	}
	pending := batches[len(p.consumed):]
	for _, b := range pending {
		if b.Seq <= last {
			return nil, false
		}
		last = b.Seq
	}
	return pending, true
}

func (p *Pipeline) rebuild(batches []series.Batch) (*Result, error) {
	full, err := series.Assemble(batches, series.AssembleOptions{Reconstruct: p.config.Reconstruct})
	if err != nil {
		return nil, err
	}
	view, err := p.window(full)
	if err != nil {
		return nil, err
	}

	p.full = full
	p.consumed = marks(batches)
	res := &Result{Full: full, View: view, Batches: len(batches), Appended: len(batches)}
	p.logResult("assembled series", res)
	return res, nil
}

func (p *Pipeline) window(full *series.Series) (*series.Series, error) {
	if p.config.Window.IsFull() {
		return full, nil
	}
	view, err := full.Window(p.config.Window)
	if err != nil {
		return nil, fmt.Errorf("window %s over %d records: %w", p.config.Window, full.Len(), err)
	}
	return view, nil
}

func (p *Pipeline) logResult(msg string, res *Result) {
	sum := res.Full.Summary()
	fields := []ports.Field{
		ports.Int("batches", res.Batches),
		ports.Int("appended", res.Appended),
		ports.Int("records", sum.Len),
		ports.Int("wraps", sum.Wraps),
		ports.Int("view", res.View.Len()),
		ports.String("window", p.config.Window.String()),
	}
	if sum.Reconstructed {
		fields = append(fields, ports.Int64("last_index", sum.LastIndex))
	}
	p.logger.Info(msg, fields...)
}
