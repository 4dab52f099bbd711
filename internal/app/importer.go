package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/patchview/internal/ports"
	"github.com/bft-labs/patchview/pkg/series"
	"github.com/bft-labs/patchview/pkg/state"
)

// ImportResult reports what an import stored.
type ImportResult struct {
	Imported int
	Records  int
	Carry    series.Carry
}

// Importer copies batches from a source into a store, reconstructing the
// logical index on the way. Progress is kept in a state repository so a
// later import only handles new batches and resumes from the saved carry.
type Importer struct {
	source    ports.BatchSource
	store     ports.BatchStore
	stateRepo ports.StateRepository
	deviceID  string
	logger    ports.Logger
}

// NewImporter creates an importer.
func NewImporter(source ports.BatchSource, store ports.BatchStore, stateRepo ports.StateRepository, deviceID string, logger ports.Logger) *Importer {
	return &Importer{
		source:    source,
		store:     store,
		stateRepo: stateRepo,
		deviceID:  deviceID,
		logger:    logger,
	}
}

// Import stores every batch not yet imported. Nothing is saved to the state
// repository unless all pending batches were stored.
func (im *Importer) Import(ctx context.Context) (*ImportResult, error) {
	st, err := im.stateRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if st.DeviceID != "" && st.DeviceID != im.deviceID {
		im.logger.Warn("state belongs to another device, starting over",
			ports.String("state_device", st.DeviceID),
			ports.String("device", im.deviceID),
		)
		st = state.New(im.deviceID)
	}
	st.DeviceID = im.deviceID

	batches, err := im.source.Batches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	if len(batches) < st.Batches {
		im.logger.Warn("source has fewer batches than already imported, starting over",
			ports.Int("source", len(batches)),
			ports.Int("imported", st.Batches),
		)
		st = state.New(im.deviceID)
	}

	if !st.IsEmpty() {
		stored, err := im.store.Batches(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stored batches: %w", err)
		}
		if seq, ok := unimported(batches, stored, st.LastSeq); ok {
			im.logger.Warn("chunk before the last imported one is new or changed, starting over",
				ports.Int("seq", seq),
				ports.Int("last_seq", st.LastSeq),
			)
			st = state.New(im.deviceID)
		}
	}

	pending := st.Pending(batches)
	if len(pending) == 0 {
		im.logger.Info("nothing to import", ports.Int("batches", st.Batches))
		return &ImportResult{Carry: st.Carry}, nil
	}
	if st.Carry.Started {
		im.logger.Info("resuming reconstruction",
			ports.Int("after_batch", st.LastSeq),
			ports.Int64("prev_patch", st.Carry.PrevPatch),
			ports.Int64("prev_logical", st.Carry.PrevLogical),
		)
	}

	annotated, carry := series.ResumeBatches(st.Carry, pending)
	saved := make([]series.Batch, 0, len(annotated))
	records := 0
	for _, b := range annotated {
		if b.DeviceID == "" {
			b.DeviceID = im.deviceID
		}
		out, err := im.store.Save(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("save batch %d: %w", b.Seq, err)
		}
		records += len(out.Records)
		saved = append(saved, out)
		im.logger.Debug("imported batch",
			ports.Int("seq", out.Seq),
			ports.String("id", out.ID),
			ports.Int("records", len(out.Records)),
		)
	}

	st.Advance(carry, saved)
	if err := im.stateRepo.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}

	im.logger.Info("import complete",
		ports.Int("imported", len(saved)),
		ports.Int("records", records),
		ports.Int("wraps", carry.Wraps),
	)
	return &ImportResult{Imported: len(saved), Records: records, Carry: carry}, nil
}

// unimported returns the first source batch at or before lastSeq whose
// sequence is missing from the store or whose record count differs.
func unimported(batches, stored []series.Batch, lastSeq int) (int, bool) {
	sizes := make(map[int]int, len(stored))
	for i := range stored {
		sizes[stored[i].Seq] = stored[i].Size()
	}
	for i := range batches {
		b := &batches[i]
		if b.Seq > lastSeq {
			continue
		}
		if n, ok := sizes[b.Seq]; !ok || n != b.Size() {
			return b.Seq, true
		}
	}
	return 0, false
}
