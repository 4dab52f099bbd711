package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/bft-labs/patchview/internal/domain"
	"github.com/bft-labs/patchview/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// memSource is an in-memory BatchSource whose batches can grow.
type memSource struct {
	mu      sync.Mutex
	batches []domain.Batch
	err     error
}

func (m *memSource) Batches(ctx context.Context) ([]domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Batch(nil), m.batches...), nil
}

func (m *memSource) add(b domain.Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, b)
}

func (m *memSource) set(batches ...domain.Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = batches
}

func (m *memSource) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// memStore is an in-memory BatchStore. Saving an existing sequence
// replaces it and batches stay ordered by sequence.
type memStore struct {
	memSource
	saveErr error
	saved   int
}

func (m *memStore) Save(ctx context.Context, b domain.Batch) (domain.Batch, error) {
	if m.saveErr != nil {
		return domain.Batch{}, m.saveErr
	}
	m.saved++
	b.ID = "mem-" + string(rune('a'+m.saved-1))

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.batches {
		if m.batches[i].Seq == b.Seq {
			m.batches[i] = b
			return b, nil
		}
	}
	m.batches = append(m.batches, b)
	sort.Slice(m.batches, func(i, j int) bool { return m.batches[i].Seq < m.batches[j].Seq })
	return b, nil
}

var errBoom = errors.New("boom")

func batch(seq int, patches ...int64) domain.Batch {
	b := domain.Batch{Seq: seq}
	for i, p := range patches {
		b.Records = append(b.Records, domain.Record{PatchIndex: p, TS: int64(seq*1000 + i)})
	}
	return b
}

func logicalIndices(records []domain.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.Index()
	}
	return out
}

func patchIndices(records []domain.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.PatchIndex
	}
	return out
}

func sameInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
