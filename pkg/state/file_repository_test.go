package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/patchview/pkg/series"
)

func TestFileRepository_LoadMissing(t *testing.T) {
	repo := NewFileRepository(t.TempDir())

	s, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !s.IsEmpty() {
		t.Errorf("Load() = %+v, want empty state", s)
	}
}

func TestFileRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "state")
	repo := NewFileRepository(dir)

	want := State{
		DeviceID:    "DF:4A:35:79:15:C9",
		Carry:       series.Carry{PrevPatch: 8, PrevLogical: 28, Started: true, Wraps: 1},
		Batches:     2,
		Records:     5,
		LastSeq:     2,
		LastBatchID: "01HXYZ",
		LastTS:      1681891200800,
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	if _, err := os.Stat(repo.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
	got.UpdatedAt = want.UpdatedAt
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestFileRepository_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	if err := os.WriteFile(repo.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Load(context.Background()); err == nil {
		t.Error("Load() expected error for corrupt file")
	}
}

func TestFileRepository_Reset(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(t.TempDir())

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset() on missing file: %v", err)
	}
	if err := repo.Save(ctx, State{Batches: 1}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset() unexpected error: %v", err)
	}
	s, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Batches != 0 {
		t.Errorf("Batches after reset = %d, want 0", s.Batches)
	}
}

func TestState_AdvanceAndPending(t *testing.T) {
	batches := []series.Batch{
		{ID: "a", Seq: 1, Records: []series.Record{{PatchIndex: 10, TS: 1}, {PatchIndex: 15, TS: 2}}},
		{ID: "b", Seq: 2, Records: []series.Record{{PatchIndex: 3, TS: 3}}},
		{ID: "c", Seq: 3, Records: []series.Record{{PatchIndex: 8, TS: 4}}},
	}

	var s State
	if got := s.Pending(batches); len(got) != 3 {
		t.Fatalf("Pending() = %d batches, want 3", len(got))
	}

	out, c := series.ResumeBatches(s.Carry, batches[:2])
	s.Advance(c, out)

	if s.Batches != 2 || s.Records != 3 || s.LastSeq != 2 || s.LastBatchID != "b" || s.LastTS != 3 {
		t.Errorf("state after Advance = %+v", s)
	}
	if s.Carry.PrevLogical != 18 {
		t.Errorf("Carry.PrevLogical = %d, want 18", s.Carry.PrevLogical)
	}

	pending := s.Pending(batches)
	if len(pending) != 1 || pending[0].ID != "c" {
		t.Errorf("Pending() = %+v", pending)
	}
}

func TestState_PendingFollowsSequence(t *testing.T) {
	one := series.Batch{Seq: 1, Records: []series.Record{{PatchIndex: 1, TS: 1}}}
	two := series.Batch{Seq: 2, Records: []series.Record{{PatchIndex: 2, TS: 2}}}
	three := series.Batch{Seq: 3, Records: []series.Record{{PatchIndex: 3, TS: 3}}}
	four := series.Batch{Seq: 4, Records: []series.Record{{PatchIndex: 4, TS: 4}}}

	var s State
	out, c := series.ResumeBatches(s.Carry, []series.Batch{one, three})
	s.Advance(c, out)
	if s.LastSeq != 3 || s.Batches != 2 {
		t.Fatalf("state after Advance = %+v", s)
	}

	// A late chunk 2 sorts before LastSeq and is not pending.
	if got := s.Pending([]series.Batch{one, two, three}); len(got) != 0 {
		t.Errorf("Pending() = %+v, want none", got)
	}

	got := s.Pending([]series.Batch{one, two, three, four})
	if len(got) != 1 || got[0].Seq != 4 {
		t.Errorf("Pending() = %+v, want only seq 4", got)
	}
}
