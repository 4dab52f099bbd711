package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/patchview/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestChunkDir_SaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewChunkDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	in := domain.Batch{Seq: 1, Records: []domain.Record{
		{PatchIndex: 20, TS: 1681891200000, DpTS: 1681891200005, AppIndex: 1},
		{PatchIndex: 0, TS: 1681891200200, DpTS: 1681891200205, AppIndex: 2},
		{PatchIndex: 3, TS: 1681891200200, DpTS: 0, AppIndex: 3},
	}}
	saved, err := c.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if saved.ID != "rawData-1.json" {
		t.Errorf("ID = %q, want rawData-1.json", saved.ID)
	}

	got, err := c.Batches(ctx)
	if err != nil {
		t.Fatalf("Batches() unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Batches() = %d, want 1", len(got))
	}
	if len(got[0].Records) != len(in.Records) {
		t.Fatalf("records = %d, want %d", len(got[0].Records), len(in.Records))
	}
	for i := range in.Records {
		if got[0].Records[i] != in.Records[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[0].Records[i], in.Records[i])
		}
	}
}

func TestChunkDir_OrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rawData-10.json"), `[{"patchIndex":10,"ts":10}]`)
	writeFile(t, filepath.Join(dir, "rawData-2.json"), `[{"patchIndex":2,"ts":2}]`)
	writeFile(t, filepath.Join(dir, "rawData-1.json"), `[{"patchIndex":1,"ts":1}]`)
	writeFile(t, filepath.Join(dir, "notes.txt"), `ignored`)

	c, err := NewChunkDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	batches, err := c.Batches(context.Background())
	if err != nil {
		t.Fatalf("Batches() unexpected error: %v", err)
	}
	want := []int{1, 2, 10}
	if len(batches) != len(want) {
		t.Fatalf("Batches() = %d, want %d", len(batches), len(want))
	}
	for i, seq := range want {
		if batches[i].Seq != seq {
			t.Errorf("batch %d seq = %d, want %d", i, batches[i].Seq, seq)
		}
	}
}

func TestChunkDir_RawHistoryLayout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rawData-1.json"),
		`[{"_id":"a","AE":{"AB":1000,"AC":1001},"AF":{"AA":7,"AB":1}},{"_id":"b","AE":{"AB":1200,"AC":1201},"AF":{"AA":8,"AB":2}}]`)

	c, err := NewChunkDir(dir, WithDevice("DF:4A:35:79:15:C9"))
	if err != nil {
		t.Fatal(err)
	}
	batches, err := c.Batches(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got := batches[0]
	if got.DeviceID != "DF:4A:35:79:15:C9" {
		t.Errorf("DeviceID = %q", got.DeviceID)
	}
	if got.Records[1] != (domain.Record{PatchIndex: 8, TS: 1200, DpTS: 1201, AppIndex: 2}) {
		t.Errorf("record = %+v", got.Records[1])
	}
}

func TestChunkDir_MalformedRecord(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing patch index", `[{"patchIndex":1,"ts":1},{"ts":2}]`},
		{"non-numeric patch index", `[{"patchIndex":"x","ts":1}]`},
		{"not an array", `{"patchIndex":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "rawData-1.json"), tt.content)
			c, err := NewChunkDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := c.Batches(context.Background()); !errors.Is(err, domain.ErrMalformedRecord) {
				t.Errorf("Batches() error = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestChunkDir_ExpectedChunks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rawData-1.json"), `[{"patchIndex":1,"ts":1}]`)
	writeFile(t, filepath.Join(dir, "rawData-3.json"), `[{"patchIndex":3,"ts":3}]`)

	span := domain.ChunkSpan{StartMs: 0, EndMs: 3 * 3600000, Span: time.Hour}
	c, err := NewChunkDir(dir, WithChunkSpan(span))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Batches(context.Background()); !errors.Is(err, ErrMissingChunk) {
		t.Errorf("Batches() error = %v, want ErrMissingChunk", err)
	}

	writeFile(t, filepath.Join(dir, "rawData-2.json"), `[{"patchIndex":2,"ts":2}]`)
	writeFile(t, filepath.Join(dir, "rawData-4.json"), `[{"patchIndex":4,"ts":4}]`)
	batches, err := c.Batches(context.Background())
	if err != nil {
		t.Fatalf("Batches() unexpected error: %v", err)
	}
	if len(batches) != 3 {
		t.Errorf("Batches() = %d, want 3 (chunks past the range ignored)", len(batches))
	}
	if batches[1].StartMs != 3600000 || batches[1].EndMs != 7200000 {
		t.Errorf("chunk 2 bounds = [%d, %d]", batches[1].StartMs, batches[1].EndMs)
	}
}

func TestChunkDir_Pattern(t *testing.T) {
	c, err := NewChunkDir(t.TempDir(), WithPattern("chunk_%d.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if seq, ok := c.Matches("/x/chunk_12.txt"); !ok || seq != 12 {
		t.Errorf("Matches() = %d, %v", seq, ok)
	}
	if _, ok := c.Matches("chunk_12.txt.tmp"); ok {
		t.Error("temp file matched")
	}
	if _, ok := c.Matches("chunk_0.txt"); ok {
		t.Error("sequence 0 matched")
	}
	if _, ok := c.Matches("chunk_012.txt"); ok {
		t.Error("zero-padded sequence matched")
	}

	for _, bad := range []string{"chunk.txt", "chunk_%d_%d.txt", "chunk_%s.txt"} {
		if _, err := NewChunkDir(t.TempDir(), WithPattern(bad)); err == nil {
			t.Errorf("NewChunkDir(%q) expected error", bad)
		}
	}
}

func TestChunkDir_IgnoresNonCanonicalNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rawData-1.json"), `[{"patchIndex":1,"ts":1}]`)
	writeFile(t, filepath.Join(dir, "rawData-01.json"), `[{"patchIndex":1,"ts":1}]`)
	writeFile(t, filepath.Join(dir, "rawData-002.json"), `[{"patchIndex":2,"ts":2}]`)

	c, err := NewChunkDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	batches, err := c.Batches(context.Background())
	if err != nil {
		t.Fatalf("Batches() unexpected error: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("Batches() = %d, want 1", len(batches))
	}
	if batches[0].ID != "rawData-1.json" || batches[0].Size() != 1 {
		t.Errorf("batch = %+v", batches[0])
	}
}

func TestChunkDir_LoadEmptyChunk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rawData-1.json"), `[]`)

	c, err := NewChunkDir(dir, WithDevice("dev-1"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Load(1)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !b.Empty() || b.DeviceID != "dev-1" || b.Seq != 1 {
		t.Errorf("Load() = %+v", b)
	}
}

func TestChunkDir_MissingDir(t *testing.T) {
	c, err := NewChunkDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Batches(context.Background()); err == nil {
		t.Error("Batches() expected error for missing directory")
	}
}
