package domain

import "time"

// Batch is the ordered output of one fetch-and-parse operation over a
// bounded time range. Boundaries carry no meaning beyond ordering.
type Batch struct {
	// ID identifies the batch in a store. Empty for unsaved batches.
	ID string

	// DeviceID is the device the chunk was fetched for.
	DeviceID string

	// Seq is the 1-based acquisition order of the chunk.
	Seq int

	// StartMs and EndMs bound the fetched time range in unix milliseconds.
	StartMs int64
	EndMs   int64

	// Records holds the samples in device order.
	Records []Record
}

// NewBatch creates an empty batch with the given sequence number.
func NewBatch(seq int) *Batch {
	return &Batch{
		Seq:     seq,
		Records: make([]Record, 0),
	}
}

// Add appends a record to the batch.
func (b *Batch) Add(r Record) {
	b.Records = append(b.Records, r)
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Records)
}

// Empty returns true if the batch has no records.
func (b *Batch) Empty() bool {
	return len(b.Records) == 0
}

// LastRecord returns the last record in the batch, or nil if empty.
func (b *Batch) LastRecord() *Record {
	if len(b.Records) == 0 {
		return nil
	}
	return &b.Records[len(b.Records)-1]
}

// ChunkSpan describes how a requested time range is split into chunks.
type ChunkSpan struct {
	StartMs int64
	EndMs   int64
	Span    time.Duration
}

// Count returns the number of chunks needed to cover the range, rounded up.
// An empty or inverted range needs no chunks.
func (c ChunkSpan) Count() int {
	span := c.Span.Milliseconds()
	if span <= 0 || c.EndMs <= c.StartMs {
		return 0
	}
	total := c.EndMs - c.StartMs
	return int((total + span - 1) / span)
}

// Bounds returns the time range of the 1-based chunk i.
func (c ChunkSpan) Bounds(i int) (int64, int64) {
	span := c.Span.Milliseconds()
	start := c.StartMs + span*int64(i-1)
	return start, start + span
}
