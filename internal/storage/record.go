// Package storage is the paged byte-store collaborator spec.md treats as
// out of scope beyond pin/unpin/fetch/flush: a slotted heap file for table
// records and a sorted index file standing in for the B+-tree's public
// operations (insert/erase/lower_bound/upper_bound), per §1's "treat as a
// collaborator" boundary.
package storage

import "smfdb/internal/lock"

// Rid identifies a row within a table file: (page-no, slot-no). Aliased
// from the lock package so callers don't juggle two identical types.
type Rid = lock.Rid

// Record is an owned byte buffer of a table's fixed record width.
type Record struct {
	Data []byte
}

func NewRecord(width int) Record { return Record{Data: make([]byte, width)} }

// NewRecordFrom wraps an already-encoded byte image as a Record.
func NewRecordFrom(data []byte) Record { return Record{Data: data} }
