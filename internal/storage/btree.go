package storage

import (
	"os"
	"sort"

	"smfdb/internal/catalog"
	"smfdb/internal/dbtype"
)

// entry is one (key, rid) pair in the index.
type entry struct {
	Key []byte
	Rid Rid
}

// Index is a composite-key ordered index over a table, exposing the public
// operations an IndexScan needs (lower/upper bound iteration, insert,
// erase) without committing to the on-disk B+-tree page layout spec.md
// treats as a collaborator (§1).
type Index struct {
	Meta    *catalog.IndexMeta
	path    string
	entries []entry // kept sorted by Key
}

func OpenIndex(path string, meta *catalog.IndexMeta) (*Index, error) {
	idx := &Index{Meta: meta, path: path}
	if data, err := os.ReadFile(path); err == nil {
		idx.decode(data)
	}
	return idx, nil
}

func (idx *Index) keyLen() int { return idx.Meta.ColTotLen() }

func (idx *Index) decode(data []byte) {
	recLen := idx.keyLen() + 8
	for off := 0; off+recLen <= len(data); off += recLen {
		key := make([]byte, idx.keyLen())
		copy(key, data[off:off+idx.keyLen()])
		page := int(leUint32(data[off+idx.keyLen() : off+idx.keyLen()+4]))
		slot := int(leUint32(data[off+idx.keyLen()+4 : off+idx.keyLen()+8]))
		idx.entries = append(idx.entries, entry{Key: key, Rid: Rid{Page: page, Slot: slot}})
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func (idx *Index) less(a, b []byte) bool {
	off := 0
	for _, c := range idx.Meta.Cols {
		cmp := dbtype.Compare(a[off:off+c.Len], b[off:off+c.Len], c.Len, c.Kind)
		if cmp != 0 {
			return cmp < 0
		}
		off += c.Len
	}
	return false
}

// Insert adds (key, rid), keeping entries sorted.
func (idx *Index) Insert(key []byte, rid Rid) {
	i := sort.Search(len(idx.entries), func(i int) bool { return !idx.less(idx.entries[i].Key, key) })
	idx.entries = append(idx.entries, entry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = entry{Key: append([]byte(nil), key...), Rid: rid}
}

// Erase removes the first entry matching (key, rid).
func (idx *Index) Erase(key []byte, rid Rid) {
	for i, e := range idx.entries {
		if e.Rid == rid && string(e.Key) == string(key) {
			idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
			return
		}
	}
}

// LowerBound returns the position of the first entry >= key.
func (idx *Index) LowerBound(key []byte) int {
	return sort.Search(len(idx.entries), func(i int) bool { return !idx.less(idx.entries[i].Key, key) })
}

// UpperBound returns the position of the first entry >= key strictly, i.e.
// the first entry not < key is LowerBound; UpperBound finds first > key.
func (idx *Index) UpperBound(key []byte) int {
	return sort.Search(len(idx.entries), func(i int) bool { return idx.less(key, idx.entries[i].Key) })
}

// Range yields every (key, rid) with lo <= key < hi in ascending order.
func (idx *Index) Range(lo, hi []byte) []struct {
	Key []byte
	Rid Rid
} {
	start := idx.LowerBound(lo)
	var out []struct {
		Key []byte
		Rid Rid
	}
	for i := start; i < len(idx.entries); i++ {
		if !idx.less(idx.entries[i].Key, hi) {
			break
		}
		out = append(out, struct {
			Key []byte
			Rid Rid
		}{idx.entries[i].Key, idx.entries[i].Rid})
	}
	return out
}

// Len is the number of entries currently in the index.
func (idx *Index) Len() int { return len(idx.entries) }

// At returns the entry at position i.
func (idx *Index) At(i int) ([]byte, Rid) { return idx.entries[i].Key, idx.entries[i].Rid }

// Flush persists the index to disk in a flat (key||page||slot) record
// format.
func (idx *Index) Flush() error {
	recLen := idx.keyLen() + 8
	buf := make([]byte, 0, recLen*len(idx.entries))
	for _, e := range idx.entries {
		buf = append(buf, e.Key...)
		var pageSlot [8]byte
		putUint32(pageSlot[0:4], uint32(e.Rid.Page))
		putUint32(pageSlot[4:8], uint32(e.Rid.Slot))
		buf = append(buf, pageSlot[:]...)
	}
	if err := os.WriteFile(idx.path, buf, 0o644); err != nil {
		return &dbtype.IOError{Op: "index.Flush", Err: err}
	}
	return nil
}
