// Package wal implements the log manager (C4): typed log records with a
// fixed 20-byte header, a buffered append path, and a background flush
// thread, grounded in the original engine's LogRecord/LogManager shape.
package wal

import (
	"encoding/binary"

	"smfdb/internal/lock"
)

// Type tags a log record's kind.
type Type uint8

const (
	TypeUpdate Type = iota
	TypeInsert
	TypeDelete
	TypeBegin
	TypeCommit
	TypeAbort
	TypeStaticCheckpoint
)

// HeaderLen is the fixed 20-byte header: type(4) + lsn(4) + totLen(4) +
// txnID(4) + prevLSN(4), matching §6's "header is 20 bytes".
const HeaderLen = 20

// Record is one WAL entry: the fixed header plus a per-kind body.
type Record struct {
	Type    Type
	LSN     uint32
	TotLen  uint32
	TxnID   uint32
	PrevLSN uint32

	// bodies, populated per Type
	Value    []byte // Insert/Delete only: the record image
	OldValue []byte // Update only
	NewValue []byte // Update only
	Rid      lock.Rid
	Table    string
}

// Encode serializes r into the wire form described in §4.4/§6: a 20-byte
// header followed by a type-specific body.
func (r *Record) Encode() []byte {
	body := r.encodeBody()
	r.TotLen = uint32(HeaderLen + len(body))
	buf := make([]byte, HeaderLen+len(body))
	buf[0] = byte(r.Type)
	binary.LittleEndian.PutUint32(buf[4:8], r.LSN)
	binary.LittleEndian.PutUint32(buf[8:12], r.TotLen)
	binary.LittleEndian.PutUint32(buf[12:16], r.TxnID)
	binary.LittleEndian.PutUint32(buf[16:20], r.PrevLSN)
	copy(buf[HeaderLen:], body)
	return buf
}

func (r *Record) encodeBody() []byte {
	switch r.Type {
	case TypeBegin, TypeCommit, TypeAbort, TypeStaticCheckpoint:
		return nil
	case TypeInsert, TypeDelete:
		return encodeValueRidTable(r.Value, r.Rid, r.Table)
	case TypeUpdate:
		b := make([]byte, 0, 4+len(r.OldValue)+len(r.NewValue)+8+4+len(r.Table))
		var sz [4]byte
		binary.LittleEndian.PutUint32(sz[:], uint32(len(r.OldValue)))
		b = append(b, sz[:]...)
		b = append(b, r.OldValue...)
		b = append(b, r.NewValue...)
		b = appendRidTable(b, r.Rid, r.Table)
		return b
	default:
		return nil
	}
}

func encodeValueRidTable(value []byte, rid lock.Rid, table string) []byte {
	b := make([]byte, 0, 4+len(value)+8+4+len(table))
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], uint32(len(value)))
	b = append(b, sz[:]...)
	b = append(b, value...)
	return appendRidTable(b, rid, table)
}

func appendRidTable(b []byte, rid lock.Rid, table string) []byte {
	var ridBuf [8]byte
	binary.LittleEndian.PutUint32(ridBuf[0:4], uint32(rid.Page))
	binary.LittleEndian.PutUint32(ridBuf[4:8], uint32(rid.Slot))
	b = append(b, ridBuf[:]...)
	var nameSz [4]byte
	binary.LittleEndian.PutUint32(nameSz[:], uint32(len(table)))
	b = append(b, nameSz[:]...)
	b = append(b, table...)
	return b
}

// Decode reconstructs a Record from its wire form. For Update, the single
// value-size field gives the length of both the old and the new image
// (both halves share one length since a table's records are fixed size).
func Decode(buf []byte) (*Record, error) {
	r := &Record{}
	r.Type = Type(buf[0])
	r.LSN = binary.LittleEndian.Uint32(buf[4:8])
	r.TotLen = binary.LittleEndian.Uint32(buf[8:12])
	r.TxnID = binary.LittleEndian.Uint32(buf[12:16])
	r.PrevLSN = binary.LittleEndian.Uint32(buf[16:20])
	body := buf[HeaderLen:r.TotLen]

	switch r.Type {
	case TypeBegin, TypeCommit, TypeAbort, TypeStaticCheckpoint:
		return r, nil
	case TypeInsert, TypeDelete:
		sz := binary.LittleEndian.Uint32(body[0:4])
		off := 4
		r.Value = body[off : off+int(sz)]
		off += int(sz)
		r.Rid.Page = int(binary.LittleEndian.Uint32(body[off : off+4]))
		r.Rid.Slot = int(binary.LittleEndian.Uint32(body[off+4 : off+8]))
		off += 8
		nameSz := binary.LittleEndian.Uint32(body[off : off+4])
		off += 4
		r.Table = string(body[off : off+int(nameSz)])
		return r, nil
	case TypeUpdate:
		sz := binary.LittleEndian.Uint32(body[0:4])
		off := 4
		r.OldValue = body[off : off+int(sz)]
		off += int(sz)
		r.NewValue = body[off : off+int(sz)]
		off += int(sz)
		r.Rid.Page = int(binary.LittleEndian.Uint32(body[off : off+4]))
		r.Rid.Slot = int(binary.LittleEndian.Uint32(body[off+4 : off+8]))
		off += 8
		nameSz := binary.LittleEndian.Uint32(body[off : off+4])
		off += 4
		r.Table = string(body[off : off+int(nameSz)])
		return r, nil
	default:
		return r, nil
	}
}
