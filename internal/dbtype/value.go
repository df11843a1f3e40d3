// Package dbtype defines the engine's scalar value type and its canonical
// fixed-width byte image, plus the error kinds surfaced at the transaction
// boundary.
package dbtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInt32 Kind = iota
	KindFloat32
	KindFixedStr
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "INT"
	case KindFloat32:
		return "FLOAT"
	case KindFixedStr:
		return "CHAR"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged scalar: Int32, Float32, or a zero-padded fixed-width
// string. Raw holds the canonical byte image once Init has run; it is the
// form stored on disk and compared during scans.
type Value struct {
	Kind Kind
	I    int32
	F    float32
	S    string
	Len  int // declared column length (FixedStr only)
	Raw  []byte
}

func NewInt(v int32) Value   { return Value{Kind: KindInt32, I: v} }
func NewFloat(v float32) Value { return Value{Kind: KindFloat32, F: v} }
func NewStr(v string, declaredLen int) Value {
	return Value{Kind: KindFixedStr, S: v, Len: declaredLen}
}

// ByteLen returns the canonical on-disk width of the value's kind.
func (v Value) ByteLen() int {
	switch v.Kind {
	case KindInt32, KindFloat32:
		return 4
	case KindFixedStr:
		return v.Len
	default:
		return 0
	}
}

// Init fixes Raw, the canonical comparison/storage image, zero-padding
// FixedStr to its declared length.
func (v *Value) Init() {
	switch v.Kind {
	case KindInt32:
		v.Raw = make([]byte, 4)
		binary.LittleEndian.PutUint32(v.Raw, uint32(v.I))
	case KindFloat32:
		v.Raw = make([]byte, 4)
		binary.LittleEndian.PutUint32(v.Raw, math.Float32bits(v.F))
	case KindFixedStr:
		v.Raw = make([]byte, v.Len)
		copy(v.Raw, v.S)
	}
}

// PromoteToFloat rewrites an Int32 value to Float32 in place; used when a
// predicate's LHS column is Float and the literal RHS is Int.
func (v *Value) PromoteToFloat() {
	if v.Kind != KindInt32 {
		return
	}
	v.Kind = KindFloat32
	v.F = float32(v.I)
	v.Init()
}

// Decode reconstructs a Value of the given kind/length from a raw byte image.
func Decode(kind Kind, declaredLen int, raw []byte) Value {
	switch kind {
	case KindInt32:
		return Value{Kind: kind, I: int32(binary.LittleEndian.Uint32(raw)), Raw: raw}
	case KindFloat32:
		return Value{Kind: kind, F: math.Float32frombits(binary.LittleEndian.Uint32(raw)), Raw: raw}
	case KindFixedStr:
		end := bytes.IndexByte(raw, 0)
		s := raw
		if end >= 0 {
			s = raw[:end]
		}
		return Value{Kind: kind, S: string(s), Len: declaredLen, Raw: raw}
	default:
		return Value{}
	}
}

// Compare returns -1/0/+1 comparing two byte images of the same typed
// column. FixedStr compares as raw bytes up to len; Int/Float compare as
// their native signed/float order.
func Compare(a, b []byte, length int, kind Kind) int {
	switch kind {
	case KindInt32:
		ia := int32(binary.LittleEndian.Uint32(a))
		ib := int32(binary.LittleEndian.Uint32(b))
		switch {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		default:
			return 0
		}
	case KindFloat32:
		fa := math.Float32frombits(binary.LittleEndian.Uint32(a))
		fb := math.Float32frombits(binary.LittleEndian.Uint32(b))
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case KindFixedStr:
		return bytes.Compare(a[:length], b[:length])
	default:
		return 0
	}
}

// Int32Min/Max, Float32Min/Max and the all-0x00/0xFF FixedStr images are the
// per-column type-min/type-max sentinels the predicate manager substitutes
// for unbounded range endpoints.
const (
	Int32Min = math.MinInt32
	Int32Max = math.MaxInt32
)

// Float32Min is FLT_MIN: the smallest positive normal float32, not -MaxFloat32.
const Float32Min = 1.17549435e-38
const Float32Max = math.MaxFloat32

// TypeMinBytes/TypeMaxBytes return the canonical byte image of the type's
// minimum/maximum sentinel value for a column of the given kind/length.
func TypeMinBytes(kind Kind, length int) []byte {
	switch kind {
	case KindInt32:
		v := NewInt(Int32Min)
		v.Init()
		return v.Raw
	case KindFloat32:
		v := NewFloat(Float32Min)
		v.Init()
		return v.Raw
	case KindFixedStr:
		return make([]byte, length) // all 0x00
	default:
		return nil
	}
}

func TypeMaxBytes(kind Kind, length int) []byte {
	switch kind {
	case KindInt32:
		v := NewInt(Int32Max)
		v.Init()
		return v.Raw
	case KindFloat32:
		v := NewFloat(Float32Max)
		v.Init()
		return v.Raw
	case KindFixedStr:
		b := make([]byte, length)
		for i := range b {
			b[i] = 0xFF
		}
		return b
	default:
		return nil
	}
}

// FormatValue renders a value the way SELECT output does: floats always to
// six decimal places, strings trimmed of padding.
func FormatValue(v Value) string {
	switch v.Kind {
	case KindInt32:
		return fmt.Sprintf("%d", v.I)
	case KindFloat32:
		return fmt.Sprintf("%.6f", v.F)
	case KindFixedStr:
		return v.S
	default:
		return ""
	}
}
