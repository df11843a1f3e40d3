package dbtype

import "testing"

import "github.com/stretchr/testify/require"

func TestValueRoundTrip(t *testing.T) {
	cases := []Value{
		NewInt(-42),
		NewFloat(85.0),
		NewStr("hello", 8),
	}
	for _, v := range cases {
		v.Init()
		got := Decode(v.Kind, v.Len, v.Raw)
		require.Equal(t, FormatValue(v), FormatValue(got))
	}
}

func TestCompareTotalOrder(t *testing.T) {
	a := NewInt(1)
	a.Init()
	b := NewInt(2)
	b.Init()
	require.Equal(t, 0, Compare(a.Raw, a.Raw, 4, KindInt32))
	require.Equal(t, -1, Compare(a.Raw, b.Raw, 4, KindInt32))
	require.Equal(t, 1, Compare(b.Raw, a.Raw, 4, KindInt32))
}

func TestPromoteToFloat(t *testing.T) {
	v := NewInt(5)
	v.PromoteToFloat()
	require.Equal(t, KindFloat32, v.Kind)
	require.Equal(t, float32(5), v.F)
}

func TestTypeMinMaxFixedStr(t *testing.T) {
	lo := TypeMinBytes(KindFixedStr, 4)
	hi := TypeMaxBytes(KindFixedStr, 4)
	require.Equal(t, -1, Compare(lo, hi, 4, KindFixedStr))
}
