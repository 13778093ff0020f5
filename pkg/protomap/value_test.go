package protomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueOf(t *testing.T) {
	assert.Equal(t, KindUnset, ValueOf(nil).Kind())
	assert.Equal(t, KindScalar, ValueOf("x").Kind())
	assert.Equal(t, KindBytes, ValueOf([]byte{1}).Kind())
	assert.Equal(t, KindNested, ValueOf(newAddress("a")).Kind())
	assert.Equal(t, KindUnset, ValueOf((*testAddress)(nil)).Kind())

	seq := ValueOf([]string{"a", "b"})
	assert.Equal(t, KindRepeated, seq.Kind())
	assert.Equal(t, 2, seq.Len())
	assert.Equal(t, []any{"a", "b"}, seq.Interface())

	mixed := ValueOf([]any{"a", []byte{2}})
	assert.Equal(t, KindBytes, mixed.List()[1].Kind())

	v := Scalar(uint32(7))
	assert.Equal(t, v, ValueOf(v))
	assert.Equal(t, "repeated", KindRepeated.String())
}

func TestValueAccessors(t *testing.T) {
	n, ok := As[uint32](Scalar(uint32(7)))
	assert.True(t, ok)
	assert.Equal(t, uint32(7), n)

	_, ok = As[string](Scalar(uint32(7)))
	assert.False(t, ok)

	xs, ok := AsList[string](List("a", "b", "c"))
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, xs)

	_, ok = AsList[string](List[any]("a", 1))
	assert.False(t, ok)
	_, ok = AsList[string](Scalar("a"))
	assert.False(t, ok)

	empty := Sequence()
	assert.Equal(t, KindRepeated, empty.Kind())
	assert.False(t, empty.IsUnset())
	assert.Equal(t, []any{}, empty.Interface())
	assert.Nil(t, Scalar("x").List())
}

func TestSame(t *testing.T) {
	a := newAddress("x")
	assert.True(t, same(Unset(), Unset()))
	assert.True(t, same(Scalar("a"), Scalar("a")))
	assert.False(t, same(Scalar("a"), Scalar("b")))
	assert.False(t, same(Scalar(int32(1)), Scalar(int64(1))))
	assert.True(t, same(Bytes([]byte{1}), Bytes([]byte{1})))
	assert.True(t, same(Nested(a), Nested(a)))
	assert.False(t, same(Nested(a), Nested(newAddress("x"))))
	assert.False(t, same(List("a"), List("a")))
	assert.False(t, same(Scalar([]int{1}), Scalar([]int{1})))
	assert.False(t, same(Scalar("a"), Unset()))
}
