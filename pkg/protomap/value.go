package protomap

import (
	"bytes"
	"reflect"

	"github.com/samber/lo"
)

// ValueKind 标识 Value 中保存的数据形态。
type ValueKind uint8

const (
	KindUnset ValueKind = iota
	KindScalar
	KindBytes
	KindNested
	KindRepeated
)

func (k ValueKind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindScalar:
		return "scalar"
	case KindBytes:
		return "bytes"
	case KindNested:
		return "nested"
	case KindRepeated:
		return "repeated"
	default:
		return "unknown"
	}
}

// Value 是字段值的标签联合：未设置、标量、字节、嵌套消息或重复值序列。
// 零值即 Unset。
type Value struct {
	kind   ValueKind
	scalar any
	bytes  []byte
	nested Message
	list   []Value
}

func Unset() Value { return Value{} }

// Scalar 保存一个标量，nil 视为 Unset。
func Scalar(v any) Value {
	if v == nil {
		return Value{}
	}
	return Value{kind: KindScalar, scalar: v}
}

func Bytes(b []byte) Value {
	return Value{kind: KindBytes, bytes: b}
}

// Nested 保存嵌套消息，nil 视为 Unset。
func Nested(m Message) Value {
	if isNilMessage(m) {
		return Value{}
	}
	return Value{kind: KindNested, nested: m}
}

// Sequence 保存一个有序序列，空序列与 Unset 不同。
func Sequence(vs ...Value) Value {
	list := make([]Value, len(vs))
	copy(list, vs)
	return Value{kind: KindRepeated, list: list}
}

// List 把类型化切片转换为 Sequence。
func List[T any](xs ...T) Value {
	return Sequence(lo.Map(xs, func(x T, _ int) Value { return ValueOf(x) })...)
}

// ValueOf 根据 Go 值推断形态：[]byte 为 Bytes，Message 为 Nested，
// 除 []byte 以外的切片为 Sequence，其余为 Scalar。
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case []byte:
		return Bytes(x)
	case Message:
		return Nested(x)
	case []Value:
		return Sequence(x...)
	case []any:
		return List(x...)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		list := make([]Value, rv.Len())
		for i := range list {
			list[i] = ValueOf(rv.Index(i).Interface())
		}
		return Value{kind: KindRepeated, list: list}
	}
	return Scalar(v)
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsUnset() bool { return v.kind == KindUnset }

func (v Value) Scalar() any { return v.scalar }

func (v Value) Bytes() []byte { return v.bytes }

func (v Value) Nested() Message { return v.nested }

// List 返回序列的副本。
func (v Value) List() []Value {
	if v.kind != KindRepeated {
		return nil
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out
}

// Len 返回序列长度，非序列返回 0。
func (v Value) Len() int {
	return len(v.list)
}

// Interface 返回对应的 Go 值，序列展开为 []any。
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindBytes:
		return v.bytes
	case KindNested:
		return v.nested
	case KindRepeated:
		return lo.Map(v.list, func(item Value, _ int) any { return item.Interface() })
	default:
		return nil
	}
}

// As 以类型 T 读取值。
func As[T any](v Value) (T, bool) {
	t, ok := v.Interface().(T)
	return t, ok
}

// AsList 以 []T 读取序列，任一元素类型不符时返回 false。
func AsList[T any](v Value) ([]T, bool) {
	if v.kind != KindRepeated {
		return nil, false
	}
	out := make([]T, 0, len(v.list))
	for _, item := range v.list {
		t, ok := As[T](item)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

// same 判断写入是否等同于当前值：标量按 ==，字节按内容，嵌套按同一实例。
// 序列总是视为新值。
func same(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUnset:
		return true
	case KindBytes:
		return bytes.Equal(a.bytes, b.bytes)
	case KindScalar:
		return comparableEqual(a.scalar, b.scalar)
	case KindNested:
		return comparableEqual(a.nested, b.nested)
	default:
		return false
	}
}

func comparableEqual(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}

func isNilMessage(m Message) bool {
	if m == nil {
		return true
	}
	rv := reflect.ValueOf(m)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
