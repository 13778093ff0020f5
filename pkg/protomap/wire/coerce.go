package wire

import (
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// toProtoValue 把 Go 值转换为字段类型对应的 protoreflect.Value。
// 整数之间允许互转，但超出目标范围时报错；浮点字段接受任意数值。
func toProtoValue(kind Kind, v any) (protoreflect.Value, error) {
	switch kind {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return protoreflect.Value{}, mismatch(kind, v)
		}
		return protoreflect.ValueOfBool(b), nil
	case String:
		switch s := v.(type) {
		case string:
			return protoreflect.ValueOfString(s), nil
		case []byte:
			return protoreflect.ValueOfString(string(s)), nil
		}
		return protoreflect.Value{}, mismatch(kind, v)
	case Bytes:
		switch b := v.(type) {
		case []byte:
			if b == nil {
				b = []byte{}
			}
			return protoreflect.ValueOfBytes(b), nil
		case string:
			return protoreflect.ValueOfBytes([]byte(b)), nil
		}
		return protoreflect.Value{}, mismatch(kind, v)
	case Int32, Sint32, Sfixed32:
		n, err := toSigned[int32](kind, v)
		return protoreflect.ValueOfInt32(n), err
	case Int64, Sint64, Sfixed64:
		n, err := toSigned[int64](kind, v)
		return protoreflect.ValueOfInt64(n), err
	case Uint32, Fixed32:
		n, err := toUnsigned[uint32](kind, v)
		return protoreflect.ValueOfUint32(n), err
	case Uint64, Fixed64:
		n, err := toUnsigned[uint64](kind, v)
		return protoreflect.ValueOfUint64(n), err
	case Float:
		f, err := toFloat(kind, v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return protoreflect.Value{}, errors.Newf("value %v overflows %s", f, kind)
		}
		return protoreflect.ValueOfFloat32(float32(f)), nil
	case Double:
		f, err := toFloat(kind, v)
		return protoreflect.ValueOfFloat64(f), err
	}
	return protoreflect.Value{}, errors.Newf("unsupported kind %s", kind)
}

// Normalize 把 v 转换为 kind 的规范 Go 类型，规则与编码时相同。
func Normalize(kind Kind, v any) (any, error) {
	pv, err := toProtoValue(kind, v)
	if err != nil {
		return nil, err
	}
	return fromProtoValue(kind, pv), nil
}

// fromProtoValue 返回字段类型对应的 Go 原生值。
func fromProtoValue(kind Kind, v protoreflect.Value) any {
	switch kind {
	case Bool:
		return v.Bool()
	case String:
		return v.String()
	case Bytes:
		return v.Bytes()
	case Int32, Sint32, Sfixed32:
		return int32(v.Int())
	case Int64, Sint64, Sfixed64:
		return v.Int()
	case Uint32, Fixed32:
		return uint32(v.Uint())
	case Uint64, Fixed64:
		return v.Uint()
	case Float:
		return float32(v.Float())
	case Double:
		return v.Float()
	}
	return v.Interface()
}

func toSigned[T constraints.Signed](kind Kind, v any) (T, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	default:
		u, ok := widenUnsigned(v)
		if !ok {
			return 0, mismatch(kind, v)
		}
		if u > math.MaxInt64 {
			return 0, errors.Newf("value %d overflows %s", u, kind)
		}
		n = int64(u)
	}
	if int64(T(n)) != n {
		return 0, errors.Newf("value %d overflows %s", n, kind)
	}
	return T(n), nil
}

func toUnsigned[T constraints.Unsigned](kind Kind, v any) (T, error) {
	u, ok := widenUnsigned(v)
	if !ok {
		n, err := toSigned[int64](kind, v)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, errors.Newf("negative value %d for %s", n, kind)
		}
		u = uint64(n)
	}
	if uint64(T(u)) != u {
		return 0, errors.Newf("value %d overflows %s", u, kind)
	}
	return T(u), nil
}

func widenUnsigned(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	return 0, false
}

func toFloat(kind Kind, v any) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	if u, ok := widenUnsigned(v); ok {
		return float64(u), nil
	}
	n, err := toSigned[int64](kind, v)
	if err != nil {
		return 0, mismatch(kind, v)
	}
	return float64(n), nil
}

func mismatch(kind Kind, v any) error {
	return errors.Newf("cannot use %T as %s", v, kind)
}
