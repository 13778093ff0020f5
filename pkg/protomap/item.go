package protomap

import (
	"fmt"

	"github.com/lk2023060901/protomap-go/pkg/protomap/converter"
	"github.com/lk2023060901/protomap-go/pkg/protomap/wire"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// Item 描述一个属性与线上字段的对应关系，构建后只读。
type Item struct {
	attr       string
	name       string
	id         uint32
	kind       wire.Kind
	required   bool
	repeated   bool
	conv       converter.Converter
	defaultVal Value
	nested     *Definition
}

// ItemOption 调整 Field 构建的 Item。
type ItemOption func(*Item)

// WithName 指定线上字段名，默认与属性名相同。
func WithName(name string) ItemOption {
	return func(it *Item) {
		it.name = name
	}
}

// WithType 指定线上标量类型，默认 bytes。
//
// 写入与导入后的标量统一为该类型的规范 Go 类型：
// bool、string、[]byte，int32/sint32/sfixed32 为 int32，
// int64/sint64/sfixed64 为 int64，uint32/fixed32 为 uint32，
// uint64/fixed64 为 uint64，float 为 float32，double 为 float64。
func WithType(kind wire.Kind) ItemOption {
	return func(it *Item) {
		it.kind = kind
	}
}

func Required() ItemOption {
	return func(it *Item) {
		it.required = true
	}
}

func Repeated() ItemOption {
	return func(it *Item) {
		it.repeated = true
	}
}

// WithConverter 指定值转换器，字段类型必须是 bytes。
func WithConverter(c converter.Converter) ItemOption {
	return func(it *Item) {
		it.conv = c
	}
}

// WithDefault 指定字段未设置时读取与导出使用的值。
func WithDefault(v any) ItemOption {
	return func(it *Item) {
		it.defaultVal = ValueOf(v)
	}
}

// WithNested 指定嵌套消息定义，字段类型必须是 bytes。
// 同时声明转换器时以嵌套定义为准。
func WithNested(def *Definition) ItemOption {
	return func(it *Item) {
		it.nested = def
	}
}

// Field 声明一个映射字段。
func Field(attr string, id uint32, opts ...ItemOption) *Item {
	it := &Item{
		attr: attr,
		name: attr,
		id:   id,
		kind: wire.Bytes,
	}
	for _, opt := range opts {
		opt(it)
	}
	if it.nested != nil {
		it.conv = nil
	}
	return it
}

func (it *Item) Attr() string                   { return it.attr }
func (it *Item) Name() string                   { return it.name }
func (it *Item) ID() uint32                     { return it.id }
func (it *Item) Kind() wire.Kind                { return it.kind }
func (it *Item) IsRequired() bool               { return it.required }
func (it *Item) IsRepeated() bool               { return it.repeated }
func (it *Item) Converter() converter.Converter { return it.conv }
func (it *Item) Default() Value                 { return it.defaultVal }
func (it *Item) Nested() *Definition            { return it.nested }

// Cardinality 按 repeated、required、optional 的优先级返回出现规则。
func (it *Item) Cardinality() wire.Cardinality {
	switch {
	case it.repeated:
		return wire.Repeated
	case it.required:
		return wire.Required
	default:
		return wire.Optional
	}
}

func (it *Item) wireField() wire.Field {
	return wire.Field{
		Name:        it.name,
		ID:          it.id,
		Kind:        it.kind,
		Cardinality: it.Cardinality(),
	}
}

// normalize 校验 v 的形态并把标量转换为字段类型的规范 Go 类型。
func (it *Item) normalize(v Value) (Value, error) {
	if v.IsUnset() {
		return v, nil
	}
	if !it.repeated {
		return it.normalizeElement(v)
	}
	if v.kind != KindRepeated {
		return Value{}, merr.WrapErrSchemaMismatch(it.attr, "repeated", v.kind)
	}
	list := make([]Value, len(v.list))
	for i, el := range v.list {
		n, err := it.normalizeElement(el)
		if err != nil {
			return Value{}, err
		}
		list[i] = n
	}
	return Value{kind: KindRepeated, list: list}, nil
}

func (it *Item) normalizeElement(v Value) (Value, error) {
	switch {
	case it.nested != nil:
		if v.kind != KindNested {
			return Value{}, merr.WrapErrSchemaMismatch(it.attr, KindNested, v.kind)
		}
		if err := ensureBound(v.nested, it.nested); err != nil {
			return Value{}, err
		}
		if def := v.nested.ProtoObject().def; !def.derivesFrom(it.nested) {
			return Value{}, merr.WrapErrSchemaMismatch(it.attr, it.nested.localName, def.localName)
		}
		return v, nil
	case it.conv != nil:
		if v.kind != KindScalar && v.kind != KindBytes {
			return Value{}, merr.WrapErrSchemaMismatch(it.attr, "converter", v.kind)
		}
		return v, nil
	case v.kind == KindScalar:
		n, err := wire.Normalize(it.kind, v.scalar)
		if err != nil {
			return Value{}, merr.WrapErrSchemaMismatch(it.attr, it.kind, fmt.Sprintf("%T", v.scalar), err.Error())
		}
		if b, ok := n.([]byte); ok {
			return Bytes(b), nil
		}
		return Scalar(n), nil
	case v.kind == KindBytes:
		switch it.kind {
		case wire.Bytes:
			return v, nil
		case wire.String:
			return Scalar(string(v.bytes)), nil
		}
		return Value{}, merr.WrapErrSchemaMismatch(it.attr, it.kind, v.kind)
	default:
		return Value{}, merr.WrapErrSchemaMismatch(it.attr, describe(it), v.kind)
	}
}
