package protomap

import (
	"fmt"

	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// Message 由嵌入 Object 的类型实现。
//
//	type Person struct {
//		protomap.Object
//	}
type Message interface {
	ProtoObject() *Object
}

type cacheState uint8

const (
	cacheAbsent cacheState = iota
	cacheValid
	cacheStale
)

// Object 保存映射字段的值与最近一次编解码得到的字节缓存。
// Object 不做并发保护，同一实例不能在多个 goroutine 中同时使用。
type Object struct {
	def    *Definition
	values []Value
	raw    []byte
	state  cacheState
	// gen 在每次重新编码或成功导入后递增。
	gen uint64
	// seen 记录上次编解码时各嵌套实例的 gen。
	seen map[*Object]uint64
}

func (o *Object) ProtoObject() *Object {
	return o
}

// Definition 返回绑定的定义，未绑定时为 nil。
func (o *Object) Definition() *Definition {
	return o.def
}

// IsEmpty 在实例从未成功导入、导出且从未写入字段时返回 true。
func (o *Object) IsEmpty() bool {
	return o.state == cacheAbsent
}

// HasChanged 在缓存失效，或任一嵌套实例发生变化时返回 true。
// 嵌套实例单独导出或导入过，其字节与父实例缓存中的不再一致，也视为变化。
// 新建实例返回 false。
func (o *Object) HasChanged() bool {
	if o.state == cacheStale {
		return true
	}
	if o.def == nil {
		return false
	}
	for i, it := range o.def.items {
		if it.nested == nil {
			continue
		}
		v := o.values[i]
		switch v.kind {
		case KindNested:
			if o.childChanged(v.nested.ProtoObject()) {
				return true
			}
		case KindRepeated:
			for _, el := range v.list {
				if el.kind == KindNested && o.childChanged(el.nested.ProtoObject()) {
					return true
				}
			}
		}
	}
	return false
}

func (o *Object) childChanged(child *Object) bool {
	return child.HasChanged() || o.seen[child] != child.gen
}

// track 记录嵌套实例当前的 gen。
func (o *Object) track(child *Object) {
	if o.seen == nil {
		o.seen = make(map[*Object]uint64)
	}
	o.seen[child] = child.gen
}

// Invalidate 强制下一次导出重新编码。
func (o *Object) Invalidate() {
	o.state = cacheStale
}

// Get 返回字段的有效值：未设置时返回默认值。
// 属性不存在或实例未绑定时返回 Unset。
func (o *Object) Get(attr string) Value {
	v, _ := o.Lookup(attr)
	return v
}

func (o *Object) Lookup(attr string) (Value, error) {
	i, it, err := o.item(attr)
	if err != nil {
		return Value{}, err
	}
	if v := o.values[i]; !v.IsUnset() {
		return v, nil
	}
	return it.defaultVal, nil
}

// Set 写入字段。值与当前值相同时不改变缓存状态，否则缓存失效。
func (o *Object) Set(attr string, v Value) error {
	i, it, err := o.item(attr)
	if err != nil {
		return err
	}
	v, err = it.normalize(v)
	if err != nil {
		return err
	}
	if same(o.values[i], v) {
		return nil
	}
	o.values[i] = v
	o.state = cacheStale
	return nil
}

// Append 向 repeated 字段追加元素。
func (o *Object) Append(attr string, vs ...Value) error {
	i, it, err := o.item(attr)
	if err != nil {
		return err
	}
	if !it.repeated {
		return merr.WrapErrSchemaMismatch(attr, "repeated", "single")
	}
	cur := o.values[i]
	list := make([]Value, 0, cur.Len()+len(vs))
	list = append(list, cur.list...)
	for _, el := range vs {
		n, err := it.normalizeElement(el)
		if err != nil {
			return err
		}
		list = append(list, n)
	}
	o.values[i] = Value{kind: KindRepeated, list: list}
	o.state = cacheStale
	return nil
}

// Clear 把字段恢复为未设置。
func (o *Object) Clear(attr string) error {
	return o.Set(attr, Unset())
}

// Child 返回非 repeated 嵌套字段的实例，未设置时创建一个空实例并保存。
// 空实例不产生字节，因此不会使缓存失效。
func (o *Object) Child(attr string) (Message, error) {
	i, it, err := o.item(attr)
	if err != nil {
		return nil, err
	}
	if it.nested == nil || it.repeated {
		return nil, merr.WrapErrSchemaMismatch(attr, "nested", describe(it))
	}
	if v := o.values[i]; v.kind == KindNested {
		return v.nested, nil
	}
	child := it.nested.New()
	o.values[i] = Nested(child)
	return child, nil
}

func (o *Object) item(attr string) (int, *Item, error) {
	if o.def == nil {
		return 0, nil, merr.WrapErrNotBound(fmt.Sprintf("%T", o))
	}
	i, ok := o.def.index[attr]
	if !ok {
		return 0, nil, merr.WrapErrFieldNotFound(attr, o.def.localName)
	}
	return i, o.def.items[i], nil
}

// ensureBound 优先按实例类型绑定，找不到时使用字段声明的嵌套定义。
func ensureBound(m Message, fallback *Definition) error {
	if m.ProtoObject().def != nil {
		return nil
	}
	if def, ok := Lookup(m); ok {
		def.bind(m)
		return nil
	}
	if fallback == nil {
		return merr.WrapErrNotBound(fmt.Sprintf("%T", m))
	}
	fallback.bind(m)
	return nil
}

func describe(it *Item) string {
	switch {
	case it.nested != nil:
		return "nested"
	case it.conv != nil:
		return "converter"
	default:
		return it.kind.String()
	}
}
