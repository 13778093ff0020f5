package protomap

import (
	"context"
	"fmt"
	"reflect"

	"github.com/samber/lo"

	"github.com/lk2023060901/protomap-go/pkg/protomap/wire"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
	"github.com/lk2023060901/protomap-go/pkg/util/typeutil"
)

// Definition 是一个消息类型的映射定义：有序字段列表加上编译好的线上 schema。
// 构建后只读，可在多个 goroutine 间共享。
type Definition struct {
	localName string
	goType    reflect.Type
	parent    *Definition
	items     []*Item
	index     map[string]int
	schema    *wire.Schema
	newFn     func() Message
}

// Define 声明消息类型 T 的映射定义并登记到全局注册表。
// name 为空时取 T 的类型名；字段按参数顺序编码。
func Define[T Message](name string, newFn func() T, items ...*Item) (*Definition, error) {
	return define(name, erase(newFn), nil, items)
}

func MustDefine[T Message](name string, newFn func() T, items ...*Item) *Definition {
	def, err := Define(name, newFn, items...)
	if err != nil {
		panic(err)
	}
	return def
}

// Extend 以 parent 为基础声明子类型：复制父定义的字段，同名属性被覆盖，
// 新属性追加在末尾。父定义不会被修改。
func Extend[T Message](parent *Definition, name string, newFn func() T, items ...*Item) (*Definition, error) {
	if parent == nil {
		return nil, merr.WrapErrParameterMissing("parent")
	}
	return define(name, erase(newFn), parent, items)
}

func MustExtend[T Message](parent *Definition, name string, newFn func() T, items ...*Item) *Definition {
	def, err := Extend(parent, name, newFn, items...)
	if err != nil {
		panic(err)
	}
	return def
}

func erase[T Message](newFn func() T) func() Message {
	if newFn == nil {
		return nil
	}
	return func() Message { return newFn() }
}

func define(name string, newFn func() Message, parent *Definition, items []*Item) (*Definition, error) {
	if newFn == nil {
		return nil, merr.WrapErrSchemaInvalid(name, "nil constructor")
	}
	sample := newFn()
	if isNilMessage(sample) {
		return nil, merr.WrapErrSchemaInvalid(name, "constructor returned nil")
	}
	goType := reflect.TypeOf(sample)
	if name == "" {
		name = typeName(goType)
	}

	merged := make([]*Item, 0, len(items))
	index := make(map[string]int, len(items))
	if parent != nil {
		merged = append(merged, parent.items...)
		for i, it := range merged {
			index[it.attr] = i
		}
	}

	declared := typeutil.NewSet[string]()
	for _, it := range items {
		if it == nil {
			return nil, merr.WrapErrSchemaInvalid(name, "nil item")
		}
		if it.attr == "" {
			return nil, merr.WrapErrSchemaInvalid(name, "empty attribute name")
		}
		if !declared.TryInsert(it.attr) {
			return nil, merr.WrapErrDuplicateField(name, it.attr)
		}
		if (it.conv != nil || it.nested != nil) && it.kind != wire.Bytes {
			return nil, merr.WrapErrSchemaInvalid(name,
				fmt.Sprintf("field %s with converter or nested definition must be bytes, got %s", it.attr, it.kind))
		}
		dv, err := it.normalize(it.defaultVal)
		if err != nil {
			return nil, merr.WrapErrSchemaInvalid(name, fmt.Sprintf("bad default for field %s: %v", it.attr, err))
		}
		it.defaultVal = dv
		if i, ok := index[it.attr]; ok {
			merged[i] = it
			continue
		}
		index[it.attr] = len(merged)
		merged = append(merged, it)
	}

	schema, err := wire.Compile(name, lo.Map(merged, func(it *Item, _ int) wire.Field { return it.wireField() })...)
	if err != nil {
		return nil, err
	}

	def := &Definition{
		localName: name,
		goType:    goType,
		parent:    parent,
		items:     merged,
		index:     index,
		schema:    schema,
		newFn:     newFn,
	}
	defaultRegistry.register(def)
	return def, nil
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Name 返回线上消息名。
func (d *Definition) Name() string {
	return d.localName
}

// GoType 返回定义绑定的 Go 类型。
func (d *Definition) GoType() reflect.Type {
	return d.goType
}

// Parent 返回 Extend 时的父定义，没有则为 nil。
func (d *Definition) Parent() *Definition {
	return d.parent
}

// Items 按声明顺序返回字段列表的副本。
func (d *Definition) Items() []*Item {
	out := make([]*Item, len(d.items))
	copy(out, d.items)
	return out
}

func (d *Definition) Item(attr string) (*Item, bool) {
	i, ok := d.index[attr]
	if !ok {
		return nil, false
	}
	return d.items[i], true
}

func (d *Definition) Schema() *wire.Schema {
	return d.schema
}

// New 创建并绑定一个空实例。
func (d *Definition) New() Message {
	m := d.newFn()
	d.bind(m)
	return m
}

// Import 创建新实例并从 data 导入。
func (d *Definition) Import(ctx context.Context, data []byte) (Message, error) {
	m := d.New()
	if err := m.ProtoObject().ImportProto(ctx, data); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s(%d fields)", d.localName, len(d.items))
}

// derivesFrom 判断 d 是否为 base 本身或经 Extend 派生自 base。
func (d *Definition) derivesFrom(base *Definition) bool {
	for cur := d; cur != nil; cur = cur.parent {
		if cur == base {
			return true
		}
	}
	return false
}

func (d *Definition) bind(m Message) {
	o := m.ProtoObject()
	o.def = d
	o.values = make([]Value, len(d.items))
	o.raw = nil
	o.state = cacheAbsent
	o.seen = nil
}
