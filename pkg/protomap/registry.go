package protomap

import (
	"context"
	"reflect"
	"sync"

	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// registry 记录 Go 类型到映射定义的关联。写入只发生在声明阶段。
type registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*Definition
	byName map[string]*Definition
}

var defaultRegistry = &registry{
	byType: make(map[reflect.Type]*Definition),
	byName: make(map[string]*Definition),
}

func (r *registry) register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[def.goType] = def
	if _, ok := r.byName[def.localName]; !ok {
		r.byName[def.localName] = def
	}
}

func (r *registry) lookup(t reflect.Type) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byType[t]
	return def, ok
}

func (r *registry) lookupName(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Lookup 返回 m 的类型登记的定义。
func Lookup(m Message) (*Definition, bool) {
	if isNilMessage(m) {
		return nil, false
	}
	return defaultRegistry.lookup(reflect.TypeOf(m))
}

// LookupName 返回最先以 name 登记的定义。
func LookupName(name string) (*Definition, bool) {
	return defaultRegistry.lookupName(name)
}

// Bind 把直接构造的实例绑定到其类型的定义，已绑定的实例保持不变。
func Bind(m Message) error {
	if isNilMessage(m) {
		return merr.WrapErrParameterMissing("message")
	}
	if m.ProtoObject().def != nil {
		return nil
	}
	def, ok := Lookup(m)
	if !ok {
		return merr.WrapErrDefinitionMissing(reflect.TypeOf(m).String())
	}
	def.bind(m)
	return nil
}

// New 创建类型 T 的已绑定空实例。
func New[T Message]() (T, error) {
	var zero T
	def, ok := defaultRegistry.lookup(reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		return zero, merr.WrapErrDefinitionMissing(reflect.TypeOf((*T)(nil)).Elem().String())
	}
	t, ok := def.New().(T)
	if !ok {
		return zero, merr.WrapErrDefinitionMissing(reflect.TypeOf((*T)(nil)).Elem().String())
	}
	return t, nil
}

// Import 创建类型 T 的新实例并从 data 导入。
func Import[T Message](ctx context.Context, data []byte) (T, error) {
	t, err := New[T]()
	if err != nil {
		return t, err
	}
	if err := t.ProtoObject().ImportProto(ctx, data); err != nil {
		var zero T
		return zero, err
	}
	return t, nil
}
