// Package converter 定义领域值与字节之间的双向转换。
package converter

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Converter 在领域值与字节之间转换，要求 Get(Set(v)) 与 v 相等。
type Converter interface {
	Set(ctx context.Context, v any) ([]byte, error)
	Get(ctx context.Context, data []byte) (any, error)
}

// New 使用一对类型化函数构造 Converter。
// Set 收到的值不是 T 时返回错误。
func New[T any](
	set func(T) ([]byte, error),
	get func([]byte) (T, error),
) Converter {
	return NewContext(
		func(_ context.Context, v T) ([]byte, error) { return set(v) },
		func(_ context.Context, data []byte) (T, error) { return get(data) },
	)
}

// NewContext 与 New 相同，但转换函数可以读取 ctx。
func NewContext[T any](
	set func(context.Context, T) ([]byte, error),
	get func(context.Context, []byte) (T, error),
) Converter {
	return typed[T]{set, get}
}

type typed[T any] struct {
	set func(context.Context, T) ([]byte, error)
	get func(context.Context, []byte) (T, error)
}

func (c typed[T]) Set(ctx context.Context, v any) ([]byte, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return nil, errors.Newf("converter: cannot convert %T, want %T", v, zero)
	}
	return c.set(ctx, t)
}

func (c typed[T]) Get(ctx context.Context, data []byte) (any, error) {
	return c.get(ctx, data)
}
