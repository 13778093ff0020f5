package converter

import (
	"context"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBytes(t *testing.T) {
	ctx := context.Background()
	src := []byte{1, 2, 3}
	data, err := Bytes.Set(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, src, data)

	src[0] = 9
	assert.Equal(t, byte(1), data[0])

	v, err := Bytes.Get(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, v)

	empty, err := Bytes.Get(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, empty)
}

func TestString(t *testing.T) {
	ctx := context.Background()
	data, err := String.Set(ctx, "bar")
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), data)

	v, err := String.Get(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "bar", v)

	v, err = String.Get(ctx, []byte{})
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = String.Get(ctx, []byte{0xff, 0xfe})
	assert.Error(t, err)

	_, err = String.Set(ctx, 42)
	assert.Error(t, err)
}

func TestUUID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	data, err := UUID.Set(ctx, id)
	require.NoError(t, err)
	assert.Len(t, data, 16)

	v, err := UUID.Get(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, id, v)

	_, err = UUID.Get(ctx, []byte{1, 2})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	itoa := New(
		func(v int) ([]byte, error) { return []byte(strconv.Itoa(v)), nil },
		func(data []byte) (int, error) { return strconv.Atoi(string(data)) },
	)

	data, err := itoa.Set(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))

	v, err := itoa.Get(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = itoa.Set(ctx, "42")
	assert.Error(t, err)

	_, err = itoa.Get(ctx, []byte("x"))
	assert.Error(t, err)
}

type ctxKey struct{}

func TestNewContext(t *testing.T) {
	prefixed := NewContext(
		func(ctx context.Context, v string) ([]byte, error) {
			return []byte(ctx.Value(ctxKey{}).(string) + v), nil
		},
		func(ctx context.Context, data []byte) (string, error) {
			return string(data[len(ctx.Value(ctxKey{}).(string)):]), nil
		},
	)
	ctx := context.WithValue(context.Background(), ctxKey{}, "p:")
	data, err := prefixed.Set(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, "p:v", string(data))

	v, err := prefixed.Get(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		data, err := String.Set(context.Background(), s)
		if err != nil {
			t.Fatalf("set: %v", err)
		}
		v, err := String.Get(context.Background(), data)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if v != s {
			t.Fatalf("got %q, want %q", v, s)
		}
	})
}
