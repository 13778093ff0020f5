package serializer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/protomap-go/pkg/protomap"
	"github.com/lk2023060901/protomap-go/pkg/protomap/wire"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

type ping struct{ protomap.Object }

type unregistered struct{ protomap.Object }

var pingDef = protomap.MustDefine("Ping", func() *ping { return new(ping) },
	protomap.Field("text", 1, protomap.WithType(wire.String), protomap.Required()),
)

func TestMessageSerializer(t *testing.T) {
	ctx := context.Background()
	var ser Serializer = MessageSerializer{}

	src := &ping{}
	_, err := ser.Marshal(ctx, src)
	assert.ErrorIs(t, err, merr.ErrRequiredField)

	require.NoError(t, src.Set("text", protomap.Scalar("hello")))
	data, err := ser.Marshal(ctx, src)
	require.NoError(t, err)

	dst := &ping{}
	require.NoError(t, ser.Unmarshal(ctx, data, dst))
	text, ok := protomap.As[string](dst.Get("text"))
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.Same(t, pingDef, dst.Definition())
}

func TestMessageSerializerInvalid(t *testing.T) {
	ctx := context.Background()
	ser := MessageSerializer{}

	_, err := ser.Marshal(ctx, "text")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	err = ser.Unmarshal(ctx, nil, 42)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = ser.Marshal(ctx, &unregistered{})
	assert.ErrorIs(t, err, merr.ErrDefinitionMissing)
}
