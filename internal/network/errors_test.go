package network

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

func TestWithStage(t *testing.T) {
	assert.NoError(t, WithStage(StageFrame, nil))

	err := WithStage(StageFrame, merr.WrapErrFrameTooLarge(10, 4))
	err = errors.Wrap(err, "decode")

	stage, ok := StageOf(err)
	assert.True(t, ok)
	assert.Equal(t, StageFrame, stage)
	assert.ErrorIs(t, err, merr.ErrFrameTooLarge)
	assert.Equal(t, merr.Code(merr.ErrFrameTooLarge), merr.Code(err))
	assert.Contains(t, err.Error(), "network: frame: frame too large")

	_, ok = StageOf(errors.New("plain"))
	assert.False(t, ok)
}
