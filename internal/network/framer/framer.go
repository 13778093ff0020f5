package framer

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/protomap-go/internal/network/envelope"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// Framer 抽象了基于 Envelope 的打包/解包能力。
//
// 约定：
//   - 一帧数据的格式为：4 字节大端无符号整型（Envelope 编码后的长度）+ Envelope 二进制数据。
//   - Envelope 的编解码由 protomap 完成。
type Framer interface {
	// WriteFrame 将 Envelope 打包为一帧并写入到 w 中。
	WriteFrame(ctx context.Context, w io.Writer, env *envelope.Envelope) error

	// ReadFrame 从 r 中读取一帧数据并解包为 Envelope。
	ReadFrame(ctx context.Context, r io.Reader) (*envelope.Envelope, error)
}

// LengthPrefixedFramer 使用长度前缀（4 字节大端）作为帧边界，适用于基于流的连接。
type LengthPrefixedFramer struct {
	// MaxFrameSize 为允许的最大帧大小（Envelope 编码后长度），单位字节。
	// 为 0 时使用 DefaultMaxFrameSize。
	MaxFrameSize uint32
}

const (
	DefaultMaxFrameSize uint32 = 16 * 1024 * 1024 // 16MB

	headerLen = 4
)

var _ Framer = (*LengthPrefixedFramer)(nil)

// NewLengthPrefixedFramer 创建一个长度前缀帧编码器，maxFrameSize 为 0 时使用默认值。
func NewLengthPrefixedFramer(maxFrameSize uint32) *LengthPrefixedFramer {
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &LengthPrefixedFramer{
		MaxFrameSize: maxFrameSize,
	}
}

// WriteFrame 将 Envelope 编码为长度前缀帧并一次写入。
// 写入前会把报文头的 size 修正为 payload 长度。
func (f *LengthPrefixedFramer) WriteFrame(ctx context.Context, w io.Writer, env *envelope.Envelope) error {
	if env == nil {
		return merr.WrapErrParameterMissing("envelope")
	}

	env.Header().SetSize(uint32(len(env.Payload())))

	body, err := env.ExportProto(ctx)
	if err != nil {
		return err
	}

	length := len(body)
	if limit := f.effectiveMaxSize(); length > int(limit) {
		return merr.WrapErrFrameTooLarge(length, int(limit))
	}

	frame := make([]byte, headerLen+length)
	binary.BigEndian.PutUint32(frame[:headerLen], uint32(length))
	copy(frame[headerLen:], body)

	if _, err := w.Write(frame); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// ReadFrame 从流中读取一帧数据并解码为 Envelope。
// 流在帧边界处结束时返回 io.EOF，帧不完整时返回 io.ErrUnexpectedEOF。
func (f *LengthPrefixedFramer) ReadFrame(ctx context.Context, r io.Reader) (*envelope.Envelope, error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "read frame header")
	}

	length := binary.BigEndian.Uint32(header[:])
	if limit := f.effectiveMaxSize(); length > limit {
		return nil, merr.WrapErrFrameTooLarge(int(length), int(limit))
	}

	// 空帧视为空 Envelope。
	if length == 0 {
		return envelope.EnvelopeDef.New().(*envelope.Envelope), nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrap(err, "read frame body")
	}

	msg, err := envelope.EnvelopeDef.Import(ctx, body)
	if err != nil {
		return nil, err
	}
	env := msg.(*envelope.Envelope)
	if size := env.Header().Size(); int(size) != len(env.Payload()) {
		return nil, merr.WrapErrFrameCorrupted(
			fmt.Sprintf("payload size mismatch, header=%d payload=%d", size, len(env.Payload())))
	}
	return env, nil
}

func (f *LengthPrefixedFramer) effectiveMaxSize() uint32 {
	if f == nil || f.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return f.MaxFrameSize
}
