package codec

import (
	"context"
	"encoding/binary"
	"io"

	"go.uber.org/zap"

	"github.com/lk2023060901/protomap-go/internal/network"
	"github.com/lk2023060901/protomap-go/internal/network/compressor"
	"github.com/lk2023060901/protomap-go/internal/network/crypto"
	"github.com/lk2023060901/protomap-go/internal/network/envelope"
	"github.com/lk2023060901/protomap-go/internal/network/framer"
	"github.com/lk2023060901/protomap-go/internal/network/serializer"
	"github.com/lk2023060901/protomap-go/pkg/log"
	"github.com/lk2023060901/protomap-go/pkg/metrics"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// Codec 抽象了“从业务对象到网络帧，以及从网络帧回到业务对象”的完整编解码流程。
//
// 写出：
//
//	msg --> serializer --> [compress?] --> [encrypt?] --> Envelope{Header+Payload} --> framer.WriteFrame
//
// 读入：
//
//	framer.ReadFrame --> Envelope{Header+Payload} --> [decrypt?] --> [decompress?] --> serializer --> msg
type Codec interface {
	// Encode 将业务对象编码并写入到底层流，header 的 flags 与 size 会被改写。
	Encode(ctx context.Context, w io.Writer, header *envelope.Header, msg any) error

	// Decode 读取一帧报文并解码到 msg 中；msg 为 nil 时仅返回 Header。
	Decode(ctx context.Context, r io.Reader, msg any) (*envelope.Header, error)

	// DecodeRaw 读取一帧报文，返回报文头和已完成解密/解压的业务字节。
	DecodeRaw(ctx context.Context, r io.Reader) (*envelope.Header, []byte, error)
}

// Options 用于构造 Codec 的依赖注入参数。
type Options struct {
	Framer     framer.Framer
	Serializer serializer.Serializer
	Compressor compressor.Compressor // 为 nil 时使用 NopCompressor
	Encryptor  crypto.Encryptor      // 为 nil 时使用 NopEncryptor

	EnableCompression bool
	EnableEncryption  bool
	// MinCompressSize 为触发压缩的最小字节数，小于该值的报文不压缩。
	MinCompressSize int
}

type codec struct {
	framer     framer.Framer
	serializer serializer.Serializer
	compressor compressor.Compressor
	encryptor  crypto.Encryptor

	compress        bool
	encrypt         bool
	minCompressSize int
}

var _ Codec = (*codec)(nil)

// New 创建一个基于给定依赖的 Codec。
func New(opts Options) (Codec, error) {
	if opts.Framer == nil {
		return nil, merr.WrapErrParameterMissing("framer")
	}
	if opts.Serializer == nil {
		return nil, merr.WrapErrParameterMissing("serializer")
	}
	if opts.MinCompressSize < 0 {
		return nil, merr.WrapErrParameterInvalidRange(0, 1<<31-1, opts.MinCompressSize, "minCompressSize")
	}

	c := &codec{
		framer:          opts.Framer,
		serializer:      opts.Serializer,
		compressor:      opts.Compressor,
		encryptor:       opts.Encryptor,
		compress:        opts.EnableCompression,
		encrypt:         opts.EnableEncryption,
		minCompressSize: opts.MinCompressSize,
	}
	if c.compressor == nil {
		c.compressor = compressor.NopCompressor{}
	}
	if c.encryptor == nil {
		c.encryptor = crypto.NopEncryptor{}
	}
	return c, nil
}

func (c *codec) Encode(ctx context.Context, w io.Writer, header *envelope.Header, msg any) error {
	if err := c.encode(ctx, w, header, msg); err != nil {
		metrics.CodecFrameTotal.WithLabelValues(metrics.OutboundLabel, metrics.FailedLabel).Inc()
		return err
	}
	metrics.CodecFrameTotal.WithLabelValues(metrics.OutboundLabel, metrics.EncodedLabel).Inc()
	return nil
}

func (c *codec) encode(ctx context.Context, w io.Writer, header *envelope.Header, msg any) error {
	if w == nil {
		return merr.WrapErrParameterMissing("writer")
	}
	if header == nil {
		return merr.WrapErrParameterMissing("header")
	}
	if msg == nil {
		return merr.WrapErrParameterMissing("msg")
	}

	body, err := c.serializer.Marshal(ctx, msg)
	if err != nil {
		return network.WithStage(network.StageSerialize, err)
	}

	// 复用 header 时清理上一次遗留的标记位。
	flags := header.Flags() &^ (envelope.FlagCompressed | envelope.FlagEncrypted)

	if c.compress && len(body) > 0 && len(body) >= c.minCompressSize {
		packed, err := c.compressor.Compress(nil, body)
		if err != nil {
			return network.WithStage(network.StageCompress, merr.WrapErrCompressFailed(err))
		}
		body = packed
		flags |= envelope.FlagCompressed
	}

	// 加密标记位先于 AAD 写入，对端按收到的报文头还原出同样的 AAD。
	if c.encrypt && len(body) > 0 {
		flags |= envelope.FlagEncrypted
		header.SetFlags(flags)
		packet, err := c.encryptor.Encrypt(body, buildAAD(header))
		if err != nil {
			return network.WithStage(network.StageEncrypt, err)
		}
		body = packet
	}
	header.SetFlags(flags)

	if err := c.framer.WriteFrame(ctx, w, envelope.New(header, body)); err != nil {
		return network.WithStage(network.StageFrame, err)
	}
	metrics.CodecFrameBytes.WithLabelValues(metrics.OutboundLabel).Observe(float64(len(body)))
	log.Ctx(ctx).Debug("frame encoded",
		log.FieldOp(header.Op()),
		log.FieldComponent("codec"),
		zap.Int("size", len(body)))
	return nil
}

func (c *codec) DecodeRaw(ctx context.Context, r io.Reader) (*envelope.Header, []byte, error) {
	header, data, err := c.decodeFrame(ctx, r)
	if err != nil {
		if err != io.EOF {
			metrics.CodecFrameTotal.WithLabelValues(metrics.InboundLabel, metrics.FailedLabel).Inc()
		}
		return nil, nil, err
	}
	metrics.CodecFrameTotal.WithLabelValues(metrics.InboundLabel, metrics.DecodedLabel).Inc()
	return header, data, nil
}

func (c *codec) Decode(ctx context.Context, r io.Reader, msg any) (*envelope.Header, error) {
	header, data, err := c.DecodeRaw(ctx, r)
	if err != nil {
		return nil, err
	}
	if msg != nil {
		if err := c.serializer.Unmarshal(ctx, data, msg); err != nil {
			return nil, network.WithStage(network.StageSerialize, err)
		}
	}
	return header, nil
}

// decodeFrame 完成从底层流到“报文头 + 业务明文字节”的解码。
// 流在帧边界处结束时原样返回 io.EOF。
func (c *codec) decodeFrame(ctx context.Context, r io.Reader) (*envelope.Header, []byte, error) {
	if r == nil {
		return nil, nil, merr.WrapErrParameterMissing("reader")
	}

	env, err := c.framer.ReadFrame(ctx, r)
	if err != nil {
		if err == io.EOF {
			return nil, nil, err
		}
		return nil, nil, network.WithStage(network.StageFrame, err)
	}
	header := env.Header()
	data := env.Payload()
	metrics.CodecFrameBytes.WithLabelValues(metrics.InboundLabel).Observe(float64(len(data)))

	if header.HasFlag(envelope.FlagEncrypted) {
		if !c.encrypt {
			return nil, nil, network.WithStage(network.StageEncrypt,
				merr.WrapErrFrameCorrupted("encrypted payload but encryption disabled"))
		}
		if len(data) == 0 {
			return nil, nil, network.WithStage(network.StageEncrypt,
				merr.WrapErrFrameCorrupted("encrypted payload is empty"))
		}
		plain, err := c.encryptor.Decrypt(data, buildAAD(header))
		if err != nil {
			return nil, nil, network.WithStage(network.StageEncrypt, merr.WrapErrDecryptFailed(err))
		}
		data = plain
	}

	if header.HasFlag(envelope.FlagCompressed) {
		if !c.compress {
			return nil, nil, network.WithStage(network.StageCompress,
				merr.WrapErrFrameCorrupted("compressed payload but compression disabled"))
		}
		if len(data) == 0 {
			return nil, nil, network.WithStage(network.StageCompress,
				merr.WrapErrFrameCorrupted("compressed payload is empty"))
		}
		plain, err := c.compressor.Decompress(nil, data)
		if err != nil {
			return nil, nil, network.WithStage(network.StageCompress, merr.WrapErrCompressFailed(err))
		}
		data = plain
	}

	log.Ctx(ctx).Debug("frame decoded",
		log.FieldOp(header.Op()),
		log.FieldComponent("codec"),
		zap.Int("size", len(data)))
	return header, data, nil
}

// buildAAD 将报文头中与完整性相关的字段按固定顺序编码：
//
//	op(uint32) | seq(uint64) | flags(uint64) | timestamp(int64)
//
// size 不参与，它等于加密后的 payload 长度。
func buildAAD(h *envelope.Header) []byte {
	buf := make([]byte, 0, 28)
	buf = binary.BigEndian.AppendUint32(buf, h.Op())
	buf = binary.BigEndian.AppendUint64(buf, h.Seq())
	buf = binary.BigEndian.AppendUint64(buf, h.Flags())
	buf = binary.BigEndian.AppendUint64(buf, uint64(h.Timestamp()))
	return buf
}
