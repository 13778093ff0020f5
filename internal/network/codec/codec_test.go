package codec

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/protomap-go/internal/network"
	"github.com/lk2023060901/protomap-go/internal/network/compressor"
	"github.com/lk2023060901/protomap-go/internal/network/crypto"
	"github.com/lk2023060901/protomap-go/internal/network/envelope"
	"github.com/lk2023060901/protomap-go/internal/network/framer"
	"github.com/lk2023060901/protomap-go/internal/network/serializer"
	"github.com/lk2023060901/protomap-go/pkg/metrics"
	"github.com/lk2023060901/protomap-go/pkg/protomap"
	"github.com/lk2023060901/protomap-go/pkg/protomap/wire"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

type chat struct{ protomap.Object }

var chatDef = protomap.MustDefine("Chat", func() *chat { return new(chat) },
	protomap.Field("text", 1, protomap.WithType(wire.String), protomap.Required()),
	protomap.Field("count", 2, protomap.WithType(wire.Uint32)),
)

func newChat(text string) *chat {
	c := chatDef.New().(*chat)
	if err := c.Set("text", protomap.Scalar(text)); err != nil {
		panic(err)
	}
	return c
}

type CodecSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *CodecSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *CodecSuite) newCodec(opts Options) Codec {
	if opts.Framer == nil {
		opts.Framer = framer.NewLengthPrefixedFramer(0)
	}
	if opts.Serializer == nil {
		opts.Serializer = serializer.MessageSerializer{}
	}
	c, err := New(opts)
	s.Require().NoError(err)
	return c
}

func (s *CodecSuite) newEncryptor(key byte) crypto.Encryptor {
	e, err := crypto.NewAESGCMHMAC(bytes.Repeat([]byte{key}, crypto.KeySize), []byte("mac"))
	s.Require().NoError(err)
	return e
}

func (s *CodecSuite) roundTrip(c Codec, text string) (*envelope.Header, *chat) {
	var buf bytes.Buffer
	s.Require().NoError(c.Encode(s.ctx, &buf, envelope.NewHeader(5, 1), newChat(text)))

	got := chatDef.New().(*chat)
	header, err := c.Decode(s.ctx, &buf, got)
	s.Require().NoError(err)
	return header, got
}

func (s *CodecSuite) textOf(c *chat) string {
	text, ok := protomap.As[string](c.Get("text"))
	s.True(ok)
	return text
}

func (s *CodecSuite) TestPlain() {
	encoded := testutil.ToFloat64(metrics.CodecFrameTotal.WithLabelValues(metrics.OutboundLabel, metrics.EncodedLabel))
	decoded := testutil.ToFloat64(metrics.CodecFrameTotal.WithLabelValues(metrics.InboundLabel, metrics.DecodedLabel))

	header, got := s.roundTrip(s.newCodec(Options{}), "hello")
	s.Equal(uint32(5), header.Op())
	s.Equal(uint64(1), header.Seq())
	s.Zero(header.Flags())
	s.Equal("hello", s.textOf(got))

	s.Equal(encoded+1, testutil.ToFloat64(metrics.CodecFrameTotal.WithLabelValues(metrics.OutboundLabel, metrics.EncodedLabel)))
	s.Equal(decoded+1, testutil.ToFloat64(metrics.CodecFrameTotal.WithLabelValues(metrics.InboundLabel, metrics.DecodedLabel)))
}

func (s *CodecSuite) TestCompression() {
	zc, err := compressor.NewZstdCompressor()
	s.Require().NoError(err)
	defer zc.Close()

	c := s.newCodec(Options{Compressor: zc, EnableCompression: true, MinCompressSize: 64})

	long := strings.Repeat("protomap ", 200)
	header, got := s.roundTrip(c, long)
	s.True(header.HasFlag(envelope.FlagCompressed))
	s.Less(int(header.Size()), len(long))
	s.Equal(long, s.textOf(got))

	header, got = s.roundTrip(c, "short")
	s.False(header.HasFlag(envelope.FlagCompressed))
	s.Equal("short", s.textOf(got))
}

func (s *CodecSuite) TestEncryption() {
	c := s.newCodec(Options{Encryptor: s.newEncryptor(1), EnableEncryption: true})
	header, got := s.roundTrip(c, "secret")
	s.True(header.HasFlag(envelope.FlagEncrypted))
	s.Equal("secret", s.textOf(got))
}

func (s *CodecSuite) TestCompressionAndEncryption() {
	zc, err := compressor.NewZstdCompressor()
	s.Require().NoError(err)
	defer zc.Close()

	c := s.newCodec(Options{
		Compressor:        zc,
		Encryptor:         s.newEncryptor(2),
		EnableCompression: true,
		EnableEncryption:  true,
	})
	header, got := s.roundTrip(c, strings.Repeat("x", 1024))
	s.True(header.HasFlag(envelope.FlagCompressed | envelope.FlagEncrypted))
	s.Equal(strings.Repeat("x", 1024), s.textOf(got))
}

func (s *CodecSuite) TestEncryptionMismatch() {
	var buf bytes.Buffer
	sender := s.newCodec(Options{Encryptor: s.newEncryptor(1), EnableEncryption: true})
	s.Require().NoError(sender.Encode(s.ctx, &buf, envelope.NewHeader(1, 1), newChat("secret")))
	frame := append([]byte(nil), buf.Bytes()...)

	_, err := s.newCodec(Options{}).Decode(s.ctx, bytes.NewReader(frame), nil)
	s.ErrorIs(err, merr.ErrFrameCorrupted)

	_, err = s.newCodec(Options{Encryptor: s.newEncryptor(9), EnableEncryption: true}).
		Decode(s.ctx, bytes.NewReader(frame), nil)
	s.ErrorIs(err, merr.ErrDecryptFailed)
	stage, ok := network.StageOf(err)
	s.True(ok)
	s.Equal(network.StageEncrypt, stage)
}

func (s *CodecSuite) TestHeaderReuseClearsFlags() {
	var buf bytes.Buffer
	header := envelope.NewHeader(1, 1)
	header.SetFlags(envelope.FlagCompressed | 1<<8)

	c := s.newCodec(Options{})
	s.Require().NoError(c.Encode(s.ctx, &buf, header, newChat("a")))
	s.False(header.HasFlag(envelope.FlagCompressed))
	s.True(header.HasFlag(1 << 8))
}

func (s *CodecSuite) TestDecodeRaw() {
	var buf bytes.Buffer
	c := s.newCodec(Options{})
	msg := newChat("raw")
	s.Require().NoError(c.Encode(s.ctx, &buf, envelope.NewHeader(2, 3), msg))

	header, data, err := c.DecodeRaw(s.ctx, &buf)
	s.Require().NoError(err)
	s.Equal(uint32(2), header.Op())
	expected, err := msg.ExportProto(s.ctx)
	s.Require().NoError(err)
	s.Equal(expected, data)

	_, _, err = c.DecodeRaw(s.ctx, &buf)
	s.Equal(io.EOF, err)
}

func (s *CodecSuite) TestSerializeFailure() {
	failed := testutil.ToFloat64(metrics.CodecFrameTotal.WithLabelValues(metrics.OutboundLabel, metrics.FailedLabel))

	var buf bytes.Buffer
	err := s.newCodec(Options{}).Encode(s.ctx, &buf, envelope.NewHeader(1, 1), chatDef.New())
	s.ErrorIs(err, merr.ErrRequiredField)
	stage, ok := network.StageOf(err)
	s.True(ok)
	s.Equal(network.StageSerialize, stage)
	s.Zero(buf.Len())

	s.Equal(failed+1, testutil.ToFloat64(metrics.CodecFrameTotal.WithLabelValues(metrics.OutboundLabel, metrics.FailedLabel)))
}

func (s *CodecSuite) TestInvalidArguments() {
	c := s.newCodec(Options{})
	s.ErrorIs(c.Encode(s.ctx, nil, envelope.NewHeader(1, 1), newChat("a")), merr.ErrParameterMissing)
	s.ErrorIs(c.Encode(s.ctx, io.Discard, nil, newChat("a")), merr.ErrParameterMissing)
	s.ErrorIs(c.Encode(s.ctx, io.Discard, envelope.NewHeader(1, 1), nil), merr.ErrParameterMissing)
	_, _, err := c.DecodeRaw(s.ctx, nil)
	s.ErrorIs(err, merr.ErrParameterMissing)

	_, err = New(Options{Serializer: serializer.MessageSerializer{}})
	s.ErrorIs(err, merr.ErrParameterMissing)
	_, err = New(Options{Framer: framer.NewLengthPrefixedFramer(0)})
	s.ErrorIs(err, merr.ErrParameterMissing)
	_, err = New(Options{
		Framer:          framer.NewLengthPrefixedFramer(0),
		Serializer:      serializer.MessageSerializer{},
		MinCompressSize: -1,
	})
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func TestCodec(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}
