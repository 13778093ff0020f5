package envelope

import (
	"time"

	"github.com/lk2023060901/protomap-go/pkg/protomap"
	"github.com/lk2023060901/protomap-go/pkg/protomap/wire"
)

// 报文头 flags 位定义。
const (
	FlagCompressed uint64 = 1 << 0
	FlagEncrypted  uint64 = 1 << 1
)

// Header 为网络报文头。
//
//	op        uint32 = 1  // 协议号
//	seq       uint64 = 2  // 序号
//	flags     uint64 = 3  // 压缩/加密标记位
//	timestamp int64  = 4  // 发送时间，毫秒
//	size      uint32 = 5  // Envelope.payload 的长度
type Header struct {
	protomap.Object
}

// Envelope 为一帧的完整内容：报文头 + 业务字节。
type Envelope struct {
	protomap.Object
}

var (
	HeaderDef = protomap.MustDefine("MessageHeader", func() *Header { return new(Header) },
		protomap.Field("op", 1, protomap.WithType(wire.Uint32)),
		protomap.Field("seq", 2, protomap.WithType(wire.Uint64)),
		protomap.Field("flags", 3, protomap.WithType(wire.Uint64)),
		protomap.Field("timestamp", 4, protomap.WithType(wire.Int64)),
		protomap.Field("size", 5, protomap.WithType(wire.Uint32)),
	)

	EnvelopeDef = protomap.MustDefine("Envelope", func() *Envelope { return new(Envelope) },
		protomap.Field("header", 1, protomap.WithNested(HeaderDef)),
		protomap.Field("payload", 2),
	)
)

// NewHeader 创建一个报文头，timestamp 取当前时间。
func NewHeader(op uint32, seq uint64) *Header {
	h := HeaderDef.New().(*Header)
	h.SetOp(op)
	h.SetSeq(seq)
	h.SetTimestamp(time.Now().UnixMilli())
	return h
}

func (h *Header) Op() uint32       { return get[uint32](&h.Object, "op") }
func (h *Header) Seq() uint64      { return get[uint64](&h.Object, "seq") }
func (h *Header) Flags() uint64    { return get[uint64](&h.Object, "flags") }
func (h *Header) Timestamp() int64 { return get[int64](&h.Object, "timestamp") }
func (h *Header) Size() uint32     { return get[uint32](&h.Object, "size") }

func (h *Header) SetOp(op uint32)       { set(&h.Object, "op", protomap.Scalar(op)) }
func (h *Header) SetSeq(seq uint64)     { set(&h.Object, "seq", protomap.Scalar(seq)) }
func (h *Header) SetFlags(flags uint64) { set(&h.Object, "flags", protomap.Scalar(flags)) }
func (h *Header) SetTimestamp(ts int64) { set(&h.Object, "timestamp", protomap.Scalar(ts)) }
func (h *Header) SetSize(size uint32)   { set(&h.Object, "size", protomap.Scalar(size)) }

// HasFlag 判断 flag 对应的位是否全部置位。
func (h *Header) HasFlag(flag uint64) bool {
	return h.Flags()&flag == flag
}

// New 创建一个携带 header 与 payload 的 Envelope，header 为 nil 时不写入报文头。
func New(header *Header, payload []byte) *Envelope {
	env := EnvelopeDef.New().(*Envelope)
	if header != nil {
		set(&env.Object, "header", protomap.Nested(header))
	}
	env.SetPayload(payload)
	return env
}

// Header 返回报文头；对端未携带报文头时返回一个空的 Header，且不会标记 Envelope 发生变化。
func (e *Envelope) Header() *Header {
	child, err := e.Child("header")
	if err != nil {
		panic(err)
	}
	return child.(*Header)
}

func (e *Envelope) Payload() []byte {
	return e.Get("payload").Bytes()
}

func (e *Envelope) SetPayload(payload []byte) {
	if payload == nil {
		set(&e.Object, "payload", protomap.Unset())
		return
	}
	set(&e.Object, "payload", protomap.Bytes(payload))
}

func get[T any](o *protomap.Object, attr string) T {
	t, _ := protomap.As[T](o.Get(attr))
	return t
}

// set 只用于本包内声明好的字段，类型总是匹配，出错说明定义与访问器不一致。
func set(o *protomap.Object, attr string, v protomap.Value) {
	if err := o.Set(attr, v); err != nil {
		panic(err)
	}
}
