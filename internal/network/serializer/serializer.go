package serializer

import (
	"context"

	"github.com/lk2023060901/protomap-go/pkg/protomap"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// Serializer 抽象了网络层“对象 <-> 字节流”的序列化能力。
type Serializer interface {
	// Marshal 将对象编码为字节序列。
	Marshal(ctx context.Context, v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象，v 通常为指针类型。
	Unmarshal(ctx context.Context, data []byte, v any) error
}

// MessageSerializer 使用 protomap 定义进行二进制序列化。
//
// 传入/传出的对象必须实现 protomap.Message；直接构造（未经 Definition.New）的实例
// 会按类型在注册表中查找定义并自动绑定。
type MessageSerializer struct{}

var _ Serializer = MessageSerializer{}

func (MessageSerializer) Marshal(ctx context.Context, v any) ([]byte, error) {
	msg, err := asMessage(v)
	if err != nil {
		return nil, err
	}
	return msg.ProtoObject().ExportProto(ctx)
}

func (MessageSerializer) Unmarshal(ctx context.Context, data []byte, v any) error {
	msg, err := asMessage(v)
	if err != nil {
		return err
	}
	return msg.ProtoObject().ImportProto(ctx, data)
}

func asMessage(v any) (protomap.Message, error) {
	msg, ok := v.(protomap.Message)
	if !ok || msg == nil {
		return nil, merr.WrapErrParameterInvalidMsg("serializer requires protomap.Message, got %T", v)
	}
	if err := protomap.Bind(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
