package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameMessage   = "message_type"
	FieldNameOp        = "op"
	FieldNameSeq       = "seq"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldMessage 返回一个包含消息定义名的 zap 字段。
func FieldMessage(name string) zap.Field {
	return zap.String(FieldNameMessage, name)
}

// FieldOp 返回一个包含操作码的 zap 字段。
func FieldOp(op uint32) zap.Field {
	return zap.Uint32(FieldNameOp, op)
}
