package wire

import (
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Kind 表示字段在线上的标量类型。
type Kind int32

const (
	Double Kind = iota + 1
	Float
	Int32
	Uint32
	Sint32
	Fixed32
	Sfixed32
	Int64
	Uint64
	Sint64
	Fixed64
	Sfixed64
	Bool
	String
	Bytes
)

var kindNames = map[Kind]string{
	Double:   "double",
	Float:    "float",
	Int32:    "int32",
	Uint32:   "uint32",
	Sint32:   "sint32",
	Fixed32:  "fixed32",
	Sfixed32: "sfixed32",
	Int64:    "int64",
	Uint64:   "uint64",
	Sint64:   "sint64",
	Fixed64:  "fixed64",
	Sfixed64: "sfixed64",
	Bool:     "bool",
	String:   "string",
	Bytes:    "bytes",
}

var kindTypes = map[Kind]descriptorpb.FieldDescriptorProto_Type{
	Double:   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	Float:    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	Int32:    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	Uint32:   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	Sint32:   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	Fixed32:  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	Sfixed32: descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	Int64:    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	Uint64:   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	Sint64:   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
	Fixed64:  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	Sfixed64: descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	Bool:     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	String:   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	Bytes:    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsValid 判断是否为已知类型。
func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) descriptorType() descriptorpb.FieldDescriptorProto_Type {
	return kindTypes[k]
}

// ParseKind 按 proto 类型名解析 Kind，大小写不敏感。
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, errors.Newf("wire: unknown kind %q", name)
}

// Cardinality 描述字段出现次数。
type Cardinality int32

const (
	Optional Cardinality = iota + 1
	Required
	Repeated
)

func (c Cardinality) String() string {
	switch c {
	case Optional:
		return "optional"
	case Required:
		return "required"
	case Repeated:
		return "repeated"
	default:
		return "unknown"
	}
}

func (c Cardinality) label() descriptorpb.FieldDescriptorProto_Label {
	switch c {
	case Required:
		return descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	case Repeated:
		return descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	default:
		return descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	}
}

// Field 是一个线上字段声明。
type Field struct {
	Name        string
	ID          uint32
	Kind        Kind
	Cardinality Cardinality
}
