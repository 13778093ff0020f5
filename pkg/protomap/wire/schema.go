package wire

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/lk2023060901/protomap-go/pkg/util/merr"
	"github.com/lk2023060901/protomap-go/pkg/util/typeutil"
)

const packageName = "protomap"

// Schema 是编译后的消息描述，负责 map 与二进制之间的转换。
//
// Schema 构建后只读，可在多个 goroutine 间共享。
type Schema struct {
	name   string
	fields []Field
	desc   protoreflect.MessageDescriptor
	fds    []protoreflect.FieldDescriptor
}

// Compile 把字段声明编译为 proto2 消息描述。
//
// 字段按声明顺序保存；名称与编号都必须唯一，编号必须是合法的 protobuf 字段号。
func Compile(name string, fields ...Field) (*Schema, error) {
	if !protoreflect.Name(name).IsValid() {
		return nil, merr.WrapErrSchemaInvalid(name, "invalid message name")
	}

	ids := typeutil.NewSet[uint32]()
	names := typeutil.NewSet[string]()
	msg := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for _, f := range fields {
		if !protoreflect.Name(f.Name).IsValid() {
			return nil, merr.WrapErrSchemaInvalid(name, fmt.Sprintf("invalid field name %q", f.Name))
		}
		if !protowire.Number(f.ID).IsValid() {
			return nil, merr.WrapErrSchemaInvalid(name, fmt.Sprintf("invalid field id %d", f.ID))
		}
		if !f.Kind.IsValid() {
			return nil, merr.WrapErrSchemaInvalid(name, fmt.Sprintf("invalid kind for field %s", f.Name))
		}
		if !ids.TryInsert(f.ID) {
			return nil, merr.WrapErrDuplicateFieldID(name, f.ID)
		}
		if !names.TryInsert(f.Name) {
			return nil, merr.WrapErrDuplicateField(name, f.Name)
		}

		cardinality := f.Cardinality
		if cardinality == 0 {
			cardinality = Optional
		}
		msg.Field = append(msg.Field, &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(f.Name),
			JsonName: proto.String(f.Name),
			Number:   proto.Int32(int32(f.ID)),
			Label:    cardinality.label().Enum(),
			Type:     f.Kind.descriptorType().Enum(),
		})
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:        proto.String(packageName + "/" + name + ".proto"),
		Package:     proto.String(packageName),
		Syntax:      proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{msg},
	}
	file, err := protodesc.NewFile(fdp, new(protoregistry.Files))
	if err != nil {
		return nil, merr.WrapErrSchemaInvalid(name, err.Error())
	}

	desc := file.Messages().Get(0)
	s := &Schema{
		name:   name,
		fields: make([]Field, 0, len(fields)),
		desc:   desc,
		fds:    make([]protoreflect.FieldDescriptor, 0, len(fields)),
	}
	for _, f := range fields {
		if f.Cardinality == 0 {
			f.Cardinality = Optional
		}
		s.fields = append(s.fields, f)
		s.fds = append(s.fds, desc.Fields().ByNumber(protowire.Number(f.ID)))
	}
	return s, nil
}

// Name 返回消息名。
func (s *Schema) Name() string {
	return s.name
}

// Fields 返回字段声明的副本。
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Descriptor 返回底层 protobuf 消息描述。
func (s *Schema) Descriptor() protoreflect.MessageDescriptor {
	return s.desc
}

// DescriptorProto 返回可序列化的消息描述，便于导出给其他语言的端使用。
func (s *Schema) DescriptorProto() *descriptorpb.DescriptorProto {
	return protodesc.ToDescriptorProto(s.desc)
}

// Encode 把按字段名组织的值编码为二进制。
//
// 缺失或为 nil 的字段不写出；repeated 字段的值必须是 []any。
func (s *Schema) Encode(values map[string]any) ([]byte, error) {
	msg := dynamicpb.NewMessage(s.desc)
	for i, f := range s.fields {
		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		fd := s.fds[i]
		if f.Cardinality == Repeated {
			items, ok := v.([]any)
			if !ok {
				return nil, errors.Newf("wire: field %s expects []any, got %T", f.Name, v)
			}
			list := msg.Mutable(fd).List()
			for idx, item := range items {
				pv, err := toProtoValue(f.Kind, item)
				if err != nil {
					return nil, errors.Wrapf(err, "wire: field %s[%d]", f.Name, idx)
				}
				list.Append(pv)
			}
			continue
		}
		pv, err := toProtoValue(f.Kind, v)
		if err != nil {
			return nil, errors.Wrapf(err, "wire: field %s", f.Name)
		}
		msg.Set(fd, pv)
	}

	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "wire: marshal %s", s.name)
	}
	return data, nil
}

// Decode 把二进制解码为按字段名组织的值。
//
// repeated 字段总会出现在结果中（可能为空 []any）；其他字段只有在报文中存在时才出现。
// 报文中与已声明字段编号相同但线上类型不符的数据视为损坏。
func (s *Schema) Decode(data []byte) (map[string]any, error) {
	msg := dynamicpb.NewMessage(s.desc)
	if err := (proto.UnmarshalOptions{AllowPartial: true}).Unmarshal(data, msg); err != nil {
		return nil, errors.Wrapf(err, "wire: unmarshal %s", s.name)
	}
	if err := s.checkUnknown(msg.GetUnknown()); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(s.fields))
	for i, f := range s.fields {
		fd := s.fds[i]
		if f.Cardinality == Repeated {
			list := msg.Get(fd).List()
			items := make([]any, 0, list.Len())
			for idx := 0; idx < list.Len(); idx++ {
				items = append(items, fromProtoValue(f.Kind, list.Get(idx)))
			}
			out[f.Name] = items
			continue
		}
		if msg.Has(fd) {
			out[f.Name] = fromProtoValue(f.Kind, msg.Get(fd))
		}
	}
	return out, nil
}

func (s *Schema) checkUnknown(raw protoreflect.RawFields) error {
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeField(raw)
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "wire: unmarshal %s", s.name)
		}
		if fd := s.desc.Fields().ByNumber(num); fd != nil {
			return errors.Newf("wire: field %s has wire type %d", fd.Name(), typ)
		}
		raw = raw[n:]
	}
	return nil
}
