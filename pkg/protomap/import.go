package protomap

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lk2023060901/protomap-go/pkg/log"
	"github.com/lk2023060901/protomap-go/pkg/metrics"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// ImportProto 用 data 替换全部映射字段，成功后缓存 data 的副本。
//
// 失败时实例可能已被部分赋值，状态不确定。
func (o *Object) ImportProto(ctx context.Context, data []byte) error {
	if o.def == nil {
		return merr.WrapErrNotBound(fmt.Sprintf("%T", o))
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "protomap.Import",
		trace.WithAttributes(
			attribute.String("message", o.def.localName),
			attribute.Int("size", len(data)),
		))
	defer span.End()

	if err := o.importProto(ctx, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// ImportFrom 先导出 src，再把结果导入当前实例。
func (o *Object) ImportFrom(ctx context.Context, src Message) error {
	if isNilMessage(src) {
		return merr.WrapErrParameterMissing("src")
	}
	data, err := src.ProtoObject().ExportProto(ctx)
	if err != nil {
		return err
	}
	return o.ImportProto(ctx, data)
}

func (o *Object) importProto(ctx context.Context, data []byte) error {
	name := o.def.localName
	decoded, err := o.def.schema.Decode(data)
	if err != nil {
		metrics.MapperImportTotal.WithLabelValues(name, metrics.FailedLabel).Inc()
		log.Ctx(ctx).RatedWarn(10, "decode failed", log.FieldMessage(name), zap.Error(err))
		return merr.WrapErrDecodeFailed(name, err)
	}

	if err := o.assign(ctx, decoded); err != nil {
		metrics.MapperImportTotal.WithLabelValues(name, metrics.FailedLabel).Inc()
		return err
	}

	o.raw = make([]byte, len(data))
	copy(o.raw, data)
	o.state = cacheValid
	o.gen++
	metrics.MapperImportTotal.WithLabelValues(name, metrics.DecodedLabel).Inc()
	log.Ctx(ctx).Debug("import decoded", log.FieldMessage(name), zap.Int("size", len(data)))
	return nil
}

func (o *Object) assign(ctx context.Context, decoded map[string]any) error {
	o.seen = nil
	for i, it := range o.def.items {
		raw, present := decoded[it.name]

		if it.repeated {
			elems, ok := raw.([]any)
			if !ok {
				return merr.WrapErrSchemaMismatch(it.attr, "sequence", fmt.Sprintf("%T", raw),
					fmt.Sprintf("message %s", o.def.localName))
			}
			list := make([]Value, 0, len(elems))
			for _, el := range elems {
				v, err := o.importValue(ctx, it, el)
				if err != nil {
					return err
				}
				list = append(list, v)
			}
			o.values[i] = Value{kind: KindRepeated, list: list}
			continue
		}

		if !present {
			if it.required {
				return merr.WrapErrRequiredField(it.attr, o.def.localName)
			}
			o.values[i] = Value{}
			continue
		}
		v, err := o.importValue(ctx, it, raw)
		if err != nil {
			return err
		}
		o.values[i] = v
	}
	return nil
}

func (o *Object) importValue(ctx context.Context, it *Item, raw any) (Value, error) {
	switch {
	case it.nested != nil:
		data, _ := raw.([]byte)
		if len(data) > 0 {
			child := it.nested.New()
			if err := child.ProtoObject().importProto(ctx, data); err != nil {
				return Value{}, err
			}
			o.track(child.ProtoObject())
			return Nested(child), nil
		}
		if it.repeated {
			return Nested(it.nested.New()), nil
		}
		if it.required {
			return Value{}, merr.WrapErrRequiredField(it.attr, o.def.localName)
		}
		return Value{}, nil

	case it.conv != nil:
		data, _ := raw.([]byte)
		if len(data) == 0 && !it.repeated {
			if it.required {
				return Value{}, merr.WrapErrRequiredField(it.attr, o.def.localName)
			}
			return Value{}, nil
		}
		v, err := it.conv.Get(ctx, data)
		if err != nil {
			return Value{}, merr.WrapErrConverterFailed(it.attr, err)
		}
		if b, ok := v.([]byte); ok {
			return Bytes(b), nil
		}
		return Scalar(v), nil

	default:
		if b, ok := raw.([]byte); ok {
			return Bytes(b), nil
		}
		return Scalar(raw), nil
	}
}
