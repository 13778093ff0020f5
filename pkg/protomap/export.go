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

const tracerName = "github.com/lk2023060901/protomap-go/pkg/protomap"

// ExportProto 返回实例的二进制编码。
//
// 缓存有效且没有任何嵌套实例变化时直接返回缓存，否则重新编码并更新缓存。
// 返回的切片与缓存共享，调用方不应修改。
func (o *Object) ExportProto(ctx context.Context) ([]byte, error) {
	if o.def == nil {
		return nil, merr.WrapErrNotBound(fmt.Sprintf("%T", o))
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "protomap.Export",
		trace.WithAttributes(attribute.String("message", o.def.localName)))
	defer span.End()

	data, err := o.export(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("size", len(data)))
	return data, nil
}

func (o *Object) export(ctx context.Context) ([]byte, error) {
	name := o.def.localName
	if o.state != cacheAbsent && !o.HasChanged() {
		metrics.MapperExportTotal.WithLabelValues(name, metrics.CacheHitLabel).Inc()
		log.Ctx(ctx).Debug("export cache hit", log.FieldMessage(name))
		return o.raw, nil
	}

	o.seen = nil
	values, err := o.collect(ctx)
	if err != nil {
		metrics.MapperExportTotal.WithLabelValues(name, metrics.FailedLabel).Inc()
		return nil, err
	}
	data, err := o.def.schema.Encode(values)
	if err != nil {
		metrics.MapperExportTotal.WithLabelValues(name, metrics.FailedLabel).Inc()
		return nil, merr.WrapErrEncodeFailed(name, err)
	}

	o.raw = data
	o.state = cacheValid
	o.gen++
	metrics.MapperExportTotal.WithLabelValues(name, metrics.EncodedLabel).Inc()
	metrics.MapperEncodedBytes.WithLabelValues(name).Observe(float64(len(data)))
	log.Ctx(ctx).Debug("export encoded", log.FieldMessage(name), zap.Int("size", len(data)))
	return data, nil
}

// collect 按声明顺序把字段转换为线上值。
func (o *Object) collect(ctx context.Context) (map[string]any, error) {
	values := make(map[string]any, len(o.def.items))
	for i, it := range o.def.items {
		v := o.values[i]
		if v.IsUnset() {
			v = it.defaultVal
		}

		if !it.repeated {
			wv, ok, err := o.exportValue(ctx, it, v)
			if err != nil {
				return nil, err
			}
			if !ok {
				if it.required {
					return nil, merr.WrapErrRequiredField(it.attr, o.def.localName)
				}
				continue
			}
			values[it.name] = wv
			continue
		}

		if v.IsUnset() {
			continue
		}
		if v.kind != KindRepeated {
			return nil, merr.WrapErrSchemaMismatch(it.attr, KindRepeated, v.kind)
		}
		list := make([]any, 0, len(v.list))
		for idx, el := range v.list {
			wv, ok, err := o.exportValue(ctx, it, el)
			if err != nil {
				return nil, err
			}
			if !ok {
				if it.nested == nil {
					return nil, merr.WrapErrSchemaMismatch(fmt.Sprintf("%s[%d]", it.attr, idx), describe(it), KindUnset)
				}
				// 保持元素位置，空嵌套实例编码为空字节。
				wv = []byte{}
			}
			list = append(list, wv)
		}
		values[it.name] = list
	}
	return values, nil
}

// exportValue 返回单个值的线上形式；ok 为 false 表示没有可写出的数据。
func (o *Object) exportValue(ctx context.Context, it *Item, v Value) (any, bool, error) {
	if v.IsUnset() {
		return nil, false, nil
	}

	switch {
	case it.nested != nil:
		if v.kind != KindNested {
			return nil, false, merr.WrapErrSchemaMismatch(it.attr, KindNested, v.kind)
		}
		child := v.nested.ProtoObject()
		if child.def == nil {
			return nil, false, merr.WrapErrNotBound(fmt.Sprintf("%T", v.nested))
		}
		if child.IsEmpty() && !child.HasChanged() {
			o.track(child)
			return nil, false, nil
		}
		data, err := child.export(ctx)
		if err != nil {
			return nil, false, err
		}
		o.track(child)
		if len(data) == 0 {
			return nil, false, nil
		}
		return data, true, nil

	case it.conv != nil:
		data, err := it.conv.Set(ctx, v.Interface())
		if err != nil {
			return nil, false, merr.WrapErrConverterFailed(it.attr, err)
		}
		if len(data) == 0 {
			// 单值字段的空结果等同未设置，repeated 元素保留位置。
			if !it.repeated {
				return nil, false, nil
			}
			data = []byte{}
		}
		return data, true, nil

	default:
		switch v.kind {
		case KindScalar:
			return v.scalar, true, nil
		case KindBytes:
			if v.bytes == nil {
				return []byte{}, true, nil
			}
			return v.bytes, true, nil
		default:
			return nil, false, merr.WrapErrSchemaMismatch(it.attr, it.kind, v.kind)
		}
	}
}
