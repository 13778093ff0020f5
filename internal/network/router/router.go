package router

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/protomap-go/internal/network"
	"github.com/lk2023060901/protomap-go/internal/network/envelope"
	"github.com/lk2023060901/protomap-go/pkg/log"
	"github.com/lk2023060901/protomap-go/pkg/protomap"
	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

// Handler 是暴露给业务层的处理函数。
//
//   - req ：按路由定义从 payload 导入的新实例；
//   - resp：可选的响应对象，为 nil 时不自动发送响应。
type Handler func(ctx context.Context, req protomap.Message) (resp protomap.Message, err error)

// Responder 负责把响应写回对端，通常由持有连接与 Codec 的一方实现。
type Responder interface {
	Respond(ctx context.Context, header *envelope.Header, msg protomap.Message) error
}

// Route 描述一条路由规则：请求协议号 -> 请求定义 + 业务 Handler + 响应协议号。
type Route struct {
	// Request 为请求消息的定义，用于从 payload 导入请求实例。
	Request *protomap.Definition

	Handler Handler

	// RespOp 为 0 时不根据 Handler 返回值自动发送响应。
	RespOp uint32
}

// Router 维护协议号到路由规则的映射，并负责从“报文头 + 明文字节”到业务 Handler 的调度。
type Router interface {
	// Register 为协议号 op 注册一条路由规则，同一协议号不允许重复注册。
	Register(op uint32, route Route) error

	// Handle 处理一条已经解码出的报文：
	//  1. 根据 header.Op 查找 Route；
	//  2. 使用 Route.Request 从 payload 导入请求实例；
	//  3. 调用 Handler；
	//  4. 若 RespOp 非 0 且 resp 非 nil，沿用请求的 seq 构造响应头并交给 Responder。
	Handle(ctx context.Context, resp Responder, header *envelope.Header, payload []byte) error
}

type defaultRouter struct {
	log.Binder

	mu     sync.RWMutex
	routes map[uint32]Route
}

var _ Router = (*defaultRouter)(nil)

// New 创建一个空的 Router。
func New() Router {
	r := &defaultRouter{
		routes: make(map[uint32]Route),
	}
	r.SetLogger(log.With(log.FieldComponent("router")))
	return r
}

func (r *defaultRouter) Register(op uint32, route Route) error {
	if op == 0 {
		return merr.WrapErrParameterInvalidMsg("op must not be 0")
	}
	if route.Request == nil {
		return merr.WrapErrParameterMissing("request definition", fmt.Sprintf("op=%d", op))
	}
	if route.Handler == nil {
		return merr.WrapErrParameterMissing("handler", fmt.Sprintf("op=%d", op))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.routes[op]; exists {
		return merr.WrapErrRouteConflict(op)
	}
	r.routes[op] = route
	r.Logger().Debug("route registered", log.FieldOp(op), log.FieldMessage(route.Request.Name()))
	return nil
}

func (r *defaultRouter) Handle(ctx context.Context, resp Responder, header *envelope.Header, payload []byte) error {
	if header == nil {
		return merr.WrapErrParameterMissing("header")
	}
	op := header.Op()

	r.mu.RLock()
	route, ok := r.routes[op]
	r.mu.RUnlock()
	if !ok {
		return network.WithStage(network.StageDispatch, merr.WrapErrRouteNotFound(op))
	}

	ctx = log.WithSeq(ctx, op, header.Seq())
	req, err := route.Request.Import(ctx, payload)
	if err != nil {
		r.logFailure("import request failed", header, err)
		return network.WithStage(network.StageDispatch, err)
	}

	out, err := route.Handler(ctx, req)
	if err != nil {
		r.logFailure("handler failed", header, err)
		return network.WithStage(network.StageDispatch, err)
	}
	if route.RespOp == 0 || out == nil {
		return nil
	}
	if resp == nil {
		return network.WithStage(network.StageRespond, merr.WrapErrParameterMissing("responder"))
	}

	if err := resp.Respond(ctx, envelope.NewHeader(route.RespOp, header.Seq()), out); err != nil {
		r.Logger().Warn("send response failed", log.FieldOp(op), zap.Error(err))
		return network.WithStage(network.StageRespond, err)
	}
	return nil
}

// logFailure 按错误类型选择级别：取消与超时为 Debug，输入错误为 Warn，其余为 Error。
func (r *defaultRouter) logFailure(msg string, header *envelope.Header, err error) {
	fields := []zap.Field{
		log.FieldOp(header.Op()),
		zap.Uint64(log.FieldNameSeq, header.Seq()),
		zap.Int32("code", merr.Code(err)),
		zap.Error(err),
	}
	switch {
	case merr.IsCanceledOrTimeout(err):
		r.Logger().Debug(msg, fields...)
	case merr.GetErrorType(err) == merr.InputError:
		r.Logger().Warn(msg, fields...)
	default:
		r.Logger().Error(msg, fields...)
	}
}
