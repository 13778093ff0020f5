package network

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Stage 表示报文收发链路中的处理阶段。
//
// 主要用于在错误中标记发生的位置，便于监控与排查。
type Stage string

const (
	StageSerialize Stage = "serialize" // 业务对象 <-> 字节
	StageCompress  Stage = "compress"  // 压缩/解压
	StageEncrypt   Stage = "encrypt"   // 加密/解密
	StageFrame     Stage = "frame"     // Envelope <-> 长度前缀帧
	StageDispatch  Stage = "dispatch"  // 报文 -> 业务处理
	StageRespond   Stage = "respond"   // 发送响应
)

// StageError 为带有处理阶段的错误，错误码仍取自被包装的 merr 错误。
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WithStage 为 err 标记处理阶段，err 为 nil 时返回 nil。
func WithStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf 返回 err 链上最近一次标记的处理阶段。
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
