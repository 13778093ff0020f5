// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Schema related
	ErrSchemaInvalid     = newMapperError("invalid schema", 100)
	ErrSchemaMismatch    = newMapperError("schema mismatch", 101, WithErrorType(InputError))
	ErrDuplicateFieldID  = newMapperError("duplicate field id", 102)
	ErrFieldNotFound     = newMapperError("field not found", 103, WithErrorType(InputError))
	ErrNotBound          = newMapperError("object not bound to a definition", 104)
	ErrDuplicateField    = newMapperError("duplicate field name", 105)
	ErrDefinitionMissing = newMapperError("definition not found", 106)

	// Codec related
	ErrDecodeFailed    = newMapperError("decode failed", 200, WithErrorType(InputError))
	ErrEncodeFailed    = newMapperError("encode failed", 201)
	ErrRequiredField   = newMapperError("required field missing", 202, WithErrorType(InputError))
	ErrConverterFailed = newMapperError("converter failed", 203)

	// Frame related
	ErrFrameTooLarge  = newMapperError("frame too large", 300, WithErrorType(InputError))
	ErrFrameCorrupted = newMapperError("frame corrupted", 301, WithErrorType(InputError))
	ErrRouteNotFound  = newMapperError("route not found", 302, WithErrorType(InputError))
	ErrRouteConflict  = newMapperError("route conflict", 303)
	ErrDecryptFailed  = newMapperError("decrypt failed", 304, WithErrorType(InputError))
	ErrCompressFailed = newMapperError("compress failed", 305)

	// Parameter related
	ErrParameterInvalid = newMapperError("invalid parameter", 1100)
	ErrParameterMissing = newMapperError("missing parameter", 1101)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to mapperError
	errUnexpected = newMapperError("unexpected error", (1<<16)-1)
)

type errorOption func(*mapperError)

func WithErrorType(etype ErrorType) errorOption {
	return func(err *mapperError) {
		err.errType = etype
	}
}

// mapperError 的错误均由输入或声明决定，同一输入重试得到相同结果，因此不区分可重试。
type mapperError struct {
	msg     string
	errCode int32
	errType ErrorType
}

func newMapperError(msg string, code int32, options ...errorOption) mapperError {
	err := mapperError{
		msg:     msg,
		errCode: code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e mapperError) code() int32 {
	return e.errCode
}

func (e mapperError) Error() string {
	return e.msg
}

func (e mapperError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(mapperError); ok {
		return e.errCode == cause.errCode
	}
	return false
}
