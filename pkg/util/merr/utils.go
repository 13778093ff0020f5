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
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case mapperError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func GetErrorType(err error) ErrorType {
	if merr, ok := errors.Cause(err).(mapperError); ok {
		return merr.errType
	}

	return SystemError
}

// Schema 相关错误封装。
func WrapErrSchemaInvalid(message string, reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrSchemaInvalid, reason, value("message", message))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrSchemaMismatch(field string, expected, actual any, msg ...string) error {
	err := wrapFields(ErrSchemaMismatch,
		value("field", field),
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrDuplicateFieldID(message string, id uint32, msg ...string) error {
	err := wrapFields(ErrDuplicateFieldID, value("message", message), value("id", id))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrDuplicateField(message string, field string, msg ...string) error {
	err := wrapFields(ErrDuplicateField, value("message", message), value("field", field))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrFieldNotFound[T any](field T, msg ...string) error {
	err := wrapFields(ErrFieldNotFound, value("field", field))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrNotBound(typeName string, msg ...string) error {
	err := wrapFields(ErrNotBound, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrDefinitionMissing(typeName string, msg ...string) error {
	err := wrapFields(ErrDefinitionMissing, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Codec 相关错误封装。
func WrapErrDecodeFailed(message string, err error) error {
	if err == nil {
		return wrapFields(ErrDecodeFailed, value("message", message))
	}
	return wrapFieldsWithDesc(ErrDecodeFailed, err.Error(), value("message", message))
}

func WrapErrEncodeFailed(message string, err error) error {
	if err == nil {
		return wrapFields(ErrEncodeFailed, value("message", message))
	}
	return wrapFieldsWithDesc(ErrEncodeFailed, err.Error(), value("message", message))
}

func WrapErrRequiredField(field string, message string, msg ...string) error {
	err := wrapFields(ErrRequiredField, value("field", field), value("message", message))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrConverterFailed(field string, err error) error {
	if err == nil {
		return wrapFields(ErrConverterFailed, value("field", field))
	}
	return wrapFieldsWithDesc(ErrConverterFailed, err.Error(), value("field", field))
}

// Frame 相关错误封装。
func WrapErrFrameTooLarge(size, limit int, msg ...string) error {
	err := wrapFields(ErrFrameTooLarge, bound("size", size, 0, limit))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrFrameCorrupted(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrFrameCorrupted, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrRouteNotFound(op uint32, msg ...string) error {
	err := wrapFields(ErrRouteNotFound, value("op", op))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrRouteConflict(op uint32, msg ...string) error {
	err := wrapFields(ErrRouteConflict, value("op", op))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrDecryptFailed(err error) error {
	return wrapFieldsWithDesc(ErrDecryptFailed, err.Error())
}

func WrapErrCompressFailed(err error) error {
	return wrapFieldsWithDesc(ErrCompressFailed, err.Error())
}

// Parameter related
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidRange[T any](lower, upper, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		bound("value", actual, lower, upper),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err mapperError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	return err
}

func wrapFieldsWithDesc(err mapperError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
