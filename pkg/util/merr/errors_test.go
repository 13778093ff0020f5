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
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrRequiredField("name", "Person")
	err = errors.Wrap(err, "failed to export")
	s.ErrorIs(err, ErrRequiredField)
	s.Equal(Code(ErrRequiredField), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(io.EOF))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newMapperError("new error", ErrRequiredField.errCode)
	s.True(sameCodeErr.Is(ErrRequiredField))
}

func (s *ErrSuite) TestMessage() {
	s.Equal("required field missing[field=name][message=Person]",
		WrapErrRequiredField("name", "Person").Error())
	s.Equal("decode failed[message=Person]: unexpected EOF",
		WrapErrDecodeFailed("Person", io.ErrUnexpectedEOF).Error())
	s.Equal("decode failed[message=Person]", WrapErrDecodeFailed("Person", nil).Error())
	s.Equal("frame too large[7 out of range 0 <= size <= 4]", WrapErrFrameTooLarge(7, 4).Error())
}

func (s *ErrSuite) TestWrap() {
	// Schema 相关错误。
	s.ErrorIs(WrapErrSchemaInvalid("Person", "empty name"), ErrSchemaInvalid)
	s.ErrorIs(WrapErrSchemaMismatch("tags", "repeated", "scalar"), ErrSchemaMismatch)
	s.ErrorIs(WrapErrDuplicateFieldID("Person", 1), ErrDuplicateFieldID)
	s.ErrorIs(WrapErrDuplicateField("Person", "name"), ErrDuplicateField)
	s.ErrorIs(WrapErrFieldNotFound("age", "failed to set"), ErrFieldNotFound)
	s.ErrorIs(WrapErrNotBound("*main.Person"), ErrNotBound)
	s.ErrorIs(WrapErrDefinitionMissing("*main.Person"), ErrDefinitionMissing)

	// Codec 相关错误。
	s.ErrorIs(WrapErrDecodeFailed("Person", io.ErrUnexpectedEOF), ErrDecodeFailed)
	s.ErrorIs(WrapErrEncodeFailed("Person", errors.New("bad value")), ErrEncodeFailed)
	s.ErrorIs(WrapErrRequiredField("name", "Person", "export"), ErrRequiredField)
	s.ErrorIs(WrapErrConverterFailed("id", errors.New("bad uuid")), ErrConverterFailed)

	// Frame 相关错误。
	s.ErrorIs(WrapErrFrameTooLarge(100, 10), ErrFrameTooLarge)
	s.ErrorIs(WrapErrFrameCorrupted("short header"), ErrFrameCorrupted)
	s.ErrorIs(WrapErrRouteNotFound(7), ErrRouteNotFound)
	s.ErrorIs(WrapErrRouteConflict(7), ErrRouteConflict)
	s.ErrorIs(WrapErrDecryptFailed(errors.New("mac mismatch")), ErrDecryptFailed)
	s.ErrorIs(WrapErrCompressFailed(errors.New("zstd")), ErrCompressFailed)

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid(8, 1, "failed to create"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidRange(1, 1<<29, 0, "id should be in range"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("bad key length %d", 3), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("encKey", "no key"), ErrParameterMissing)
}

func (s *ErrSuite) TestErrorType() {
	s.Equal(InputError, GetErrorType(WrapErrDecodeFailed("Person", nil)))
	s.Equal(InputError, GetErrorType(WrapErrRequiredField("name", "Person")))
	s.Equal(SystemError, GetErrorType(WrapErrEncodeFailed("Person", nil)))
	s.Equal(SystemError, GetErrorType(errors.New("plain")))
	s.Equal(InputError, GetErrorType(errors.Wrap(WrapErrSchemaMismatch("age", "uint32", "string"), "set")))
	s.Equal("input_error", InputError.String())
}

func (s *ErrSuite) TestCanceledOrTimeout() {
	s.True(IsCanceledOrTimeout(errors.Wrap(context.Canceled, "export")))
	s.True(IsCanceledOrTimeout(context.DeadlineExceeded))
	s.False(IsCanceledOrTimeout(WrapErrDecodeFailed("Person", nil)))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
