package converter

import (
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	// Bytes 原样复制字节，双方都不共享底层数组。
	Bytes = New(
		func(v []byte) ([]byte, error) {
			return clone(v), nil
		},
		func(data []byte) ([]byte, error) {
			return clone(data), nil
		},
	)

	// String 以 UTF-8 编码字符串。
	String = New(
		func(v string) ([]byte, error) {
			return []byte(v), nil
		},
		func(data []byte) (string, error) {
			if !utf8.Valid(data) {
				return "", errors.New("converter: invalid utf-8")
			}
			return string(data), nil
		},
	)

	// UUID 以 16 字节原始形式编码 uuid.UUID。
	UUID = New(
		func(v uuid.UUID) ([]byte, error) {
			return v.MarshalBinary()
		},
		func(data []byte) (uuid.UUID, error) {
			return uuid.FromBytes(data)
		},
	)
)

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
