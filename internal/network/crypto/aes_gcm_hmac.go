package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/protomap-go/pkg/util/merr"
)

var (
	// ErrPacketTooShort 表示报文长度不足以容纳 nonce 与 MAC。
	ErrPacketTooShort = errors.New("crypto: packet too short")

	// ErrInvalidMAC 表示 HMAC 签名校验失败。
	ErrInvalidMAC = errors.New("crypto: invalid mac")
)

// KeySize 为 AES-256 的密钥长度。
const KeySize = 32

// AESGCMHMAC 使用 AES-256-GCM 加密，再用 HMAC-SHA256 对密文与 aad 签名。
//
// 报文格式：nonce || ciphertext || mac
//   - nonce     ：随机数，长度为 AEAD.NonceSize()
//   - ciphertext：AES-GCM 密文（含 GCM tag）
//   - mac       ：HMAC-SHA256(nonce || ciphertext || aad)
type AESGCMHMAC struct {
	aead    cipher.AEAD
	hmacKey []byte
}

var _ Encryptor = (*AESGCMHMAC)(nil)

// NewAESGCMHMAC 创建加密器，encKey 必须为 32 字节，macKey 不能为空。
func NewAESGCMHMAC(encKey, macKey []byte) (*AESGCMHMAC, error) {
	if len(encKey) != KeySize {
		return nil, merr.WrapErrParameterInvalid(KeySize, len(encKey), "encKey length")
	}
	if len(macKey) == 0 {
		return nil, merr.WrapErrParameterMissing("macKey")
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, errors.Wrap(err, "create aes cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "create gcm")
	}
	return &AESGCMHMAC{
		aead:    aead,
		hmacKey: append([]byte(nil), macKey...),
	}, nil
}

func (c *AESGCMHMAC) Encrypt(plaintext, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	packet := make([]byte, nonceSize, nonceSize+len(plaintext)+c.aead.Overhead()+sha256.Size)
	if _, err := io.ReadFull(rand.Reader, packet); err != nil {
		return nil, errors.Wrap(err, "read nonce")
	}

	packet = c.aead.Seal(packet, packet[:nonceSize], plaintext, aad)
	return append(packet, c.sign(packet, aad)...), nil
}

func (c *AESGCMHMAC) Decrypt(packet, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(packet) < nonceSize+sha256.Size {
		return nil, ErrPacketTooShort
	}

	macOffset := len(packet) - sha256.Size
	if !hmac.Equal(c.sign(packet[:macOffset], aad), packet[macOffset:]) {
		return nil, ErrInvalidMAC
	}

	plaintext, err := c.aead.Open(nil, packet[:nonceSize], packet[nonceSize:macOffset], aad)
	if err != nil {
		return nil, errors.Wrap(err, "open gcm")
	}
	return plaintext, nil
}

// sign 计算 HMAC-SHA256(nonce || ciphertext || aad)。
func (c *AESGCMHMAC) sign(sealed, aad []byte) []byte {
	m := hmac.New(sha256.New, c.hmacKey)
	_, _ = m.Write(sealed)
	_, _ = m.Write(aad)
	return m.Sum(nil)
}
