package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

var (
	ErrMalformedBlob    = errors.New("malformed credential blob")
	ErrDecryptionFailed = errors.New("credential decryption failed")
)

const (
	blobSeparator = ":"

	// scrypt parameters match the stored rows written by the previous backend.
	scryptN     = 16384
	scryptR     = 8
	scryptP     = 1
	vaultKeyLen = 32
)

// Vault encrypts stored passwords with AES-256-CBC under a key derived once
// from the application secret. Blobs are framed as hex(iv) ":" hex(ciphertext).
type Vault struct {
	block cipher.Block
}

func NewVault(secret, salt string) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("vault secret is required")
	}
	key, err := scrypt.Key([]byte(secret), []byte(salt), scryptN, scryptR, scryptP, vaultKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init vault cipher: %w", err)
	}
	return &Vault{block: block}, nil
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("read iv: %w", err)
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(v.block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(iv) + blobSeparator + hex.EncodeToString(out), nil
}

func (v *Vault) Decrypt(blob string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(blob, blobSeparator)
	if !ok {
		return "", ErrMalformedBlob
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedBlob
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", ErrMalformedBlob
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", ErrDecryptionFailed
	}
	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(v.block, iv).CryptBlocks(out, ct)
	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}

// Matches decrypts blob and compares it with candidate in constant time.
func (v *Vault) Matches(blob, candidate string) (bool, error) {
	stored, err := v.Decrypt(blob)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
