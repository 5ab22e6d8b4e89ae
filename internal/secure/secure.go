// Package secure keeps identity documents and passwords out of the database in the clear.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const devKey = "SportsBridgeDevK"

var (
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
	phonePattern   = regexp.MustCompile(`^\+?\d{10,15}$`)
	tenDigits      = regexp.MustCompile(`^\d{10}$`)

	ErrCiphertext = errors.New("ciphertext too short")
)

// Cipher encrypts Aadhaar numbers with AES-GCM and derives their lookup hash.
type Cipher struct {
	aead   cipher.AEAD
	pepper string
}

// NewCipher accepts a base64 key, or raw key bytes when the value is not base64.
func NewCipher(key, pepper string) (*Cipher, error) {
	material, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		material = []byte(key)
	}
	block, err := aes.NewCipher(NormalizeKey(material))
	if err != nil {
		return nil, fmt.Errorf("aes key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	if pepper == "" {
		pepper = "DEV_PEPPER"
	}
	return &Cipher{aead: aead, pepper: pepper}, nil
}

// NormalizeKey pads or truncates key material to the next AES key size.
func NormalizeKey(in []byte) []byte {
	switch n := len(in); {
	case n == 16 || n == 24 || n == 32:
		return in
	case n == 0:
		return []byte(devKey)
	case n < 16:
		return padTo(in, 16)
	case n < 24:
		return padTo(in, 24)
	case n < 32:
		return padTo(in, 32)
	default:
		return in[:32]
	}
}

func padTo(in []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, in)
	return out
}

// EncryptAadhaar returns nonce || ciphertext (the GCM tag is part of the ciphertext).
func (c *Cipher) EncryptAadhaar(plain string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, []byte(plain), nil), nil
}

func (c *Cipher) DecryptAadhaar(sealed []byte) (string, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns {
		return "", ErrCiphertext
	}
	plain, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// AadhaarHash is hex(SHA-256(pepper + aadhaar)); it is the unique lookup key.
func (c *Cipher) AadhaarHash(aadhaar string) string {
	sum := sha256.Sum256([]byte(c.pepper + aadhaar))
	return hex.EncodeToString(sum[:])
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func ValidAadhaar(s string) bool {
	return aadhaarPattern.MatchString(s)
}

func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// PhoneCandidates lists the spellings a phone number may have been stored under.
// Indian numbers are accepted with and without the +91 prefix.
func PhoneCandidates(raw string) []string {
	out := []string{raw}
	if tenDigits.MatchString(raw) {
		out = append(out, "+91"+raw)
	}
	if len(raw) == 13 && raw[:3] == "+91" && tenDigits.MatchString(raw[3:]) {
		out = append(out, raw[3:])
	}
	return out
}
