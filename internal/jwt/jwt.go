// Package jwt issues and checks the bearer tokens handed out after login.
package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jose "github.com/go-jose/go-jose/v3"
	josejwt "github.com/go-jose/go-jose/v3/jwt"
)

const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is what a verified token tells us about its holder.
type Claims struct {
	UserID    int64
	Phone     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type privateClaims struct {
	Phone string `json:"phone,omitempty"`
}

type Issuer struct {
	key    []byte
	ttl    time.Duration
	signer jose.Signer
	now    func() time.Time
}

// NewIssuer pads the secret to 32 bytes so short development secrets still sign HS256.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	key := []byte(secret)
	if len(key) < 32 {
		padded := make([]byte, 32)
		copy(padded, key)
		key = padded
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: key}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return nil, fmt.Errorf("jwt signer: %w", err)
	}
	return &Issuer{key: key, ttl: ttl, signer: signer, now: time.Now}, nil
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) Issue(userID int64, phone string) (string, error) {
	now := i.now()
	std := josejwt.Claims{
		Subject:  strconv.FormatInt(userID, 10),
		IssuedAt: josejwt.NewNumericDate(now),
		Expiry:   josejwt.NewNumericDate(now.Add(i.ttl)),
	}
	return josejwt.Signed(i.signer).Claims(std).Claims(privateClaims{Phone: phone}).CompactSerialize()
}

func (i *Issuer) Parse(token string) (Claims, error) {
	parsed, err := josejwt.ParseSigned(token)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	std := josejwt.Claims{}
	priv := privateClaims{}
	if err := parsed.Claims(i.key, &std, &priv); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := std.ValidateWithLeeway(josejwt.Expected{Time: i.now()}, 0); err != nil {
		if errors.Is(err, josejwt.ErrExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	c := Claims{UserID: id, Phone: priv.Phone}
	if std.IssuedAt != nil {
		c.IssuedAt = std.IssuedAt.Time()
	}
	if std.Expiry != nil {
		c.ExpiresAt = std.Expiry.Time()
	}
	return c, nil
}
