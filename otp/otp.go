// Package otp issues and checks the six digit codes sent during signup and login.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/backends"
	logger "github.com/hackcelestial/sports-bridge/log"
)

var log = logger.Get()
var otpLogger = log.WithField("prefix", "OTP")

const (
	TTL         = 10 * time.Minute
	RateWindow  = 10 * time.Minute
	MaxPerPhone = 5
	MaxPerIP    = 20
)

var (
	ErrTooManyPhone = errors.New("too many OTP requests for this phone, try later")
	ErrTooManyIP    = errors.New("too many OTP requests from this IP, try later")
	ErrNotFound     = errors.New("OTP not found, start again")
	ErrExpired      = errors.New("OTP expired")
	ErrInvalid      = errors.New("invalid OTP")
)

// IsRateLimited reports whether err came from one of the request limits.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrTooManyPhone) || errors.Is(err, ErrTooManyIP)
}

// Payload travels with the code and is handed back on successful verification.
type Payload map[string]string

type entry struct {
	Code      string    `json:"code"`
	TxID      string    `json:"tx_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Payload   Payload   `json:"payload"`
}

type Service struct {
	kv     backends.KVBackend
	sender Sender
	now    func() time.Time
}

func NewService(kv backends.KVBackend, sender Sender) *Service {
	if sender == nil {
		sender = LogSender{}
	}
	return &Service{kv: kv, sender: sender, now: time.Now}
}

func codeKey(phone string) string { return "otp:code:" + phone }

// Start checks the request limits, stores a fresh code for phone and sends it.
// A previous code for the same phone is replaced.
func (s *Service) Start(ctx context.Context, phone, ip string, payload Payload) (string, error) {
	n, err := s.kv.Incr(ctx, "otp:rate:phone:"+phone, RateWindow)
	if err != nil {
		return "", err
	}
	if n > MaxPerPhone {
		return "", ErrTooManyPhone
	}
	n, err = s.kv.Incr(ctx, "otp:rate:ip:"+ip, RateWindow)
	if err != nil {
		return "", err
	}
	if n > MaxPerIP {
		return "", ErrTooManyIP
	}

	code, err := newCode()
	if err != nil {
		return "", err
	}
	txID, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	e := entry{
		Code:      code,
		TxID:      txID.String(),
		ExpiresAt: s.now().Add(TTL),
		Payload:   payload,
	}
	if err := s.kv.SetKey(ctx, codeKey(phone), e, TTL); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	msg := Message{Phone: phone, Email: payload["email"], Code: code, ExpiresAt: e.ExpiresAt}
	if err := s.sender.Send(ctx, msg); err != nil {
		otpLogger.WithFields(logrus.Fields{"phone": phone, "error": err}).Error("Could not deliver OTP")
		return "", err
	}
	return e.TxID, nil
}

// Verify consumes the code on success and on expiry. A wrong code leaves it in place.
func (s *Service) Verify(ctx context.Context, phone, code string) (Payload, error) {
	e := entry{}
	if err := s.kv.GetKey(ctx, codeKey(phone), &e); err != nil {
		if errors.Is(err, backends.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.now().After(e.ExpiresAt) {
		s.kv.DeleteKey(ctx, codeKey(phone))
		return nil, ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(e.Code), []byte(code)) != 1 {
		return nil, ErrInvalid
	}
	if err := s.kv.DeleteKey(ctx, codeKey(phone)); err != nil {
		return nil, err
	}
	if e.Payload == nil {
		e.Payload = Payload{}
	}
	return e.Payload, nil
}

// Peek returns the live code for phone, or "" when there is none. Development only.
func (s *Service) Peek(ctx context.Context, phone string) string {
	e := entry{}
	if err := s.kv.GetKey(ctx, codeKey(phone), &e); err != nil {
		return ""
	}
	if s.now().After(e.ExpiresAt) {
		s.kv.DeleteKey(ctx, codeKey(phone))
		return ""
	}
	return e.Code
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
