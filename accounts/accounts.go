// Package accounts handles signup, login and profile management.
package accounts

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/internal/jwt"
	"github.com/hackcelestial/sports-bridge/internal/secure"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/otp"
	"github.com/hackcelestial/sports-bridge/store"
	"github.com/hackcelestial/sports-bridge/uploads"
)

var log = logger.Get()
var accountsLogger = log.WithField("prefix", "ACCOUNTS")

const (
	purposeSignup = "signup"
	purposeLogin  = "login"

	MinPasswordLen = 6
)

type Service struct {
	store   store.Store
	otp     *otp.Service
	cipher  *secure.Cipher
	tokens  *jwt.Issuer
	uploads *uploads.Service
	now     func() time.Time
}

func NewService(s store.Store, o *otp.Service, c *secure.Cipher, tokens *jwt.Issuer, up *uploads.Service) *Service {
	return &Service{
		store:   s,
		otp:     o,
		cipher:  c,
		tokens:  tokens,
		uploads: up,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type SignupRequest struct {
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Aadhaar  string `json:"aadhaar"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Phone   string `json:"phone"`
	Aadhaar string `json:"aadhaar"`
}

type OTPStarted struct {
	Status string `json:"status"`
	TxID   string `json:"txId"`
}

type TokenResponse struct {
	Token string             `json:"token"`
	User  bridge.UserSummary `json:"user"`
}

func validateIdentity(phone, aadhaar string) *bridge.HttpError {
	if !secure.ValidAadhaar(aadhaar) {
		return bridge.BadRequest("Invalid Aadhaar format", nil)
	}
	if !secure.ValidPhone(phone) {
		return bridge.BadRequest("Invalid phone format", nil)
	}
	return nil
}

func otpStartError(err error) *bridge.HttpError {
	if otp.IsRateLimited(err) {
		return bridge.NewHttpError(http.StatusTooManyRequests, err.Error(), err)
	}
	return bridge.Internal("Could not send OTP", err)
}

// checkOwnership rejects an Aadhaar bound to another phone or a phone bound to another Aadhaar.
func (s *Service) checkOwnership(ctx context.Context, phone, hash string) *bridge.HttpError {
	byHash, err := s.store.Users().GetByAadhaarHash(ctx, hash)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return bridge.Internal("Could not check account", err)
	}
	if byHash != nil && byHash.Phone != phone {
		return bridge.Conflict("Aadhaar already registered with a different phone", nil)
	}
	byPhone, err := s.store.Users().GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return bridge.Internal("Could not check account", err)
	}
	if byPhone != nil && byPhone.AadhaarHash != hash {
		return bridge.Conflict("Phone already registered with a different Aadhaar", nil)
	}
	return nil
}

// Signup starts phone verification for a new (or unverified) account.
func (s *Service) Signup(ctx context.Context, req SignupRequest, ip string) (*OTPStarted, *bridge.HttpError) {
	req.Phone = strings.TrimSpace(req.Phone)
	if httpErr := validateIdentity(req.Phone, req.Aadhaar); httpErr != nil {
		return nil, httpErr
	}
	role := bridge.ParseRole(req.Role)
	if role == bridge.RoleAdmin {
		role = bridge.RoleUser
	}
	hash := s.cipher.AadhaarHash(req.Aadhaar)
	if httpErr := s.checkOwnership(ctx, req.Phone, hash); httpErr != nil {
		return nil, httpErr
	}
	sealed, err := s.cipher.EncryptAadhaar(req.Aadhaar)
	if err != nil {
		return nil, bridge.Internal("Could not secure Aadhaar", err)
	}

	payload := otp.Payload{
		"purpose":     purposeSignup,
		"fullName":    req.FullName,
		"role":        role.String(),
		"phone":       req.Phone,
		"aadhaarHash": hash,
		"aadhaarEnc":  base64.StdEncoding.EncodeToString(sealed),
	}
	if req.Email != "" {
		payload["email"] = strings.TrimSpace(req.Email)
	}
	tx, err := s.otp.Start(ctx, req.Phone, ip, payload)
	if err != nil {
		return nil, otpStartError(err)
	}
	return &OTPStarted{Status: "OTP_SENT", TxID: tx}, nil
}

// Login starts OTP verification for an existing verified account.
func (s *Service) Login(ctx context.Context, req LoginRequest, ip string) (*OTPStarted, *bridge.HttpError) {
	req.Phone = strings.TrimSpace(req.Phone)
	if httpErr := validateIdentity(req.Phone, req.Aadhaar); httpErr != nil {
		return nil, httpErr
	}
	u, err := s.store.Users().GetByPhone(ctx, req.Phone)
	if errors.Is(err, store.ErrNotFound) || (err == nil && u.AadhaarHash != s.cipher.AadhaarHash(req.Aadhaar)) {
		return nil, bridge.NotFound("Account not found for this Aadhaar + phone", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load account", err)
	}
	if !u.Verified {
		return nil, bridge.Forbidden("Account not verified", nil)
	}
	payload := otp.Payload{
		"purpose": purposeLogin,
		"userId":  strconv.FormatInt(u.ID, 10),
	}
	if u.Email != "" {
		payload["email"] = u.Email
	}
	tx, err := s.otp.Start(ctx, req.Phone, ip, payload)
	if err != nil {
		return nil, otpStartError(err)
	}
	return &OTPStarted{Status: "OTP_SENT", TxID: tx}, nil
}

// Verify completes a signup or login and issues a token.
func (s *Service) Verify(ctx context.Context, phone, code string) (*TokenResponse, *bridge.HttpError) {
	phone = strings.TrimSpace(phone)
	payload, err := s.otp.Verify(ctx, phone, strings.TrimSpace(code))
	switch {
	case errors.Is(err, otp.ErrNotFound), errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrInvalid):
		return nil, bridge.BadRequest(err.Error(), err)
	case err != nil:
		return nil, bridge.Internal("Could not verify OTP", err)
	}

	if payload["purpose"] == purposeLogin {
		id, _ := strconv.ParseInt(payload["userId"], 10, 64)
		u, err := s.store.Users().Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, bridge.NotFound("User not found", err)
		}
		if err != nil {
			return nil, bridge.Internal("Could not load account", err)
		}
		return s.issue(u)
	}

	u, httpErr := s.completeSignup(ctx, payload)
	if httpErr != nil {
		return nil, httpErr
	}
	return s.issue(u)
}

func (s *Service) completeSignup(ctx context.Context, payload otp.Payload) (*bridge.User, *bridge.HttpError) {
	phone := payload["phone"]
	hash := payload["aadhaarHash"]
	if httpErr := s.checkOwnership(ctx, phone, hash); httpErr != nil {
		return nil, httpErr
	}
	sealed, err := base64.StdEncoding.DecodeString(payload["aadhaarEnc"])
	if err != nil {
		return nil, bridge.Internal("Corrupt signup payload", err)
	}
	fullName := strings.TrimSpace(payload["fullName"])
	if fullName == "" {
		fullName = "User"
	}
	role := bridge.ParseRole(payload["role"])

	u, err := s.store.Users().GetByPhone(ctx, phone)
	isNew := errors.Is(err, store.ErrNotFound)
	if err != nil && !isNew {
		return nil, bridge.Internal("Could not load account", err)
	}
	if isNew {
		u = &bridge.User{Phone: phone, CreatedAt: s.now()}
	}
	u.FullName = fullName
	u.Role = role
	u.Email = payload["email"]
	u.AadhaarEncrypted = sealed
	u.AadhaarHash = hash
	u.Verified = true

	if isNew {
		err = s.store.Users().Create(ctx, u)
	} else {
		err = s.store.Users().Update(ctx, u)
	}
	if errors.Is(err, store.ErrDuplicate) {
		return nil, bridge.Conflict("Account already exists", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not save account", err)
	}
	if err := s.ensureRoleProfile(ctx, u); err != nil {
		accountsLogger.WithFields(logrus.Fields{"user": u.ID, "error": err}).Warn("Could not create role profile")
	}
	accountsLogger.WithField("user", u.ID).Info("Account verified")
	return u, nil
}

// ensureRoleProfile creates an empty profile row for the user's role when missing.
func (s *Service) ensureRoleProfile(ctx context.Context, u *bridge.User) error {
	profiles := s.store.Profiles()
	var err error
	switch u.Role {
	case bridge.RoleAthlete:
		if _, err = profiles.Athlete(ctx, u.ID); errors.Is(err, store.ErrNotFound) {
			return profiles.SaveAthlete(ctx, &bridge.AthleteProfile{UserID: u.ID})
		}
	case bridge.RoleCoach:
		if _, err = profiles.Coach(ctx, u.ID); errors.Is(err, store.ErrNotFound) {
			return profiles.SaveCoach(ctx, &bridge.CoachProfile{UserID: u.ID})
		}
	case bridge.RoleSponsor:
		if _, err = profiles.Sponsor(ctx, u.ID); errors.Is(err, store.ErrNotFound) {
			return profiles.SaveSponsor(ctx, &bridge.SponsorProfile{UserID: u.ID})
		}
	}
	return err
}

func (s *Service) issue(u *bridge.User) (*TokenResponse, *bridge.HttpError) {
	token, err := s.tokens.Issue(u.ID, u.Phone)
	if err != nil {
		return nil, bridge.Internal("Could not issue token", err)
	}
	return &TokenResponse{Token: token, User: u.Summary()}, nil
}

// SetPassword enables password login for user.
func (s *Service) SetPassword(ctx context.Context, u *bridge.User, password string) *bridge.HttpError {
	if len(password) < MinPasswordLen {
		return bridge.BadRequest("Password must be at least 6 characters", nil)
	}
	hash, err := secure.HashPassword(password)
	if err != nil {
		return bridge.Internal("Could not hash password", err)
	}
	u.PasswordHash = hash
	if err := s.store.Users().Update(ctx, u); err != nil {
		return bridge.Internal("Could not save password", err)
	}
	return nil
}

// PasswordLogin accepts Indian numbers with or without the +91 prefix.
func (s *Service) PasswordLogin(ctx context.Context, phone, password string) (*TokenResponse, *bridge.HttpError) {
	raw := strings.TrimSpace(phone)
	if raw == "" || password == "" {
		return nil, bridge.BadRequest("Missing phone or password", nil)
	}
	if !secure.ValidPhone(raw) {
		return nil, bridge.BadRequest("Invalid phone format", nil)
	}
	var u *bridge.User
	for _, candidate := range secure.PhoneCandidates(raw) {
		found, err := s.store.Users().GetByPhone(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, bridge.Internal("Could not load account", err)
		}
		u = found
		break
	}
	if u == nil {
		return nil, bridge.NotFound("Account not found or not verified", nil)
	}
	if !u.Verified {
		return nil, bridge.Forbidden("Account not verified", nil)
	}
	if !secure.CheckPassword(u.PasswordHash, password) {
		return nil, bridge.Unauthorized("Invalid credentials", nil)
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*bridge.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.store.Users().Get(ctx, claims.UserID)
}

// User loads a user by id, used for cookie sessions.
func (s *Service) User(ctx context.Context, id int64) (*bridge.User, error) {
	return s.store.Users().Get(ctx, id)
}

// PeekOTP exposes the live code for phone. Handlers only route here in dev mode.
func (s *Service) PeekOTP(ctx context.Context, phone string) string {
	return s.otp.Peek(ctx, strings.TrimSpace(phone))
}

// SetAvatar stores an uploaded image and points the user's profile picture at it.
func (s *Service) SetAvatar(ctx context.Context, u *bridge.User, r io.Reader) (string, *bridge.HttpError) {
	if s.uploads == nil {
		return "", bridge.NewHttpError(http.StatusServiceUnavailable, "Uploads are not configured", nil)
	}
	url, httpErr := s.uploads.SaveImage(ctx, "avatars", r)
	if httpErr != nil {
		return "", httpErr
	}
	u.ProfilePicURL = url
	if err := s.store.Users().Update(ctx, u); err != nil {
		return "", bridge.Internal("Could not save profile picture", err)
	}
	return url, nil
}
