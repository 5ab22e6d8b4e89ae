// Package notify records in-app notifications and optionally mirrors them by e-mail.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/configuration"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/store"
)

var log = logger.Get()
var notifyLogger = log.WithField("prefix", "NOTIFY")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Service struct {
	store  store.Store
	dialer dialer
	from   string
	now    func() time.Time
}

func NewService(s store.Store) *Service {
	return &Service{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// WithMail mirrors every notification to the recipient's e-mail address, when they have one.
func (s *Service) WithMail(conf configuration.Mail) *Service {
	if conf.Host == "" {
		return s
	}
	s.dialer = gomail.NewDialer(conf.Host, conf.Port, conf.Username, conf.Password)
	s.from = conf.From
	return s
}

// Notify stores a notification for userID. Delivery problems are logged, never returned.
func (s *Service) Notify(ctx context.Context, userID int64, message string) {
	n := &bridge.Notification{RecipientID: userID, Message: message, CreatedAt: s.now()}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		notifyLogger.WithFields(logrus.Fields{"user": userID, "error": err}).Error("Could not store notification")
		return
	}
	if s.dialer == nil {
		return
	}
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil || u.Email == "" {
		return
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", u.Email)
	m.SetHeader("Subject", "Sports Bridge notification")
	m.SetBody("text/plain", message)
	if err := s.dialer.DialAndSend(m); err != nil {
		notifyLogger.WithFields(logrus.Fields{"user": userID, "error": err}).Warn("Could not mail notification")
	}
}

func (s *Service) List(ctx context.Context, user *bridge.User) ([]*bridge.Notification, *bridge.HttpError) {
	out, err := s.store.Notifications().ByRecipient(ctx, user.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load notifications", err)
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, user *bridge.User, id int64) *bridge.HttpError {
	n, err := s.store.Notifications().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return bridge.NotFound("Notification not found", err)
	}
	if err != nil {
		return bridge.Internal("Could not load notification", err)
	}
	if n.RecipientID != user.ID {
		return bridge.Forbidden("Not your notification", nil)
	}
	if err := s.store.Notifications().MarkRead(ctx, id); err != nil {
		return bridge.Internal("Could not update notification", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, user *bridge.User) (int64, *bridge.HttpError) {
	n, err := s.store.Notifications().MarkAllRead(ctx, user.ID)
	if err != nil {
		return 0, bridge.Internal("Could not update notifications", err)
	}
	return n, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) int64 {
	n, err := s.store.Notifications().UnreadCount(ctx, userID)
	if err != nil {
		notifyLogger.WithField("error", err).Warn("Could not count notifications")
		return 0
	}
	return n
}
