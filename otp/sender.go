package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/hackcelestial/sports-bridge/configuration"
)

// Message is one code delivery.
type Message struct {
	Phone     string
	Email     string
	Code      string
	ExpiresAt time.Time
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes codes to the service log. SMS delivery is not wired.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	otpLogger.WithFields(logrus.Fields{
		"phone": msg.Phone,
		"code":  msg.Code,
	}).Info("Sending OTP")
	return nil
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailSender e-mails the code when the request carries an address and logs it otherwise.
type MailSender struct {
	From     string
	dialer   dialer
	fallback Sender
}

func NewMailSender(conf configuration.Mail) *MailSender {
	return &MailSender{
		From:     conf.From,
		dialer:   gomail.NewDialer(conf.Host, conf.Port, conf.Username, conf.Password),
		fallback: LogSender{},
	}
}

func (m *MailSender) Send(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return m.fallback.Send(ctx, msg)
	}
	mail := gomail.NewMessage()
	mail.SetHeader("From", m.From)
	mail.SetHeader("To", msg.Email)
	mail.SetHeader("Subject", "Your Sports Bridge verification code")
	mail.SetBody("text/plain", fmt.Sprintf("Your code is %s. It expires at %s.",
		msg.Code, msg.ExpiresAt.UTC().Format(time.RFC1123)))
	return m.dialer.DialAndSend(mail)
}

// SenderFromConfig picks the sender named in the OTP section.
func SenderFromConfig(conf configuration.Configuration) Sender {
	if conf.OTP.Sender == "mail" {
		return NewMailSender(conf.Mail)
	}
	return LogSender{}
}
