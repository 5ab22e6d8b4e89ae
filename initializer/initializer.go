// Package initializer builds every service of the platform from a Configuration.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/accounts"
	"github.com/hackcelestial/sports-bridge/aiproxy"
	"github.com/hackcelestial/sports-bridge/backends"
	"github.com/hackcelestial/sports-bridge/chat"
	"github.com/hackcelestial/sports-bridge/coaching"
	"github.com/hackcelestial/sports-bridge/configuration"
	"github.com/hackcelestial/sports-bridge/dashboard"
	"github.com/hackcelestial/sports-bridge/feed"
	"github.com/hackcelestial/sports-bridge/internal/jwt"
	"github.com/hackcelestial/sports-bridge/internal/secure"
	"github.com/hackcelestial/sports-bridge/invitations"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/metrics"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/otp"
	"github.com/hackcelestial/sports-bridge/reports"
	"github.com/hackcelestial/sports-bridge/session"
	"github.com/hackcelestial/sports-bridge/sponsorship"
	"github.com/hackcelestial/sports-bridge/store"
	"github.com/hackcelestial/sports-bridge/store/sqlstore"
	"github.com/hackcelestial/sports-bridge/training"
	"github.com/hackcelestial/sports-bridge/uploads"
)

var log = logger.Get()
var initializerLogger = log.WithField("prefix", "SB INITIALIZER")

// InitBackend builds the key/value backend holding otp codes and rate counters.
func InitBackend(conf configuration.KV) (backends.KVBackend, error) {
	initializerLogger.Infof("Initialising %s key/value store", conf.Backend)
	return backends.FromConfig(conf)
}

// CreateBackendFromRedisConn wraps an existing redis connection.
func CreateBackendFromRedisConn(client redis.UniversalClient, keyPrefix string) backends.KVBackend {
	return backends.NewRedisBackend(client, keyPrefix)
}

func setLogger(newLogger *logrus.Logger) {
	logger.SetLogger(newLogger)
	log = newLogger

	initializerLogger = &logrus.Entry{Logger: log}
	initializerLogger = initializerLogger.Logger.WithField("prefix", "SB INITIALIZER")
}

// Bridge holds the wired services. Fields left nil before Start are built from Conf;
// set them beforehand to inject existing connections.
type Bridge struct {
	Conf   configuration.Configuration
	Logger *logrus.Logger
	Redis  redis.UniversalClient
	KV     backends.KVBackend
	Store  store.Store

	Cipher   *secure.Cipher
	Tokens   *jwt.Issuer
	Sessions *session.Manager
	Metrics  *metrics.Metrics

	OTP         *otp.Service
	Uploads     *uploads.Service
	Notify      *notify.Service
	Accounts    *accounts.Service
	Feed        *feed.Service
	Coaching    *coaching.Service
	Invitations *invitations.Service
	Training    *training.Service
	Sponsorship *sponsorship.Service
	Reports     *reports.Service
	Chat        *chat.Service
	AI          *aiproxy.Proxy
	Dashboard   *dashboard.Handler
}

func (b *Bridge) Start(ctx context.Context) error {
	if b.Logger == nil {
		b.Logger = logger.Get()
	}
	setLogger(b.Logger)

	if err := b.startStorage(ctx); err != nil {
		return err
	}
	if err := b.startSecurity(); err != nil {
		return err
	}
	return b.startServices(ctx)
}

func (b *Bridge) startStorage(ctx context.Context) error {
	var err error
	if b.KV == nil {
		if b.Redis != nil {
			b.KV = CreateBackendFromRedisConn(b.Redis, b.Conf.KV.Redis.KeyPrefix)
		} else if b.KV, err = InitBackend(b.Conf.KV); err != nil {
			return fmt.Errorf("kv backend: %w", err)
		}
	}

	if b.Store == nil {
		initializerLogger.Info("Opening relational store")
		st, err := sqlstore.Open(b.Conf.Storage.Driver, b.Conf.Storage.DSN, b.Conf.Storage.MaxOpenConns)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		b.Store = st
	}
	return nil
}

func (b *Bridge) startSecurity() error {
	sec := b.Conf.Security
	if sec.JWTSecret == "" && !b.Conf.DevMode {
		return errors.New("jwt secret cannot be empty outside dev mode")
	}

	var err error
	if b.Cipher, err = secure.NewCipher(sec.AESKey, sec.AadhaarPepper); err != nil {
		return fmt.Errorf("cipher: %w", err)
	}
	if b.Tokens, err = jwt.NewIssuer(sec.JWTSecret, time.Duration(sec.JWTTTLSeconds)*time.Second); err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	b.Sessions = session.NewManager(sec.SessionSecret, b.Conf.HttpServerOptions.UseSSL)
	if b.Metrics == nil {
		b.Metrics = metrics.New()
	}
	return nil
}

func (b *Bridge) startServices(ctx context.Context) error {
	var err error
	if b.Uploads == nil {
		if b.Uploads, err = uploads.FromConfig(ctx, b.Conf.Uploads); err != nil {
			return fmt.Errorf("uploads: %w", err)
		}
	}

	b.OTP = otp.NewService(b.KV, otp.SenderFromConfig(b.Conf))
	b.Notify = notify.NewService(b.Store).WithMail(b.Conf.Mail)
	b.Accounts = accounts.NewService(b.Store, b.OTP, b.Cipher, b.Tokens, b.Uploads)
	b.Feed = feed.NewService(b.Store, b.Uploads)
	b.Coaching = coaching.NewService(b.Store, b.Notify)
	b.Invitations = invitations.NewService(b.Store, b.Coaching, b.Notify)
	b.Training = training.NewService(b.Store, b.Uploads)
	b.Sponsorship = sponsorship.NewService(b.Store, b.Notify)
	b.Reports = reports.NewService(b.Store, b.Notify)
	b.Chat = chat.NewService(b.Store, b.Notify)

	if b.AI, err = aiproxy.New(b.Conf.AI.BaseURL); err != nil {
		return fmt.Errorf("ai proxy: %w", err)
	}

	b.Dashboard, err = dashboard.New(dashboard.Deps{
		Sessions:    b.Sessions,
		Users:       b.Accounts,
		Feed:        b.Feed,
		Invitations: b.Invitations,
		Notify:      b.Notify,
		Training:    b.Training,
		DevMode:     b.Conf.DevMode,
	})
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	initializerLogger.Info("Services initialised")
	return nil
}

// Retention is the configured invitation retention, DefaultRetention when unset.
func (b *Bridge) Retention() time.Duration {
	if h := b.Conf.Invitations.RetentionHours; h > 0 {
		return time.Duration(h) * time.Hour
	}
	return invitations.DefaultRetention
}

// Close releases the store connections.
func (b *Bridge) Close() error {
	if b.Store == nil {
		return nil
	}
	return b.Store.Close()
}
