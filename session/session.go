/*
Package session keeps dashboard logins in a signed cookie. API clients use bearer
tokens instead; the dashboard pages only see this cookie.
*/
package session

import (
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/sessions"

	"github.com/hackcelestial/sports-bridge/constants"
	logger "github.com/hackcelestial/sports-bridge/log"
)

// SessionName is the key used to access the session store.
const SessionName = constants.SessionCookie

const userIDKey = "user_id"

var log = logger.Get()

var ErrNoSession = errors.New("no active session")

type Manager struct {
	store sessions.Store
}

// NewManager builds a cookie store keyed with secret, or SB_SESSION_SECRET when secret is empty.
func NewManager(secret string, secure bool) *Manager {
	key := secret
	if key == "" {
		key = KeyFromEnv()
	}
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

func KeyFromEnv() string {
	key := os.Getenv(constants.EnvPrefix + "_SESSION_SECRET")
	if key == "" {
		log.WithField("prefix", "SESSION").Warn("No SB_SESSION_SECRET set, using an insecure development key for dashboard cookies.")
		key = "sports-bridge-dev-session-secret"
	}
	return key
}

// Attach stores userID in the session cookie.
func (m *Manager) Attach(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess, err := m.store.Get(r, SessionName)
	if err != nil && sess == nil {
		return err
	}
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// UserID reads the user attached to the request's cookie.
func (m *Manager) UserID(r *http.Request) (int64, error) {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		return 0, err
	}
	id, ok := sess.Values[userIDKey].(int64)
	if !ok || id == 0 {
		return 0, ErrNoSession
	}
	return id, nil
}

// Clear expires the cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, SessionName)
	if err != nil && sess == nil {
		return err
	}
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
