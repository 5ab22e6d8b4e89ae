package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/configuration"
	"github.com/hackcelestial/sports-bridge/constants"
	sberrors "github.com/hackcelestial/sports-bridge/error"
	"github.com/hackcelestial/sports-bridge/metrics"
)

type ctxKey int

const userKey ctxKey = iota

// RequestIDHeader carries the id every request is logged under.
const RequestIDHeader = "X-Request-Id"

func withUser(r *http.Request, u *bridge.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userKey, u))
}

// userFrom returns the authenticated caller, or nil.
func userFrom(r *http.Request) *bridge.User {
	u, _ := r.Context().Value(userKey).(*bridge.User)
	return u
}

// identify resolves a Bearer token first, then the dashboard session cookie.
func (s *server) identify(r *http.Request) (*bridge.User, error) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return s.b.Accounts.Authenticate(r.Context(), strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
	}
	id, err := s.b.Sessions.UserID(r)
	if err != nil {
		return nil, err
	}
	return s.b.Accounts.User(r.Context(), id)
}

func (s *server) requireUser(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.identify(r)
		if err != nil || u == nil {
			if err == nil {
				err = errors.New("no user")
			}
			sberrors.HandleError(constants.MiddlewareTag, "Unauthorized", err, http.StatusUnauthorized, w, r)
			return
		}
		h(w, withUser(r, u))
	}
}

// optionalUser attaches the caller when credentials are present and valid.
func (s *server) optionalUser(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if u, err := s.identify(r); err == nil && u != nil {
			r = withUser(r, u)
		}
		h(w, r)
	}
}

// IsAuthenticated guards the operator API with the shared secret.
func (s *server) IsAuthenticated(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := s.b.Conf.Secret
		given := r.Header.Get("Authorization")
		if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			sberrors.HandleError(constants.AdminLogTag, "Authorization failed", errors.New("header mismatch"), http.StatusUnauthorized, w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(logrus.Fields{
					"prefix": constants.MiddlewareTag,
					"panic":  rec,
					"path":   r.URL.Path,
				}).Error("Recovered from panic\n", string(debug.Stack()))
				sberrors.HandleError(constants.MiddlewareTag, "Internal server error", errors.New("panic"), http.StatusInternalServerError, w, r)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every routed request. It must run inside the router so the
// route template is known.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			if u, err := uuid.NewV4(); err == nil {
				id = u.String()
			}
		}
		w.Header().Set(RequestIDHeader, id)

		rec := metrics.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		entry := log.WithFields(logrus.Fields{
			"prefix":   constants.HandlerLogTag,
			"id":       id,
			"method":   r.Method,
			"route":    metrics.RouteName(r),
			"status":   rec.Status,
			"duration": time.Since(start).String(),
		})
		if rec.Status >= http.StatusInternalServerError {
			entry.Warn("request")
		} else {
			entry.Debug("request")
		}
	})
}

// corsHandler allows the configured origins. With none configured only dev mode allows
// cross origin calls.
func corsHandler(conf configuration.CORS, devMode bool) *cors.Cors {
	allowed := map[string]bool{}
	for _, o := range conf.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin] || (devMode && len(allowed) == 0)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{RequestIDHeader},
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter is a token bucket per client address.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

func newIPLimiter(every rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		visitors: map[string]*visitor{},
		every:    every,
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, key)
		}
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *ipLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			sberrors.HandleError(constants.MiddlewareTag, "Too many requests", errors.New("rate limited"), http.StatusTooManyRequests, w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
