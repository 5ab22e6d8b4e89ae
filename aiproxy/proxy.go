// Package aiproxy forwards authenticated requests to the AI workflow service.
package aiproxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/hackcelestial/sports-bridge/bridge"
	sberrors "github.com/hackcelestial/sports-bridge/error"
	logger "github.com/hackcelestial/sports-bridge/log"
)

var log = logger.Get()

const ProxyLogTag = "AI PROXY"

// Headers set on every forwarded request. Client supplied values are dropped.
const (
	HeaderUserID   = "X-SB-User-Id"
	HeaderUserRole = "X-SB-User-Role"
)

// Prefix is stripped from the incoming path before forwarding.
const Prefix = "/api/ai"

type Proxy struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
}

// New builds a proxy to baseURL. An empty baseURL gives a proxy that answers 503.
func New(baseURL string) (*Proxy, error) {
	p := &Proxy{}
	if strings.TrimSpace(baseURL) == "" {
		log.WithField("prefix", ProxyLogTag).Warning("No AI service configured, /api/ai is disabled")
		return p, nil
	}
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	p.target = target
	p.proxy = httputil.NewSingleHostReverseProxy(target)
	director := p.proxy.Director
	p.proxy.Director = func(r *http.Request) {
		director(r)
		r.Host = target.Host
	}
	p.proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		sberrors.HandleError(ProxyLogTag, "AI service unavailable", err, http.StatusBadGateway, w, r)
	}
	return p, nil
}

func (p *Proxy) Enabled() bool {
	return p != nil && p.proxy != nil
}

// Forward sends r on behalf of u.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request, u *bridge.User) {
	if !p.Enabled() {
		sberrors.HandleError(ProxyLogTag, "AI service is not configured", nil, http.StatusServiceUnavailable, w, r)
		return
	}
	out := r.Clone(r.Context())
	out.URL.Path = strings.TrimPrefix(r.URL.Path, Prefix)
	if out.URL.Path == "" {
		out.URL.Path = "/"
	}
	out.URL.RawPath = ""
	out.Header.Del("Cookie")
	out.Header.Set(HeaderUserID, strconv.FormatInt(u.ID, 10))
	out.Header.Set(HeaderUserRole, string(u.Role))
	log.WithField("prefix", ProxyLogTag).Debugf("Forwarding %s %s for user %d", r.Method, out.URL.Path, u.ID)
	p.proxy.ServeHTTP(w, out)
}
