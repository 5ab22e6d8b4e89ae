// Package dashboard renders the server side pages that sit in front of the REST API.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/constants"
	"github.com/hackcelestial/sports-bridge/feed"
	"github.com/hackcelestial/sports-bridge/invitations"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/session"
	"github.com/hackcelestial/sports-bridge/training"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	StaticPath    = "/static/"

	recentNotifications = 5
)

var log = logger.Get()
var dashboardLogger = log.WithField("prefix", constants.DashboardTag)

// UserLoader resolves the id stored in a session cookie.
type UserLoader interface {
	User(ctx context.Context, id int64) (*bridge.User, error)
}

type Handler struct {
	pages       *template.Template
	sessions    *session.Manager
	users       UserLoader
	feed        *feed.Service
	invitations *invitations.Service
	notify      *notify.Service
	training    *training.Service
	devMode     bool
}

type Deps struct {
	Sessions    *session.Manager
	Users       UserLoader
	Feed        *feed.Service
	Invitations *invitations.Service
	Notify      *notify.Service
	Training    *training.Service
	DevMode     bool
}

// Page is the data every dashboard template receives.
type Page struct {
	User          bridge.UserSummary
	Bio           string
	Role          string
	Unread        int64
	Notifications []*bridge.Notification
	Pending       []invitations.View
	Feed          *feed.Page
	Stats         *training.Stats
	PostTypes     []bridge.PostType
	Now           time.Time
}

type loginPage struct {
	DevMode bool
	Next    string
}

func New(d Deps) (*Handler, error) {
	pages, err := template.New("").Funcs(sprig.FuncMap()).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		pages:       pages,
		sessions:    d.Sessions,
		users:       d.Users,
		feed:        d.Feed,
		invitations: d.Invitations,
		notify:      d.Notify,
		training:    d.Training,
		devMode:     d.DevMode,
	}, nil
}

// Register mounts the login page, the dashboard pages and their static assets on r.
func (h *Handler) Register(r *mux.Router) {
	static, _ := fs.Sub(staticFiles, "static")
	r.PathPrefix(StaticPath).Handler(http.StripPrefix(StaticPath, http.FileServer(http.FS(static))))
	r.HandleFunc(LoginPath, h.HandleLogin).Methods(http.MethodGet)
	r.HandleFunc(DashboardPath, h.HandleDashboard).Methods(http.MethodGet)
	r.HandleFunc(DashboardPath+"/{role}", h.HandleRolePage).Methods(http.MethodGet)
}

func rolePath(u *bridge.User) string {
	return DashboardPath + "/" + u.Role.Lower()
}

// current returns the session user, or nil after redirecting to the login page.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) *bridge.User {
	id, err := h.sessions.UserID(r)
	if err == nil {
		u, loadErr := h.users.User(r.Context(), id)
		if loadErr == nil {
			return u
		}
		err = loadErr
	}
	dashboardLogger.WithError(err).Debug("No dashboard session, redirecting to login")
	http.Redirect(w, r, LoginPath, http.StatusFound)
	return nil
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.UserID(r); err == nil {
		http.Redirect(w, r, DashboardPath, http.StatusFound)
		return
	}
	h.render(w, "login.html", loginPage{DevMode: h.devMode, Next: DashboardPath})
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	u := h.current(w, r)
	if u == nil {
		return
	}
	http.Redirect(w, r, rolePath(u), http.StatusFound)
}

func (h *Handler) HandleRolePage(w http.ResponseWriter, r *http.Request) {
	u := h.current(w, r)
	if u == nil {
		return
	}
	if !strings.EqualFold(mux.Vars(r)["role"], string(u.Role)) {
		http.Redirect(w, r, rolePath(u), http.StatusFound)
		return
	}

	page, err := h.build(r.Context(), u)
	if err != nil {
		dashboardLogger.WithError(err).Error("Could not build dashboard")
		http.Error(w, "Could not load dashboard", http.StatusInternalServerError)
		return
	}
	h.render(w, "dashboard.html", page)
}

func (h *Handler) build(ctx context.Context, u *bridge.User) (*Page, error) {
	page := &Page{
		User:      u.Summary(),
		Bio:       u.Bio,
		Role:      u.Role.Lower(),
		Unread:    h.notify.UnreadCount(ctx, u.ID),
		PostTypes: bridge.PostTypes,
		Now:       time.Now(),
	}

	notes, httpErr := h.notify.List(ctx, u)
	if httpErr != nil {
		return nil, httpErr.Error
	}
	if len(notes) > recentNotifications {
		notes = notes[:recentNotifications]
	}
	page.Notifications = notes

	if page.Pending, httpErr = h.invitations.Pending(ctx, u); httpErr != nil {
		return nil, httpErr.Error
	}
	if page.Feed, httpErr = h.feed.Feed(ctx, u, 0, constants.DefaultPageLen); httpErr != nil {
		return nil, httpErr.Error
	}
	if u.Role == bridge.RoleAthlete {
		if page.Stats, httpErr = h.training.Stats(ctx, u); httpErr != nil {
			return nil, httpErr.Error
		}
	}
	return page, nil
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		dashboardLogger.WithFields(logrus.Fields{"template": name}).Error("Render failed: ", err)
		http.Error(w, "Could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
