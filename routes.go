package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/hackcelestial/sports-bridge/aiproxy"
	"github.com/hackcelestial/sports-bridge/constants"
	"github.com/hackcelestial/sports-bridge/initializer"
)

// auth endpoints allow a burst of 10 then one request every 2 seconds per client
const (
	authRate  = rate.Limit(0.5)
	authBurst = 10
)

func newServer(b *initializer.Bridge) *server {
	return &server{b: b, limiter: newIPLimiter(authRate, authBurst)}
}

// newRouter builds the full handler: routes, metrics, logging, CORS, tracing and panic recovery.
func newRouter(s *server) http.Handler {
	p := mux.NewRouter()
	p.Use(s.b.Metrics.Middleware, requestLogger)

	p.HandleFunc("/health", HandleHealthCheck).Methods(http.MethodGet)
	p.Handle("/metrics", s.b.Metrics.Handler()).Methods(http.MethodGet)
	if backend := s.b.Conf.Uploads.Backend; backend == "" || backend == "local" {
		prefix := s.b.Conf.Uploads.PublicPrefix
		if !strings.HasPrefix(prefix, "/") {
			prefix = constants.UploadsPath
		}
		p.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(s.b.Conf.Uploads.Dir))))
	}
	s.b.Dashboard.Register(p)

	authRoutes := p.PathPrefix("/api/auth").Subrouter()
	authRoutes.Use(s.limiter.Limit)
	authRoutes.HandleFunc("/signup", s.HandleSignup).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", s.HandleLogin).Methods(http.MethodPost)
	authRoutes.HandleFunc("/verify", s.HandleVerify).Methods(http.MethodPost)
	authRoutes.HandleFunc("/password-login", s.HandlePasswordLogin).Methods(http.MethodPost)
	authRoutes.HandleFunc("/set-password", s.requireUser(s.HandleSetPassword)).Methods(http.MethodPost)
	authRoutes.HandleFunc("/session-attach", s.requireUser(s.HandleSessionAttach)).Methods(http.MethodPost)
	authRoutes.HandleFunc("/logout", s.HandleLogout).Methods(http.MethodPost)
	authRoutes.HandleFunc("/dev/peek-otp", s.HandlePeekOTP).Methods(http.MethodGet)

	api := p.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users/me", s.requireUser(s.HandleMe)).Methods(http.MethodGet)
	api.HandleFunc("/users/me", s.requireUser(s.HandleUpdateMe)).Methods(http.MethodPut)
	api.HandleFunc("/users/me/avatar", s.requireUser(s.HandleAvatar)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id:[0-9]+}", s.optionalUser(s.HandleUser)).Methods(http.MethodGet)
	api.HandleFunc("/sports", s.HandleSports).Methods(http.MethodGet)

	api.HandleFunc("/posts", s.requireUser(s.HandleCreatePost)).Methods(http.MethodPost)
	api.HandleFunc("/posts/feed", s.optionalUser(s.HandleFeed)).Methods(http.MethodGet)
	api.HandleFunc("/posts/search", s.optionalUser(s.HandleSearchPosts)).Methods(http.MethodGet)
	api.HandleFunc("/posts/filter", s.optionalUser(s.HandleFilterPosts)).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}", s.optionalUser(s.HandleGetPost)).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}", s.requireUser(s.HandleDeletePost)).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id:[0-9]+}/like", s.requireUser(s.HandleLike)).Methods(http.MethodPost)
	api.HandleFunc("/search/global", s.optionalUser(s.HandleGlobalSearch)).Methods(http.MethodGet)

	api.HandleFunc("/invitations/send", s.requireUser(s.HandleSendInvitation)).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{id:[0-9]+}/respond", s.requireUser(s.HandleRespondInvitation)).Methods(http.MethodPut)
	api.HandleFunc("/invitations/{id:[0-9]+}/confirm", s.requireUser(s.HandleConfirmInvitation)).Methods(http.MethodPost)
	api.HandleFunc("/invitations/sent", s.requireUser(s.HandleSentInvitations)).Methods(http.MethodGet)
	api.HandleFunc("/invitations/received", s.requireUser(s.HandleReceivedInvitations)).Methods(http.MethodGet)
	api.HandleFunc("/invitations/pending", s.requireUser(s.HandlePendingInvitations)).Methods(http.MethodGet)

	api.HandleFunc("/coaching/my-coach", s.requireUser(s.HandleMyCoach)).Methods(http.MethodGet)
	api.HandleFunc("/coaching/my-athletes", s.requireUser(s.HandleMyAthletes)).Methods(http.MethodGet)
	api.HandleFunc("/coaching/coach/{id:[0-9]+}", s.optionalUser(s.HandleCoachProfile)).Methods(http.MethodGet)
	api.HandleFunc("/coaching/end", s.requireUser(s.HandleEndCoaching)).Methods(http.MethodPost)

	api.HandleFunc("/dailylogs", s.requireUser(s.HandleCreateLog)).Methods(http.MethodPost)
	api.HandleFunc("/dailylogs/my-logs", s.requireUser(s.HandleMyLogs)).Methods(http.MethodGet)
	api.HandleFunc("/dailylogs/today", s.requireUser(s.HandleTodayLogs)).Methods(http.MethodGet)
	api.HandleFunc("/dailylogs/stats", s.requireUser(s.HandleTrainingStats)).Methods(http.MethodGet)
	api.HandleFunc("/dailylogs/chart-data", s.requireUser(s.HandleChartData)).Methods(http.MethodGet)
	api.HandleFunc("/dailylogs/{id:[0-9]+}", s.requireUser(s.HandleDeleteLog)).Methods(http.MethodDelete)

	api.HandleFunc("/achievements", s.requireUser(s.HandleAddAchievement)).Methods(http.MethodPost)
	api.HandleFunc("/achievements/my", s.requireUser(s.HandleMyAchievements)).Methods(http.MethodGet)
	api.HandleFunc("/achievements/user/{id:[0-9]+}", s.optionalUser(s.HandleUserAchievements)).Methods(http.MethodGet)
	api.HandleFunc("/achievements/{id:[0-9]+}", s.requireUser(s.HandleDeleteAchievement)).Methods(http.MethodDelete)

	api.HandleFunc("/sponsorships", s.requireUser(s.HandleOffer)).Methods(http.MethodPost)
	api.HandleFunc("/sponsorships/{id:[0-9]+}/respond", s.requireUser(s.HandleRespondSponsorship)).Methods(http.MethodPut)
	api.HandleFunc("/sponsorships/athlete", s.requireUser(s.HandleAthleteSponsorships)).Methods(http.MethodGet)
	api.HandleFunc("/sponsorships/sponsor", s.requireUser(s.HandleSponsorSponsorships)).Methods(http.MethodGet)
	api.HandleFunc("/sponsorships/sponsor/export", s.requireUser(s.HandleExportSponsorships)).Methods(http.MethodGet)
	api.HandleFunc("/sponsorships/{id:[0-9]+}", s.requireUser(s.HandleGetSponsorship)).Methods(http.MethodGet)

	api.HandleFunc("/notifications", s.requireUser(s.HandleNotifications)).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", s.requireUser(s.HandleMarkAllRead)).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id:[0-9]+}/read", s.requireUser(s.HandleMarkRead)).Methods(http.MethodPost)

	api.HandleFunc("/chat/rooms", s.requireUser(s.HandleChatRooms)).Methods(http.MethodGet)
	api.HandleFunc("/chat/rooms/{roomId:[0-9]+}/messages", s.requireUser(s.HandleChatMessages)).Methods(http.MethodGet)
	api.HandleFunc("/chat/rooms/{roomId:[0-9]+}/messages", s.requireUser(s.HandleSendChatMessage)).Methods(http.MethodPost)

	api.HandleFunc("/reports", s.requireUser(s.HandleFileReport)).Methods(http.MethodPost)
	api.PathPrefix(strings.TrimPrefix(aiproxy.Prefix, "/api")).Handler(s.requireUser(s.HandleAI))

	admin := p.PathPrefix("/admin").Subrouter()
	admin.Use(s.IsAuthenticated)
	admin.HandleFunc("/reports", s.HandleListReports).Methods(http.MethodGet)
	admin.HandleFunc("/reports/{id:[0-9]+}/resolve", s.HandleResolveReport).Methods(http.MethodPut)
	admin.HandleFunc("/sports", s.HandleAddSport).Methods(http.MethodPost)
	admin.HandleFunc("/backup", s.HandleBackup).Methods(http.MethodPost)
	admin.HandleFunc("/invitations/cleanup", s.HandleCleanupInvitations).Methods(http.MethodPost)
	admin.HandleFunc("/stats", s.HandleStats).Methods(http.MethodGet)

	return otelhttp.NewHandler(recoverer(corsHandler(s.b.Conf.CORS, s.b.Conf.DevMode).Handler(p)), constants.ServiceName)
}
