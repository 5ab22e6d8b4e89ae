package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackcelestial/sports-bridge/configuration"
	"github.com/hackcelestial/sports-bridge/initializer"
)

const adminSecret = "admin-secret"

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

type testServer struct {
	srv     *server
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	conf := configuration.Defaults()
	conf.DevMode = true
	conf.Secret = adminSecret
	conf.Security.JWTSecret = "handler-test-jwt-secret"
	conf.Security.SessionSecret = "handler-test-session-secret-0123"
	conf.Storage.DSN = filepath.Join(t.TempDir(), "bridge.db")
	conf.Uploads.Dir = t.TempDir()
	conf.Seed.BackupDir = t.TempDir()

	b := &initializer.Bridge{Conf: conf}
	require.NoError(t, b.Start(ctx))
	t.Cleanup(func() { b.Close() })
	require.NoError(t, seedStore(ctx, b))

	s := newServer(b)
	return &testServer{srv: s, handler: newRouter(s)}
}

type call struct {
	method  string
	path    string
	body    interface{}
	token   string
	secret  string
	cookies []*http.Cookie
}

func (ts *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.secret != "" {
		req.Header.Set("Authorization", c.secret)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v))
	}
	return env
}

func (ts *testServer) login(t *testing.T, phone, password string) string {
	t.Helper()
	rec := ts.do(t, call{method: http.MethodPost, path: "/api/auth/password-login", body: map[string]string{"phone": phone, "password": password}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok struct {
		Token string `json:"token"`
	}
	decode(t, rec, &tok)
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func TestSignupVerifyAndProfile(t *testing.T) {
	ts := newTestServer(t)
	phone := "+919999999999"

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/auth/signup", body: map[string]string{
		"fullName": "Priya Runner", "role": "ATHLETE", "phone": phone, "aadhaar": "999999999999",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var started struct {
		Status string `json:"status"`
		TxID   string `json:"txId"`
	}
	decode(t, rec, &started)
	assert.Equal(t, "OTP_SENT", started.Status)
	assert.NotEmpty(t, started.TxID)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/auth/dev/peek-otp?phone=" + url.QueryEscape(phone)})
	var peek map[string]string
	decode(t, rec, &peek)
	require.Len(t, peek["otp"], 6)

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/auth/verify", body: map[string]string{"phone": phone, "otp": peek["otp"]}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok struct {
		Token string `json:"token"`
	}
	decode(t, rec, &tok)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/users/me", token: tok.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		User struct {
			FullName string `json:"fullName"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	decode(t, rec, &profile)
	assert.Equal(t, "Priya Runner", profile.User.FullName)
	assert.Equal(t, "ATHLETE", profile.User.Role)
}

func TestAuthErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		c    call
		code int
	}{
		{"no token", call{method: http.MethodGet, path: "/api/users/me"}, http.StatusUnauthorized},
		{"bad token", call{method: http.MethodGet, path: "/api/users/me", token: "nope"}, http.StatusUnauthorized},
		{"bad aadhaar", call{method: http.MethodPost, path: "/api/auth/signup", body: map[string]string{"phone": "+919999999999", "aadhaar": "12"}}, http.StatusBadRequest},
		{"wrong password", call{method: http.MethodPost, path: "/api/auth/password-login", body: map[string]string{"phone": "+911111111111", "password": "wrong"}}, http.StatusUnauthorized},
		{"unknown phone", call{method: http.MethodPost, path: "/api/auth/password-login", body: map[string]string{"phone": "+915555555555", "password": "whatever"}}, http.StatusNotFound},
		{"ai disabled", call{method: http.MethodGet, path: "/api/ai/chat", token: ts.login(t, "+911111111111", "athlete123")}, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, tc.c)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			env := decode(t, rec, nil)
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestPeekOTPOnlyInDevMode(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.b.Conf.DevMode = false
	rec := ts.do(t, call{method: http.MethodGet, path: "/api/auth/dev/peek-otp?phone=1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostsLikesAndInvitations(t *testing.T) {
	ts := newTestServer(t)
	coach := ts.login(t, "+912222222222", "coach123")
	athlete := ts.login(t, "+911111111111", "athlete123")

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/posts", token: coach, body: map[string]string{
		"title": "Sprint camp", "description": "Two week sprint block", "postType": "COACHING",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &post)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/posts/feed?page=0&size=5", token: athlete})
	var page struct {
		Items []struct {
			ID        int64 `json:"id"`
			LikedByMe bool  `json:"likedByMe"`
		} `json:"items"`
	}
	decode(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.False(t, page.Items[0].LikedByMe)

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/posts/" + itoa(post.ID) + "/like", token: athlete})
	var like struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"likeCount"`
	}
	decode(t, rec, &like)
	assert.True(t, like.Liked)
	assert.Equal(t, int64(1), like.LikeCount)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/posts/search?query=sprint"})
	var found []json.RawMessage
	decode(t, rec, &found)
	assert.Len(t, found, 1)

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/invitations/send", token: athlete, body: map[string]interface{}{"postId": post.ID, "message": "Coach me"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var inv struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &inv)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/invitations/pending", token: coach})
	var pending []json.RawMessage
	decode(t, rec, &pending)
	assert.Len(t, pending, 1)

	rec = ts.do(t, call{method: http.MethodPut, path: "/api/invitations/" + itoa(inv.ID) + "/respond?status=accept", token: coach})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Status            string `json:"status"`
		RedirectToProfile bool   `json:"redirectToProfile"`
		RoomID            int64  `json:"roomId"`
	}
	decode(t, rec, &res)
	assert.Equal(t, "ACCEPTED", res.Status)
	assert.NotZero(t, res.RoomID)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/coaching/my-coach", token: athlete})
	var mine struct {
		Current struct {
			Coach struct {
				Name string `json:"name"`
			} `json:"coach"`
		} `json:"currentCoach"`
	}
	decode(t, rec, &mine)
	assert.Equal(t, "Akshay Coach", mine.Current.Coach.Name)

	rec = ts.do(t, call{method: http.MethodPut, path: "/api/invitations/" + itoa(inv.ID) + "/respond", token: coach, body: map[string]string{"status": "DECLINED"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, call{method: http.MethodDelete, path: "/api/posts/" + itoa(post.ID), token: athlete})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTrainingEndpoints(t *testing.T) {
	ts := newTestServer(t)
	athlete := ts.login(t, "+911111111111", "athlete123")

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/dailylogs", token: athlete, body: map[string]interface{}{
		"trainingType": "Run", "trainingDurationMinutes": 45,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/dailylogs/stats", token: athlete})
	var stats struct {
		CurrentStreak int   `json:"currentStreak"`
		Total         int64 `json:"totalLifetimeDuration"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, int64(45), stats.Total)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/dailylogs/chart-data?days=3", token: athlete})
	var chart struct {
		DurationChart struct {
			Labels []string `json:"labels"`
		} `json:"durationChart"`
	}
	decode(t, rec, &chart)
	assert.Len(t, chart.DurationChart.Labels, 3)

	coach := ts.login(t, "+912222222222", "coach123")
	rec = ts.do(t, call{method: http.MethodGet, path: "/api/dailylogs/today", token: coach})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSponsorshipExport(t *testing.T) {
	ts := newTestServer(t)
	sponsor := ts.login(t, "+913333333333", "sponsor123")

	rec := ts.do(t, call{method: http.MethodGet, path: "/api/sponsorships/sponsor/export", token: sponsor})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "PK", rec.Body.String()[:2])
}

func TestSessionCookieFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "+911111111111", "athlete123")

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/auth/session-attach", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/users/me", cookies: cookies})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, call{method: http.MethodGet, path: "/dashboard", cookies: cookies})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard/athlete", rec.Header().Get("Location"))

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/auth/logout", cookies: cookies})
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, call{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = ts.do(t, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sportsbridge_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestChatRoutes(t *testing.T) {
	ts := newTestServer(t)
	coach := ts.login(t, "+912222222222", "coach123")
	athlete := ts.login(t, "+911111111111", "athlete123")
	sponsor := ts.login(t, "+913333333333", "sponsor123")

	rec := ts.do(t, call{method: http.MethodPost, path: "/api/posts", token: athlete, body: map[string]string{
		"title": "Looking for a coach", "postType": "COACHING",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &post)

	rec = ts.do(t, call{method: http.MethodPost, path: "/api/invitations/send", token: coach, body: map[string]interface{}{"postId": post.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var inv struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &inv)

	rec = ts.do(t, call{method: http.MethodPut, path: "/api/invitations/" + itoa(inv.ID) + "/respond?status=accept", token: athlete})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		RoomID int64 `json:"roomId"`
	}
	decode(t, rec, &res)
	require.NotZero(t, res.RoomID)
	messages := "/api/chat/rooms/" + itoa(res.RoomID) + "/messages"

	tests := []struct {
		name string
		c    call
		code int
	}{
		{"no user", call{method: http.MethodGet, path: messages}, http.StatusUnauthorized},
		{"unknown room", call{method: http.MethodGet, path: "/api/chat/rooms/9999/messages", token: coach}, http.StatusNotFound},
		{"outsider reads", call{method: http.MethodGet, path: messages, token: sponsor}, http.StatusForbidden},
		{"outsider writes", call{method: http.MethodPost, path: messages, token: sponsor, body: map[string]string{"content": "hi"}}, http.StatusForbidden},
		{"athlete first", call{method: http.MethodPost, path: messages, token: athlete, body: map[string]string{"content": "hi"}}, http.StatusForbidden},
		{"empty content", call{method: http.MethodPost, path: messages, token: coach, body: map[string]string{"content": " "}}, http.StatusBadRequest},
		{"coach opens", call{method: http.MethodPost, path: messages, token: coach, body: map[string]string{"content": "Welcome"}}, http.StatusOK},
		{"athlete replies", call{method: http.MethodPost, path: messages, token: athlete, body: map[string]string{"content": "Thanks"}}, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, tc.c)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}

	rec = ts.do(t, call{method: http.MethodGet, path: messages, token: athlete})
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []struct {
		Content string `json:"content"`
	}
	decode(t, rec, &msgs)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Welcome", msgs[0].Content)

	rec = ts.do(t, call{method: http.MethodGet, path: "/api/chat/rooms", token: coach})
	var rooms []struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &rooms)
	require.Len(t, rooms, 1)
	assert.Equal(t, res.RoomID, rooms[0].ID)
}
