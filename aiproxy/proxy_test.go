package aiproxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackcelestial/sports-bridge/bridge"
)

func TestForwardAddsIdentity(t *testing.T) {
	var got *http.Request
	var body string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"workflow":"athlete_summary"}`))
	}))
	defer upstream.Close()

	p, err := New(upstream.URL)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/run-workflow", strings.NewReader(`{"x":1}`))
	req.Header.Set(HeaderUserID, "999")
	req.Header.Set("Cookie", "_sportsbridge_session=abc")
	rec := httptest.NewRecorder()
	p.Forward(rec, req, &bridge.User{ID: 7, Role: bridge.RoleCoach})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "athlete_summary")
	require.NotNil(t, got)
	assert.Equal(t, "/run-workflow", got.URL.Path)
	assert.Equal(t, "7", got.Header.Get(HeaderUserID))
	assert.Equal(t, "COACH", got.Header.Get(HeaderUserRole))
	assert.Empty(t, got.Header.Get("Cookie"))
	assert.Equal(t, `{"x":1}`, body)
}

func TestForwardNotConfigured(t *testing.T) {
	p, err := New("")
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	rec := httptest.NewRecorder()
	p.Forward(rec, httptest.NewRequest(http.MethodGet, "/api/ai/results/1", nil), &bridge.User{ID: 1})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestForwardUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	p, err := New(url)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	p.Forward(rec, httptest.NewRequest(http.MethodGet, "/api/ai/sponsor-recommendations", nil), &bridge.User{ID: 1})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
