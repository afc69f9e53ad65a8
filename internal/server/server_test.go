package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnaterm/internal/export"
	"fnaterm/internal/fna"
	"fnaterm/internal/render"
	"fnaterm/internal/storage"
)

const testKey = "anon-key"

type memSessions struct {
	list []fna.Session
	err  error
}

func (m memSessions) ListSessions(context.Context) ([]fna.Session, error) {
	return m.list, m.err
}

func (m memSessions) SessionByID(_ context.Context, id string) (fna.Session, error) {
	if m.err != nil {
		return fna.Session{}, m.err
	}
	for _, s := range m.list {
		if s.ID == id {
			return s, nil
		}
	}
	return fna.Session{}, storage.ErrNotFound
}

type failingRenderer struct{}

func (failingRenderer) Render(_ context.Context, id string) ([]byte, error) {
	return nil, &render.Error{ID: id, Err: errors.New("font missing")}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func sampleSessions() memSessions {
	return memSessions{list: []fna.Session{
		{ID: "s2", CreatedAt: time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC), HouseholdIncome: decimal.NewFromInt(120000), Dependents: 1},
		{ID: "s1", CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), HouseholdIncome: decimal.NewFromInt(85000), Dependents: 2},
	}}
}

func newTestServer(t *testing.T, sessions memSessions, r Renderer) *Server {
	t.Helper()
	if r == nil {
		r = render.New(sessions)
	}
	return New(Config{AnonKey: testKey, AuthURL: "/auth"}, sessions, r, nil, log.New(io.Discard, "", 0))
}

func token(t *testing.T) string {
	t.Helper()
	tok, err := IssueToken(testKey, "dana", time.Hour)
	require.NoError(t, err)
	return tok
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func authed(t *testing.T, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token(t))
	return req
}

func TestPDFEndpoint(t *testing.T) {
	s := newTestServer(t, sampleSessions(), nil)
	rec := do(s, authed(t, http.MethodGet, "/fna/abc123/pdf"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="fna-abc123.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotZero(t, rec.Body.Len())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestPDFRenderFailureSendsNoDocument(t *testing.T) {
	s := newTestServer(t, sampleSessions(), failingRenderer{})
	rec := do(s, authed(t, http.MethodGet, "/fna/abc123/pdf"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEqual(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.False(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestGuardRedirectsWithoutSession(t *testing.T) {
	s := newTestServer(t, sampleSessions(), nil)
	for _, target := range []string{"/dashboard", "/dashboard/s1", "/fna/abc123/pdf", "/export/sessions.xlsx"} {
		rec := do(s, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusFound, rec.Code, target)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/auth?next="), target)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusFound, do(s, req).Code)

	forged, err := IssueToken("other-key", "dana", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusFound, do(s, req).Code)
}

func TestGuardAcceptsCookie(t *testing.T) {
	s := newTestServer(t, sampleSessions(), nil)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token(t)})
	assert.Equal(t, http.StatusOK, do(s, req).Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	expired, err := IssueToken(testKey, "dana", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testKey, expired)
	assert.Error(t, err)
}

func TestDashboardListsNewestFirst(t *testing.T) {
	s := newTestServer(t, sampleSessions(), nil)
	rec := do(s, authed(t, http.MethodGet, "/dashboard"))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Signed in as dana")
	assert.Contains(t, body, "$85,000")
	assert.Contains(t, body, `href="/dashboard/s1"`)
	assert.Contains(t, body, "View / PDF")
	assert.Less(t, strings.Index(body, "/dashboard/s2"), strings.Index(body, "/dashboard/s1"))
}

func TestDashboardError(t *testing.T) {
	s := newTestServer(t, memSessions{err: errors.New("db down")}, nil)
	rec := do(s, authed(t, http.MethodGet, "/dashboard"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error loading sessions.")
}

func TestDashboardDetail(t *testing.T) {
	s := newTestServer(t, sampleSessions(), nil)
	rec := do(s, authed(t, http.MethodGet, "/dashboard/s1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/fna/s1/pdf"`)

	rec = do(s, authed(t, http.MethodGet, "/dashboard/missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportSessions(t *testing.T) {
	s := newTestServer(t, sampleSessions(), nil)
	rec := do(s, authed(t, http.MethodGet, "/export/sessions.xlsx"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestAuthEntryPoint(t *testing.T) {
	s := newTestServer(t, sampleSessions(), nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/auth?next=/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in required")

	rec = do(s, httptest.NewRequest(http.MethodGet, "/auth?next=/dashboard/s1&token="+token(t), nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard/s1", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookie+"=")

	rec = do(s, httptest.NewRequest(http.MethodGet, "/auth?next=//evil.example&token="+token(t), nil))
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = do(s, httptest.NewRequest(http.MethodGet, "/auth?token=junk", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, sampleSessions(), nil)
	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)

	do(s, authed(t, http.MethodGet, "/fna/abc123/pdf"))
	rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fna_pdf_renders_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `path="/fna/:id/pdf"`)
}

func TestSentryScopeIsPerRequest(t *testing.T) {
	var mu sync.Mutex
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
			return nil
		},
	})
	require.NoError(t, err)
	global := sentry.CurrentHub()
	global.BindClient(client)
	t.Cleanup(func() { global.BindClient(nil) })

	s := newTestServer(t, sampleSessions(), failingRenderer{})
	rec := do(s, authed(t, http.MethodGet, "/fna/abc123/pdf"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	global.CaptureMessage("outside any request")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	reqCtx, ok := events[0].Contexts["Request"]
	require.True(t, ok)
	assert.Equal(t, "/fna/abc123/pdf", reqCtx["URL"])
	assert.NotContains(t, events[1].Contexts, "Request")
}
