package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collab-service/internal/adapters/storage"
	"collab-service/internal/auth"
	"collab-service/internal/models"
	"collab-service/internal/presence"
	"collab-service/internal/rooms"
	"collab-service/internal/websocket"
	"collab-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubLimiter) CheckRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

type stubUploader struct {
	body []byte
}

func (s *stubUploader) Upload(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (storage.Attachment, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.Attachment{}, err
	}
	s.body = data
	return storage.Attachment{FileName: fileName, FileURL: "http://files.local/" + fileName}, nil
}

const testSecret = "test-secret"

func newTestRouter(opts ...func(*Deps)) (*Router, *presence.Registry) {
	log := logger.Discard()
	registry := presence.NewRegistry(log)
	hub := websocket.NewHub(registry, rooms.NewTracker(registry, log), log)

	deps := Deps{
		Hub:              hub,
		Registry:         registry,
		Identity:         auth.NewJWTProvider(testSecret),
		ConnectPerMinute: 5,
		Logger:           log,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	r := NewRouter(deps)
	r.SetupRoutes()
	return r, registry
}

func withLimiter(l *stubLimiter) func(*Deps) {
	return func(d *Deps) { d.RateLimiter = l }
}

func withUploader(u *stubUploader) func(*Deps) {
	return func(d *Deps) { d.Uploader = u }
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter()

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPresenceEndpoint(t *testing.T) {
	r, registry := newTestRouter()
	registry.MarkOnline("u1", "s1")

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/presence/u1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status models.UserStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.UserStatus{ID: "u1", Status: models.StatusOnline}, status)

	w = httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/presence/nobody", nil))
	assert.JSONEq(t, `{"id":"nobody","status":"offline"}`, w.Body.String())
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	r, _ := newTestRouter()

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=garbage", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocketConnectRateLimited(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	r, _ := newTestRouter(withLimiter(limiter))

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, limiter.calls)
}

func TestWebSocketLimiterFailureLetsRequestThrough(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	r, _ := newTestRouter(withLimiter(limiter))

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))

	// Reaches the upgrader, which refuses a plain GET.
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartUpload(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestAttachmentUpload(t *testing.T) {
	uploader := &stubUploader{}
	r, _ := newTestRouter(withUploader(uploader))
	token, err := auth.NewJWTProvider(testSecret).Issue("u1", time.Hour)
	require.NoError(t, err)

	body, contentType := multipartUpload(t, "hello")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attachments", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"fileName":"notes.txt","fileUrl":"http://files.local/notes.txt"}`, w.Body.String())
	assert.Equal(t, "hello", string(uploader.body))
}

func TestAttachmentUploadRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(withUploader(&stubUploader{}))

	body, contentType := multipartUpload(t, "hello")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attachments", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAttachmentUploadWithoutStorage(t *testing.T) {
	r, _ := newTestRouter()
	token, err := auth.NewJWTProvider(testSecret).Issue("u1", time.Hour)
	require.NoError(t, err)

	body, contentType := multipartUpload(t, "hello")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attachments", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
