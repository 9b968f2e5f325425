package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUpdate = `{"update_id":10,"message":{"message_id":1,"date":1700000000,"chat":{"id":55,"type":"private"},"from":{"id":55,"is_bot":false,"first_name":"Ana"},"text":"daft punk"}}`

func post(t *testing.T, h http.Handler, body, secret string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEnqueuesUpdate(t *testing.T) {
	s := NewServer(ServerOptions{Webhook: true, Secret: "s3cret"})

	rec := post(t, s.Handler(), sampleUpdate, "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case update := <-s.Updates():
		assert.Equal(t, 10, update.UpdateID)
		require.NotNil(t, update.Message)
		assert.Equal(t, "daft punk", update.Message.Text)
		assert.Equal(t, int64(55), update.Message.Chat.ID)
	default:
		t.Fatal("expected update on channel")
	}
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	s := NewServer(ServerOptions{Webhook: true, Secret: "s3cret"})

	assert.Equal(t, http.StatusUnauthorized, post(t, s.Handler(), sampleUpdate, "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, s.Handler(), sampleUpdate, "").Code)
	assert.Len(t, s.Updates(), 0)
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	s := NewServer(ServerOptions{Webhook: true})
	assert.Equal(t, http.StatusBadRequest, post(t, s.Handler(), "{not json", "").Code)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("musifyyy_searches_total 1\n"))
	})
	s := NewServer(ServerOptions{Metrics: metrics})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "musifyyy_searches_total")

	// Webhook route is absent when not enabled.
	assert.Equal(t, http.StatusNotFound, post(t, s.Handler(), sampleUpdate, "").Code)
}
