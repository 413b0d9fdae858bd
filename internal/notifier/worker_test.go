package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/crisis_command_system/internal/config"
	"github.com/shenikar/crisis_command_system/internal/models"
)

func newTestWorker(cfg *config.Config) *Worker {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return NewWorker(nil, logger, cfg)
}

func testNotification() (DispatchNotification, string) {
	notification := DispatchNotification{
		CrisisID:     uuid.New(),
		Units:        []models.Unit{{Category: "Fire", Callsign: "Fire-1", ETAMinutes: 6}},
		DispatchedAt: time.Now().UTC(),
	}
	raw, _ := json.Marshal(notification)
	return notification, string(raw)
}

func TestDeliver_SignsPayloadWithHMAC(t *testing.T) {
	var gotSignature string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		WebhookURL:        server.URL,
		WebhookSecret:     "test-secret",
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	}
	worker := newTestWorker(cfg)

	notification, raw := testNotification()
	worker.deliver(context.Background(), notification, raw)

	require.NotEmpty(t, gotSignature)
	assert.Equal(t, raw, string(gotBody))

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte(raw))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)
}

func TestDeliver_RetriesOnServerError(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		WebhookURL:        server.URL,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	}
	worker := newTestWorker(cfg)

	notification, raw := testNotification()
	worker.deliver(context.Background(), notification, raw)

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestDeliver_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := &config.Config{
		WebhookURL:        server.URL,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 2,
		WebhookBaseDelay:  time.Millisecond,
	}
	worker := newTestWorker(cfg)

	notification, raw := testNotification()
	worker.deliver(context.Background(), notification, raw)

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestDeliver_SkipsWhenWebhookNotConfigured(t *testing.T) {
	cfg := &config.Config{
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	}
	worker := newTestWorker(cfg)

	notification, raw := testNotification()
	// Не должно паниковать и делать исходящих запросов
	worker.deliver(context.Background(), notification, raw)
}

func TestGenerateHMACSHA256(t *testing.T) {
	signature := generateHMACSHA256("payload", "secret")

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("payload"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signature)
}
