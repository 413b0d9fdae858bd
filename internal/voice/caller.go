package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shenikar/crisis_command_system/internal/config"
)

//go:generate mockgen -source=caller.go -destination=mocks/mock_caller.go -package=mocks

// Caller - интерфейс провайдера голосовых вызовов.
// callbackURL несёт crisis_id, по которому входной вебхук сопоставляется
// с нужным кризисом.
type Caller interface {
	PlaceCall(ctx context.Context, to, callbackURL string) (callSID string, err error)
}

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioCaller - реализация Caller поверх REST API Twilio
type TwilioCaller struct {
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewTwilioCaller создает новый TwilioCaller
func NewTwilioCaller(cfg *config.Config, logger *logrus.Logger) *TwilioCaller {
	return &TwilioCaller{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		fromNumber: cfg.TwilioFromNumber,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// PlaceCall инициирует исходящий вызов. Twilio запросит у callbackURL
// TwiML-сценарий разговора и вернёт туда нажатую клавишу.
func (c *TwilioCaller) PlaceCall(ctx context.Context, to, callbackURL string) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", fmt.Errorf("twilio credentials are not configured")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Url", callbackURL)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", twilioAPIBase, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create call request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to place call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read call response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, string(body))
	}

	var created struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to decode call response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"service":  "voice",
		"call_sid": created.SID,
	}).Info("Approval call placed")

	return created.SID, nil
}
