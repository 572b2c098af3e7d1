// Package webhook notifies an external endpoint about finished print jobs.
// Delivery is fire-and-forget with a small retry budget; the agent never
// blocks a print call on a webhook.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/printbridge/agent/internal/config"
	"github.com/printbridge/agent/internal/db"
)

type Event string

const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
)

type Payload struct {
	Event     Event        `json:"event"`
	Timestamp time.Time    `json:"timestamp"`
	Job       *db.PrintJob `json:"job"`
}

type Sender struct {
	url        string
	secret     []byte
	client     *http.Client
	retryCount int
	retryDelay time.Duration
	log        *zap.Logger
	wg         sync.WaitGroup
}

// NewSender returns nil when no webhook URL is configured; callers treat a
// nil sender as disabled.
func NewSender(cfg config.WebhookConfig, log *zap.Logger) *Sender {
	if cfg.URL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		url:        cfg.URL,
		secret:     []byte(cfg.Secret),
		client:     &http.Client{Timeout: timeout},
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
		log:        log,
	}
}

// SendJobEvent posts the event asynchronously and returns immediately.
func (s *Sender) SendJobEvent(event Event, job *db.PrintJob) {
	if s == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliver(&Payload{Event: event, Timestamp: time.Now().UTC(), Job: job})
	}()
}

// Flush waits for in-flight deliveries; used during shutdown.
func (s *Sender) Flush() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

func (s *Sender) deliver(p *Payload) {
	body, err := json.Marshal(p)
	if err != nil {
		s.log.Error("failed to marshal webhook payload", zap.Error(err))
		return
	}
	signature := s.sign(body)

	var lastErr error
	for attempt := 0; attempt <= s.retryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryDelay)
		}
		if lastErr = s.post(body, signature); lastErr == nil {
			return
		}
		s.log.Warn("webhook delivery failed",
			zap.String("event", string(p.Event)),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	s.log.Error("webhook delivery exhausted retries",
		zap.String("event", string(p.Event)),
		zap.Error(lastErr))
}

func (s *Sender) post(body []byte, signature string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Signature", signature)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (s *Sender) sign(body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
