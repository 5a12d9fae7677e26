// Package sms abstracts the outbound SMS transport. The engine never talks to
// a provider directly: production wires an HTTP gateway, everything else gets
// the simulated sender, which is distinct from a delivery failure.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusSimulated Status = "simulated"
)

type Result struct {
	Status           Status
	ProviderResponse string
}

type Sender interface {
	Send(ctx context.Context, phoneE164, text string) (Result, error)
}

// SimulatedSender logs the message instead of sending it. Used when no
// gateway is configured, so non-production environments exercise the full
// commit/reminder paths without a provider.
type SimulatedSender struct {
	logger *zap.Logger
}

func NewSimulatedSender(logger *zap.Logger) *SimulatedSender {
	return &SimulatedSender{logger: logger}
}

func (s *SimulatedSender) Send(_ context.Context, phoneE164, text string) (Result, error) {
	s.logger.Info("simulated sms",
		zap.String("phone", phoneE164),
		zap.String("text", text),
	)
	return Result{Status: StatusSimulated, ProviderResponse: "simulated"}, nil
}

// GatewaySender posts the message to a generic JSON SMS gateway.
type GatewaySender struct {
	url    string
	token  string
	client *http.Client
}

func NewGatewaySender(url, token string) *GatewaySender {
	return &GatewaySender{url: url, token: token, client: &http.Client{}}
}

func (s *GatewaySender) Send(ctx context.Context, phoneE164, text string) (Result, error) {
	body, err := json.Marshal(map[string]string{"to": phoneE164, "message": text})
	if err != nil {
		return Result{Status: StatusFailed}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return Result{Status: StatusFailed}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{Status: StatusFailed}, fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	providerBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return Result{Status: StatusFailed, ProviderResponse: string(providerBody)},
			fmt.Errorf("sms gateway: status %d", resp.StatusCode)
	}
	return Result{Status: StatusSent, ProviderResponse: string(providerBody)}, nil
}

// TimeoutSender bounds every send. A timeout is a delivery failure, never an
// unknown state: the reminder scheduler's backoff handles it like any other
// transport error.
type TimeoutSender struct {
	next    Sender
	timeout time.Duration
}

func WithTimeout(next Sender, timeout time.Duration) *TimeoutSender {
	return &TimeoutSender{next: next, timeout: timeout}
}

func (s *TimeoutSender) Send(ctx context.Context, phoneE164, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.next.Send(ctx, phoneE164, text)
	if err != nil && ctx.Err() != nil {
		return Result{Status: StatusFailed, ProviderResponse: res.ProviderResponse},
			fmt.Errorf("sms send timed out after %s: %w", s.timeout, err)
	}
	return res, err
}
