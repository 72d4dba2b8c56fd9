package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Mailer sends transactional email. Delivery is best effort everywhere in
// this codebase: failures are logged and never surfaced to the caller.
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

type HTTPMailer struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewHTTPMailer(endpoint, apiKey, from string) *HTTPMailer {
	return &HTTPMailer{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		from:       from,
		httpClient: http.DefaultClient,
	}
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, text string) error {
	payload := map[string]string{
		"from":    m.from,
		"to":      to,
		"subject": subject,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("send mail: status %d: %s", resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	return nil
}

// SendAsync fires the mail off on its own goroutine. A nil mailer (not
// configured) is a no-op.
func SendAsync(mailer Mailer, to, subject, text string) {
	if mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mailer.Send(ctx, to, subject, text); err != nil {
			log.Printf("mailer: send to %s: %v", to, err)
		}
	}()
}
