package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SendPulse delivers email through the SendPulse SMTP REST API using OAuth client credentials.
type SendPulse struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewSendPulse(baseURL, clientID, clientSecret string) *SendPulse {
	return &SendPulse{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type sendPulseAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendPulseEmail struct {
	Subject string             `json:"subject"`
	HTML    string             `json:"html"`
	From    sendPulseAddress   `json:"from"`
	To      []sendPulseAddress `json:"to"`
}

func (s *SendPulse) Send(ctx context.Context, m Message) error {
	to := make([]sendPulseAddress, 0, len(m.To))
	for _, a := range m.To {
		to = append(to, sendPulseAddress{Name: a.Name, Email: a.Email})
	}
	body, err := json.Marshal(map[string]sendPulseEmail{"email": {
		Subject: m.Subject,
		HTML:    base64.StdEncoding.EncodeToString([]byte(m.HTML)),
		From:    sendPulseAddress{Name: m.From.Name, Email: m.From.Email},
		To:      to,
	}})
	if err != nil {
		return err
	}

	status, err := s.post(ctx, body)
	if err == nil && status == http.StatusUnauthorized {
		// Token revoked before its advertised expiry.
		s.resetToken()
		status, err = s.post(ctx, body)
	}
	if err != nil {
		return err
	}
	if status >= 300 {
		return errors.Errorf("sendpulse: send email: http %d", status)
	}
	return nil
}

func (s *SendPulse) post(ctx context.Context, body []byte) (int, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/smtp/emails", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "sendpulse: send email")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (s *SendPulse) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	body, _ := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     s.clientID,
		"client_secret": s.clientSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "sendpulse: request token")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("sendpulse: request token: http %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", errors.Wrap(err, "sendpulse: decode token")
	}
	if tok.AccessToken == "" {
		return "", errors.New("sendpulse: empty access token")
	}
	s.token = tok.AccessToken
	// Refresh a minute early.
	s.expiresAt = s.now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return s.token, nil
}

func (s *SendPulse) resetToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}
