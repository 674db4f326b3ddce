package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Relay request headers.
const (
	HeaderSignature = "X-SplitKar-Signature"
	HeaderTimestamp = "X-SplitKar-Timestamp"
)

const (
	relayClientTimeout         = 10 * time.Second
	relayDialTimeout           = 5 * time.Second
	relayTLSHandshakeTimeout   = 5 * time.Second
	relayResponseHeaderTimeout = 5 * time.Second
	magicLinkSubject           = "Your SplitKar sign-in link"
)

// MagicLinkMessage is a sign-in link addressed to one recipient.
type MagicLinkMessage struct {
	To        string
	Link      string
	ExpiresAt time.Time
}

// Mailer delivers magic links.
type Mailer interface {
	SendMagicLink(ctx context.Context, msg MagicLinkMessage) error
}

// LogMailer writes magic links to the log instead of sending them.
// Only suitable for development.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendMagicLink implements Mailer.
func (m *LogMailer) SendMagicLink(ctx context.Context, msg MagicLinkMessage) error {
	m.logger.InfoContext(ctx, "magic link (not delivered)",
		slog.String("to", msg.To),
		slog.String("link", msg.Link),
		slog.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}

// relayPayload is the JSON body posted to the mail relay.
type relayPayload struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RelayMailer posts signed messages to an HTTP mail relay.
type RelayMailer struct {
	url    string
	secret string
	client *http.Client
	now    func() time.Time
}

// NewRelayMailer creates a RelayMailer posting to url.
func NewRelayMailer(url, secret string) *RelayMailer {
	return &RelayMailer{
		url:    url,
		secret: secret,
		client: NewRelayHTTPClient(),
		now:    time.Now,
	}
}

// NewRelayHTTPClient creates an HTTP client for relay delivery.
// It has tight timeouts and does not follow redirects.
func NewRelayHTTPClient() *http.Client {
	return &http.Client{
		Timeout: relayClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   relayDialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   relayTLSHandshakeTimeout,
			ResponseHeaderTimeout: relayResponseHeaderTimeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// SendMagicLink implements Mailer.
func (m *RelayMailer) SendMagicLink(ctx context.Context, msg MagicLinkMessage) error {
	body, err := json.Marshal(relayPayload{
		To:        msg.To,
		Subject:   magicLinkSubject,
		Text:      "Sign in to SplitKar: " + msg.Link,
		Link:      msg.Link,
		ExpiresAt: msg.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}

	ts := m.now().Unix()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SplitKar-Mailer/1.0")
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSignature, Sign(m.secret, ts, body))

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay rejected message: status %d", resp.StatusCode)
	}
	return nil
}
