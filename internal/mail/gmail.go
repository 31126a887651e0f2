package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/sirupsen/logrus"

	"job-applier-go/internal/config"
)

// GmailTransport sends through the Gmail API with an OAuth2 refresh token
type GmailTransport struct {
	service    *gmail.Service
	userEmail  string
	maxRetries int
	backoff    func(attempt int) time.Duration
}

// NewGmailTransport creates a Gmail API transport
func NewGmailTransport(ctx context.Context, cfg config.GmailConfig) (*GmailTransport, error) {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	tokenSource := oauth2Config.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return NewGmailTransportWithService(service, cfg.UserEmail, cfg.MaxRetries), nil
}

// NewGmailTransportWithService wraps an existing Gmail service
func NewGmailTransportWithService(service *gmail.Service, userEmail string, maxRetries int) *GmailTransport {
	if userEmail == "" {
		userEmail = "me"
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &GmailTransport{
		service:    service,
		userEmail:  userEmail,
		maxRetries: maxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
}

// Send uploads the raw message. Rate limit errors are retried with backoff,
// other errors fail immediately.
func (g *GmailTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	message := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(msg)}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		_, err := g.service.Users.Messages.Send(g.userEmail, message).Context(ctx).Do()
		if err == nil {
			return nil
		}

		lastErr = err
		logrus.Warnf("Failed to send email (attempt %d/%d): %v", attempt, g.maxRetries, err)

		if !strings.Contains(err.Error(), "quota") && !strings.Contains(err.Error(), "rate") {
			break
		}
		if attempt == g.maxRetries {
			break
		}

		waitTime := g.backoff(attempt)
		logrus.Infof("Rate limited, waiting %v before retry", waitTime)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return fmt.Errorf("failed to send email via Gmail: %w", lastErr)
}
