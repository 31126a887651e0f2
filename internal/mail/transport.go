package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"

	"job-applier-go/internal/model"
)

// Transport delivers a raw MIME message
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// Archiver stores a copy of a sent message
type Archiver interface {
	Archive(ctx context.Context, msg []byte) error
}

// Sender builds and delivers application emails
type Sender struct {
	from      string
	transport Transport
	archiver  Archiver
	now       func() time.Time
}

// NewSender creates a sender. archiver may be nil.
func NewSender(from string, transport Transport, archiver Archiver) *Sender {
	return &Sender{from: from, transport: transport, archiver: archiver, now: time.Now}
}

// Send delivers email and reports whether the transport accepted it.
// Transport errors are returned to the caller.
func (s *Sender) Send(ctx context.Context, email *model.Email) (bool, error) {
	if email == nil || email.To == "" {
		return false, ErrNoRecipient
	}

	msg, err := BuildMessage(s.from, email, s.now())
	if err != nil {
		return false, err
	}

	envelope, err := gomail.ParseAddress(s.from)
	if err != nil {
		return false, fmt.Errorf("invalid sender address %q: %w", s.from, err)
	}

	if err := s.transport.Send(ctx, envelope.Address, []string{email.To}, msg); err != nil {
		return false, err
	}

	logrus.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
	}).Info("Application email sent")

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, msg); err != nil {
			logrus.WithError(err).Warn("Failed to archive sent email")
		}
	}
	return true, nil
}
