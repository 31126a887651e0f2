package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"job-applier-go/internal/config"
)

// SMTPTransport sends through an SMTP server. Port 465 uses implicit TLS.
// Any other port upgrades with STARTTLS when the server offers it and stays
// plain otherwise. Connection setup is bounded by the configured timeout.
type SMTPTransport struct {
	addr     string
	host     string
	user     string
	password string
	ssl      bool
	timeout  time.Duration
}

// NewSMTPTransport creates an SMTP transport from the email settings
func NewSMTPTransport(cfg config.EmailConfig) *SMTPTransport {
	return &SMTPTransport{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:     cfg.Host,
		user:     cfg.User,
		password: cfg.Password,
		ssl:      cfg.UsesSSL(),
		timeout:  cfg.Timeout,
	}
}

func (t *SMTPTransport) dial(ctx context.Context) (*smtp.Client, error) {
	c, offersTLS, err := t.connect(ctx, false)
	if err != nil || t.ssl || !offersTLS {
		return c, err
	}

	// go-smtp only upgrades a fresh connection
	c.Close()
	c, _, err = t.connect(ctx, true)
	return c, err
}

func (t *SMTPTransport) connect(ctx context.Context, startTLS bool) (*smtp.Client, bool, error) {
	var (
		setupCtx context.Context
		cancel   context.CancelFunc
	)
	if t.timeout > 0 {
		setupCtx, cancel = context.WithTimeout(ctx, t.timeout)
	} else {
		setupCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(setupCtx, "tcp", t.addr)
	if err != nil {
		return nil, false, err
	}

	tlsConfig := &tls.Config{ServerName: t.host}
	if t.ssl {
		conn = tls.Client(conn, tlsConfig)
	}

	stop := context.AfterFunc(setupCtx, func() { conn.Close() })
	c, offersTLS, err := handshake(conn, tlsConfig, startTLS)
	if !stop() {
		if c != nil {
			c.Close()
		}
		return nil, false, fmt.Errorf("smtp handshake: %w", setupCtx.Err())
	}
	return c, offersTLS, err
}

func handshake(conn net.Conn, tlsConfig *tls.Config, startTLS bool) (*smtp.Client, bool, error) {
	if startTLS {
		c, err := smtp.NewClientStartTLS(conn, tlsConfig)
		return c, true, err
	}

	c := smtp.NewClient(conn)
	if err := c.Hello("localhost"); err != nil {
		c.Close()
		return nil, false, err
	}
	offersTLS, _ := c.Extension("STARTTLS")
	return c, offersTLS, nil
}

func (t *SMTPTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server %s: %w", t.addr, err)
	}
	defer c.Close()

	if t.timeout > 0 {
		c.CommandTimeout = t.timeout
		c.SubmissionTimeout = t.timeout
	}

	// abort the session when the caller gives up
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	if t.user != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.user, t.password)); err != nil {
			return fmt.Errorf("failed to authenticate with SMTP server: %w", err)
		}
	}

	if err := c.SendMail(from, to, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return c.Quit()
}
