package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"job-applier-go/internal/config"
)

// IMAPArchiver appends sent applications to a mailbox, usually Sent
type IMAPArchiver struct {
	addr     string
	host     string
	user     string
	password string
	mailbox  string
	timeout  time.Duration
}

// NewIMAPArchiver creates an archiver from the IMAP settings
func NewIMAPArchiver(cfg config.IMAPConfig, timeout time.Duration) *IMAPArchiver {
	return &IMAPArchiver{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:     cfg.Host,
		user:     cfg.User,
		password: cfg.Password,
		mailbox:  cfg.Mailbox,
		timeout:  timeout,
	}
}

func (a *IMAPArchiver) connect() (*client.Client, error) {
	_, port, _ := net.SplitHostPort(a.addr)
	if port == "993" {
		return client.DialTLS(a.addr, &tls.Config{ServerName: a.host})
	}

	c, err := client.Dial(a.addr)
	if err != nil {
		return nil, err
	}
	if ok, _ := c.SupportStartTLS(); ok {
		if err := c.StartTLS(&tls.Config{ServerName: a.host}); err != nil {
			c.Logout()
			return nil, err
		}
	}
	return c, nil
}

// Archive stores msg in the mailbox flagged as seen
func (a *IMAPArchiver) Archive(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := a.connect()
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if a.timeout > 0 {
		c.Timeout = a.timeout
	}

	if err := c.Login(a.user, a.password); err != nil {
		return fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	if err := c.Append(a.mailbox, []string{imap.SeenFlag}, time.Now(), bytes.NewBuffer(msg)); err != nil {
		return fmt.Errorf("failed to append to %s: %w", a.mailbox, err)
	}
	return nil
}
