package mail

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	gomail "github.com/emersion/go-message/mail"

	"job-applier-go/internal/model"
)

// BuildMessage renders email as a MIME message with its files attached
func BuildMessage(from string, email *model.Email, date time.Time) ([]byte, error) {
	var h gomail.Header
	h.SetDate(date)
	h.SetSubject(email.Subject)

	fromAddr, err := gomail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	h.SetAddressList("From", []*gomail.Address{fromAddr})

	toAddr, err := gomail.ParseAddress(email.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", email.To, err)
	}
	h.SetAddressList("To", []*gomail.Address{toAddr})

	var buf bytes.Buffer
	mw, err := gomail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	if err := writeBody(mw, email.Body); err != nil {
		return nil, err
	}

	for _, path := range email.Attachments {
		if err := writeAttachment(mw, path); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBody(mw *gomail.Writer, body string) error {
	tw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("failed to create inline part: %w", err)
	}

	var th gomail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return tw.Close()
}

func writeAttachment(mw *gomail.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read attachment: %w", err)
	}

	mediaType, params := "application/octet-stream", map[string]string(nil)
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		if mt, p, err := mime.ParseMediaType(t); err == nil {
			mediaType, params = mt, p
		}
	}

	var ah gomail.AttachmentHeader
	ah.SetContentType(mediaType, params)
	ah.SetFilename(filepath.Base(path))

	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}
