package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/pharm-courses/auth-service/internal/lib/sl"
)

// Mailer отправляет Message через TransportInterface, по одному соединению на письмо.
type Mailer struct {
	transport TransportInterface
	log       *slog.Logger
}

// NewMailer создает Mailer.
func NewMailer(transport TransportInterface, log *slog.Logger) *Mailer {
	return &Mailer{transport: transport, log: log}
}

// Send отправляет письмо. Ошибка любого шага SMTP-диалога возвращается вызывающему.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	const op = "smtp.Send"
	log := m.log.With(sl.Op(op))

	from := msg.From
	if from == "" {
		from = m.transport.GetSMTPUser()
	}

	client, err := m.transport.Connect(ctx)
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, addr := range msg.To {
		if err := client.Rcpt(addr); err != nil {
			log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = wc.Write([]byte(Compose(from, msg))); err != nil {
		log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = wc.Close(); err != nil {
		log.Error("failed to close Data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = client.Quit(); err != nil {
		log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email sent successfully", slog.Any("to", msg.To))
	return nil
}

// Compose собирает заголовки и HTML-тело письма.
// Тема кодируется по RFC 2047, так как содержит кириллицу.
func Compose(from string, msg Message) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + mime.QEncoding.Encode("UTF-8", msg.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		msg.HTML,
	}, "\r\n")
}
