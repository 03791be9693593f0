// Package services отправляет письма подтверждения email новым пользователям.
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/pharm-courses/auth-service/internal/lib/sl"
	"github.com/pharm-courses/auth-service/internal/lib/smtp"
	"github.com/pharm-courses/auth-service/internal/models"
)

// VerificationSubject тема письма подтверждения.
const VerificationSubject = "Підтвердження електронної пошти — курси БПР ЖБФФК"

var verificationTemplate = template.Must(template.New("verification").Parse(`
<h1>Вітаємо!</h1>

<p>Ви отримали цей лист, оскільки реєструвалися на платформі курсів безперервного професійного розвитку (БПР)
Житомирського базового фармацевтичного фахового коледжу.</p>

<p>Щоб завершити реєстрацію та підтвердити свою електронну пошту, будь ласка, перейдіть за посиланням нижче:</p>

<p><a href="{{.URL}}">[Підтвердити електронну пошту]</a></p>

<p>Якщо ви не реєструвалися на нашому сайті, просто проігноруйте цей лист.</p>

<p>З повагою</p>
<p>Команда курсів БПР</p>
<p>Житомирський базовий фармацевтичний фаховий коледж</p>
`))

// Mailer отправляет одно письмо.
type Mailer interface {
	Send(ctx context.Context, msg smtp.Message) error
}

// SenderService формирует и отправляет письма подтверждения.
type SenderService struct {
	mailer  Mailer
	from    string
	timeout time.Duration
	log     *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
// timeout ограничивает одну отправку, 0 отключает ограничение.
func NewSenderService(mailer Mailer, from string, timeout time.Duration, log *slog.Logger) *SenderService {
	return &SenderService{
		mailer:  mailer,
		from:    from,
		timeout: timeout,
		log:     log,
	}
}

// VerificationEmail собирает письмо подтверждения для пользователя.
func VerificationEmail(from string, user models.User, url string) (smtp.Message, error) {
	const op = "sender.VerificationEmail"
	var body bytes.Buffer
	if err := verificationTemplate.Execute(&body, struct{ URL string }{URL: url}); err != nil {
		return smtp.Message{}, fmt.Errorf("%s: %w", op, err)
	}
	return smtp.Message{
		From:    from,
		To:      []string{user.Email},
		Subject: VerificationSubject,
		HTML:    body.String(),
	}, nil
}

// SendVerificationEmail отправляет ровно одно письмо со ссылкой url.
// Ошибка почтового провайдера возвращается вызывающему без повторов.
func (s *SenderService) SendVerificationEmail(ctx context.Context, user models.User, url string) error {
	const op = "sender.SendVerificationEmail"
	log := s.log.With(sl.Op(op), slog.String("user_id", user.ID))

	msg, err := VerificationEmail(s.from, user, url)
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Error("failed to send verification email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("verification email sent")
	return nil
}
