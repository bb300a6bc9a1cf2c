package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/Dosada05/event-portal/config"
)

// EmailKind - вид письма, определяет тему и шаблон.
type EmailKind string

const (
	EmailRegistrationConfirmed EmailKind = "registration_confirmed"
	EmailRegistrationPending   EmailKind = "registration_pending"
	EmailTeamRegistered        EmailKind = "team_registered"
	EmailSubmissionReceived    EmailKind = "submission_received"
)

// EmailSender - исходящая почта. Для workflow это best-effort шаг.
type EmailSender interface {
	SendEmail(ctx context.Context, kind EmailKind, to string, data interface{}) error
}

//go:embed templates/emails/*.html
var emailTemplatesFS embed.FS

var emailSubjects = map[EmailKind]string{
	EmailRegistrationConfirmed: "You're registered for %s",
	EmailRegistrationPending:   "Your registration for %s is being processed",
	EmailTeamRegistered:        "Team registration received for %s",
	EmailSubmissionReceived:    "Submission received for %s",
}

// RegistrationEmailData - данные для шаблонов писем о регистрации.
type RegistrationEmailData struct {
	FullName  string
	EventName string
	EventDate string
	Status    string
	TeamName  string
	Members   []string
	Link      string
}

type EmailService struct {
	cfg       *config.Config
	templates *template.Template
}

func NewEmailService(cfg *config.Config) (*EmailService, error) {
	t, err := template.ParseFS(emailTemplatesFS, "templates/emails/*.html")
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга шаблонов писем: %w", err)
	}
	return &EmailService{cfg: cfg, templates: t}, nil
}

// SendEmail формирует письмо по виду и отправляет его через SMTP.
func (s *EmailService) SendEmail(ctx context.Context, kind EmailKind, to string, data interface{}) error {
	subjectFormat, ok := emailSubjects[kind]
	if !ok {
		return fmt.Errorf("unknown email kind %q", kind)
	}
	eventName := ""
	if d, ok := data.(RegistrationEmailData); ok {
		eventName = d.EventName
	}

	body, err := s.GenerateEmailBody(string(kind)+".html", data)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.send([]string{to}, fmt.Sprintf(subjectFormat, eventName), body)
}

func (s *EmailService) GenerateEmailBody(templateName string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", templateName, err)
	}
	return body.String(), nil
}

func (s *EmailService) send(to []string, subject string, body string) error {
	msg := []byte("To: " + strings.Join(to, ", ") + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

// LogEmailSender используется, когда SMTP не настроен: письмо только логируется.
type LogEmailSender struct {
	Logger *slog.Logger
}

func (s LogEmailSender) SendEmail(_ context.Context, kind EmailKind, to string, _ interface{}) error {
	s.Logger.Info("email delivery disabled, skipping", slog.String("kind", string(kind)), slog.String("to", to))
	return nil
}
