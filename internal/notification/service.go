// Package notification emails tariff-change notices to the configured
// recipients. Sending is best effort: an edit is never rolled back or
// blocked because a mail could not be delivered.
package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"strconv"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Config is the email transport configuration, read from the environment.
type Config struct {
	// Provider is "sendgrid" or "smtp"; empty disables notifications.
	Provider    string
	Host        string
	Port        int
	Username    string
	Password    string
	APIKey      string
	FromName    string
	FromAddress string
	// Recipients receive every tariff-change notice.
	Recipients []string
}

// FromEnv builds a Config from ECGBILL_MAIL_* environment variables.
func FromEnv() Config {
	port := 587
	if raw := os.Getenv("ECGBILL_MAIL_PORT"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			port = v
		}
	}
	var recipients []string
	for _, r := range strings.Split(os.Getenv("ECGBILL_MAIL_RECIPIENTS"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return Config{
		Provider:    os.Getenv("ECGBILL_MAIL_PROVIDER"),
		Host:        os.Getenv("ECGBILL_MAIL_HOST"),
		Port:        port,
		Username:    os.Getenv("ECGBILL_MAIL_USERNAME"),
		Password:    os.Getenv("ECGBILL_MAIL_PASSWORD"),
		APIKey:      os.Getenv("ECGBILL_MAIL_API_KEY"),
		FromName:    os.Getenv("ECGBILL_MAIL_FROM_NAME"),
		FromAddress: os.Getenv("ECGBILL_MAIL_FROM"),
		Recipients:  recipients,
	}
}

type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Enabled reports whether a transport and at least one recipient are
// configured.
func (s *Service) Enabled() bool {
	return s.cfg.Provider != "" && len(s.cfg.Recipients) > 0
}

// NotifyScheduleChange mails every recipient about a schedule edit. The
// first delivery error is returned; remaining recipients are still tried.
func (s *Service) NotifyScheduleChange(ctx context.Context, policy, summary string) error {
	if !s.Enabled() {
		return nil
	}

	subject := fmt.Sprintf("Tariff schedule changed (%s)", policy)
	body := fmt.Sprintf("The tariff schedule for policy %s was changed:\n\n%s\n", policy, summary)

	var firstErr error
	for _, to := range s.cfg.Recipients {
		var err error
		switch s.cfg.Provider {
		case "sendgrid":
			err = s.sendSendgrid(to, subject, body)
		case "smtp":
			err = s.sendSMTP(to, subject, body)
		default:
			err = fmt.Errorf("unknown mail provider: %s", s.cfg.Provider)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) sendSMTP(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", to, subject, body))

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{to}, msg)
}

func (s *Service) sendSendgrid(to, subject, body string) error {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromAddress)
	toEmail := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, toEmail, body, body)
	client := sendgrid.NewSendClient(s.cfg.APIKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
