package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

type EmailSink struct {
	config SmtpConfig
}

func NewEmailSink(config SmtpConfig) EmailSink {
	return EmailSink{config: config}
}

func (s EmailSink) Send(ctx context.Context, text string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Clan Tracker <%s>", s.config.EmailAddress)
	mail.To = s.config.To
	mail.Subject = "Clan rating report"
	mail.Text = []byte(text)

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}
