package services

import (
	"fmt"
	"net/smtp"
	"strings"

	log "github.com/sirupsen/logrus"
)

type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(host, port, user, pass, from string) *MailService {
	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	if !enabled {
		log.Warn("MailService disabled: Missing SMTP environment variables.")
	}

	return &MailService{
		Host:     host,
		Port:     port,
		Username: user,
		Password: pass,
		From:     from,
		Enabled:  enabled,
		send:     smtp.SendMail,
	}
}

func (s *MailService) buildMessage(to []string, subject, body string) []byte {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: snipshare <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		if err := s.send(addr, auth, s.From, to, s.buildMessage(to, subject, body)); err != nil {
			log.WithError(err).Errorf("Failed to send email to %v", to)
		} else {
			log.Infof("Email sent to %v: %s", to, subject)
		}
	}()
}

// SendActivationCode 注册后发送激活码
func (s *MailService) SendActivationCode(email, code string) {
	if !s.Enabled {
		log.WithField("email", email).Debug("mail disabled, activation code not sent")
		return
	}
	body := fmt.Sprintf("<p>Welcome to snipshare!</p><p>Your activation code is <b>%s</b>.</p>", code)
	s.sendAsync([]string{email}, "Activate your snipshare account", body)
}
