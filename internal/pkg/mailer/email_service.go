package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWindDown(toEmail, cutoff string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendWindDown delivers the evening-cutoff notice. Best effort: the
// scheduler logs and moves on if SMTP is unreachable.
func (s *emailService) SendWindDown(toEmail, cutoff string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Evening wind-down")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Time to wind down</h2>
			<p>The evening cutoff (%s) has passed. New focus sessions are locked until tomorrow.</p>
			<p>Unfinished questionnaires can still be submitted.</p>
		</div>
	`, cutoff)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send wind-down mail to %s: %w", toEmail, err)
	}
	return nil
}
