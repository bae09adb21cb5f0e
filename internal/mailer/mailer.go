package mailer

import (
	"gopkg.in/gomail.v2"
)

// SMTPMailer sends owner notifications over plain SMTP.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	password string
}

func NewSMTPMailer(host string, port int, from, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		from:     from,
		password: password,
	}
}

// SendPropertyPublishedEmail tells the owner their property listing went live.
func (m *SMTPMailer) SendPropertyPublishedEmail(toEmail, propertyTitle string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Your Property Is Published")
	msg.SetBody("text/plain", "Your property '"+propertyTitle+"' has been published successfully.")

	d := gomail.NewDialer(m.host, m.port, m.from, m.password)
	return d.DialAndSend(msg)
}
