package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"caresite/config"
	"caresite/models"
)

var contactTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New contact request</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .message { background: #f8f9fa; border-left: 3px solid #3498db; padding: 10px 15px; white-space: pre-wrap; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>New contact request</h2>
    </div>

    <div class="content">
        <p><strong>Name:</strong> {{.Name}}</p>
        <p><strong>Email:</strong> {{.Email}}</p>
        <div class="message">{{.Message}}</div>
    </div>

    <div class="footer">
        <p>Submitted via the website contact form.</p>
        <p>© {{.Year}} CareSite. All rights reserved.</p>
    </div>
</body>
</html>`))

// Mailer forwards contact-form submissions to the sales inbox over
// SMTP. Construct one with the loaded config and inject it where
// needed.
type Mailer struct {
	smtp  config.SMTPConfig
	inbox string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		smtp:  cfg.SMTP,
		inbox: cfg.ContactInbox,
	}
}

// Enabled reports whether forwarding is configured at all; with no
// inbox or SMTP host, submissions are only stored.
func (m *Mailer) Enabled() bool {
	return m.inbox != "" && m.smtp.Host != ""
}

func (m *Mailer) SendContactNotification(msg *models.ContactMessage) error {
	if !m.Enabled() {
		return fmt.Errorf("contact forwarding is not configured")
	}

	var body bytes.Buffer
	err := contactTemplate.Execute(&body, struct {
		Name, Email, Message string
		Year                 int
	}{
		Name:    msg.Name,
		Email:   msg.Email,
		Message: msg.Message,
		Year:    time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("error executing template: %v", err)
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", fmt.Sprintf("CareSite <%s>", m.smtp.From))
	mail.SetHeader("To", m.inbox)
	mail.SetHeader("Reply-To", msg.Email)
	mail.SetHeader("Subject", fmt.Sprintf("Contact request from %s", msg.Name))
	mail.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(m.smtp.Host, m.smtp.Port, m.smtp.Username, m.smtp.Password)
	if err := dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}
