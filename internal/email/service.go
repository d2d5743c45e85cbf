// Package email sends contact notifications via SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// NotifyTo receives the internal copy of every enquiry.
	NotifyTo string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
}

// NewService creates a new email service
func NewService(config Config) *Service {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)

	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != "" && s.config.Password != ""
}

func (s *Service) fromHeader() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	return s.config.From
}

// SendHTMLEmail sends an HTML email with a plain-text alternative
func (s *Service) SendHTMLEmail(to []string, subject, textBody, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}
	for _, addr := range to {
		if strings.ContainsAny(addr, "\r\n") {
			return fmt.Errorf("invalid recipient address")
		}
	}
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)

	boundary := "boundary-veas-site"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", s.fromHeader())
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", textBody)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return s.send(s.server, s.auth, s.config.From, to, msg.Bytes())
}

// Enquiry is the data shown in both contact emails.
type Enquiry struct {
	Name           string
	Company        string
	Email          string
	Telephone      string
	ProjectAddress string
	Message        string
	Consent        bool
	SubmittedAt    string
}

// NotifyEnquiry sends the internal notification and then the thank-you email
// to the sender. The first failure stops the sequence.
func (s *Service) NotifyEnquiry(ctx context.Context, enquiry Enquiry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	internal, err := renderTemplate(enquiryEmailTemplate, enquiry)
	if err != nil {
		return fmt.Errorf("render enquiry template: %w", err)
	}
	subject := "New Enquiry from " + enquiry.Name
	text := fmt.Sprintf("New enquiry from %s <%s>\r\n\r\n%s", enquiry.Name, enquiry.Email, enquiry.Message)
	if err := s.SendHTMLEmail([]string{s.config.NotifyTo}, subject, text, internal); err != nil {
		return fmt.Errorf("send enquiry notification: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	thanks, err := renderTemplate(thankYouEmailTemplate, enquiry)
	if err != nil {
		return fmt.Errorf("render thank-you template: %w", err)
	}
	text = fmt.Sprintf("Hi %s,\r\n\r\nThank you for contacting Veas Acoustics. We have received your enquiry and will be in touch shortly.", enquiry.Name)
	if err := s.SendHTMLEmail([]string{enquiry.Email}, "Thank you for contacting Veas Acoustics", text, thanks); err != nil {
		return fmt.Errorf("send thank-you email: %w", err)
	}
	return nil
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const enquiryEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New enquiry</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        th { text-align: left; padding-right: 16px; vertical-align: top; }
        .message { white-space: pre-wrap; background: #f6f6f6; padding: 12px; border-radius: 4px; }
    </style>
</head>
<body>
    <h2>New Contact Form Submission</h2>
    <table>
        <tr><th>Name</th><td>{{.Name}}</td></tr>
        <tr><th>Company</th><td>{{if .Company}}{{.Company}}{{else}}N/A{{end}}</td></tr>
        <tr><th>Email</th><td>{{.Email}}</td></tr>
        <tr><th>Telephone</th><td>{{if .Telephone}}{{.Telephone}}{{else}}N/A{{end}}</td></tr>
        <tr><th>Project address</th><td>{{if .ProjectAddress}}{{.ProjectAddress}}{{else}}N/A{{end}}</td></tr>
        <tr><th>GDPR consent</th><td>{{if .Consent}}Yes{{else}}No{{end}}</td></tr>
        <tr><th>Submitted</th><td>{{.SubmittedAt}}</td></tr>
    </table>
    <h3>Message</h3>
    <div class="message">{{.Message}}</div>
</body>
</html>`

const thankYouEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Thank you for contacting Veas Acoustics</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <h2>Thank you, {{.Name}}.</h2>

    <p>We have received your enquiry and one of our acoustic consultants will be in touch shortly.</p>

    <p>For reference, this is the message you sent us:</p>
    <blockquote>{{.Message}}</blockquote>

    <div class="footer">
        <p>Veas Acoustics</p>
    </div>
</body>
</html>`
