package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// CertificateIssuedEmailData holds data for the email sent after a certificate is issued.
type CertificateIssuedEmailData struct {
	Email       string
	FullName    string
	Description string
	URL         string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendCertificateIssued(ctx context.Context, data *CertificateIssuedEmailData) error
}
