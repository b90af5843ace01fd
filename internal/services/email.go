package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventcertificates/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendCertificateIssued sends the "certificate_issued" email with a link to the public certificate page.
func (s *emailService) SendCertificateIssued(ctx context.Context, data *domain.CertificateIssuedEmailData) error {
	if data == nil {
		return fmt.Errorf("certificate issued email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("certificate_issued", data)
	if err != nil {
		return fmt.Errorf("failed to render certificate_issued template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send certificate issued email: %w", err)
	}
	s.logger.InfoContext(ctx, "certificate issued email sent", "to", data.Email)
	return nil
}
