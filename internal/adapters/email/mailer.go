package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"eventcertificates/internal/domain"
)

const charset = "UTF-8"

// SESConfig holds the region and static credentials of the SES account.
type SESConfig struct {
	Region          string
	Endpoint        string // optional, e.g. a local SES emulator
	AccessKeyID     string
	SecretAccessKey string
}

// Sender identifies who certificate notifications come from.
type Sender struct {
	Address string
	Name    string
	// ReplyTo receives attendee replies, usually the organisers' contact address.
	ReplyTo string
}

// From formats the sender as an RFC 5322 address.
func (s Sender) From() string {
	if s.Name == "" {
		return s.Address
	}
	return (&mail.Address{Name: s.Name, Address: s.Address}).String()
}

// MailerConfig selects and configures a mailer.
type MailerConfig struct {
	Provider string // "ses" or "noop"
	Sender   Sender
	SES      SESConfig
}

// SESAPI is the subset of *ses.Client the mailer uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// NewMailer returns the Mailer named by config.Provider.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case "ses":
		if config.Sender.Address == "" {
			return nil, fmt.Errorf("ses mailer requires a from address")
		}
		return NewSESMailer(newSESClient(config.SES), config.Sender, logger), nil
	case "noop", "":
		return &noopMailer{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", config.Provider)
	}
}

func newSESClient(config SESConfig) *ses.Client {
	awsCfg := aws.Config{
		Region: config.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		),
	}
	return ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})
}

type sesMailer struct {
	client SESAPI
	sender Sender
	logger *slog.Logger
}

// NewSESMailer returns a Mailer sending through the given SES client.
func NewSESMailer(client SESAPI, sender Sender, logger *slog.Logger) domain.Mailer {
	return &sesMailer{client: client, sender: sender, logger: logger}
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	input := &ses.SendEmailInput{
		Source:      aws.String(s.sender.From()),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: content(subject),
			Body:    &types.Body{Html: content(html), Text: content(text)},
		},
	}
	if s.sender.ReplyTo != "" {
		input.ReplyToAddresses = []string{s.sender.ReplyTo}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	s.logger.InfoContext(ctx, "email sent", "provider", "ses", "message_id", aws.ToString(out.MessageId))
	return nil
}

// content returns nil for an empty part so SES omits it.
func content(data string) *types.Content {
	if data == "" {
		return nil
	}
	return &types.Content{Data: aws.String(data), Charset: aws.String(charset)}
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, to, subject, html, text string) error {
	n.logger.InfoContext(ctx, "email not sent, noop mailer", "to", to, "subject", subject)
	return nil
}
