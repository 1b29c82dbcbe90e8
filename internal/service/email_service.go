package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends parish office emails through Amazon SES.
// Without a sender address it is disabled and skips every send.
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
	logger     *zap.Logger
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, logger *zap.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{logger: logger, appBaseURL: appBaseURL}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", zap.String("from", fromEmail), zap.String("region", awsRegion))
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, logger), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string, logger *zap.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		logger:     logger,
	}
}

// SetDebug makes a disabled service log reset links instead of dropping them
func (s *EmailService) SetDebug(debug bool) {
	s.debug = debug
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

type emailData struct {
	Name string
	Link string
}

var (
	resetHTML = htmltemplate.Must(htmltemplate.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>Password reset</h1>
	<p>Hello {{.Name}},</p>
	<p>We received a request to reset the password of your parish office account.</p>
	<p><a href="{{.Link}}">Choose a new password</a></p>
	<p style="word-break: break-all; font-size: 12px; color: #666;">{{.Link}}</p>
	<p><strong>This link expires in 1 hour.</strong> If you did not ask for it, ignore this email.</p>
</body>
</html>`))

	resetText = texttemplate.Must(texttemplate.New("reset").Parse(`Hello {{.Name}},

We received a request to reset the password of your parish office account.

Choose a new password here:
{{.Link}}

This link expires in 1 hour. If you did not ask for it, ignore this email.
`))

	welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>Welcome to the parish office</h1>
	<p>Hello {{.Name}},</p>
	<p>Your account is ready. Sign in to manage registers, rosters and family registrations.</p>
	<p><a href="{{.Link}}">Sign in</a></p>
</body>
</html>`))

	welcomeText = texttemplate.Must(texttemplate.New("welcome").Parse(`Hello {{.Name}},

Your account is ready. Sign in to manage registers, rosters and family registrations:
{{.Link}}
`))
)

func render(html *htmltemplate.Template, text *texttemplate.Template, data emailData) (string, string, error) {
	var h, t bytes.Buffer
	if err := html.Execute(&h, data); err != nil {
		return "", "", err
	}
	if err := text.Execute(&t, data); err != nil {
		return "", "", err
	}
	return h.String(), t.String(), nil
}

// SendPasswordResetEmail sends a password reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, url.QueryEscape(resetToken))
	if !s.enabled {
		if s.debug {
			s.logger.Info("password reset link (email disabled)", zap.String("to", toEmail), zap.String("link", link))
			return nil
		}
		s.logger.Info("skipping password reset email (service disabled)", zap.String("to", toEmail))
		return nil
	}

	htmlBody, textBody, err := render(resetHTML, resetText, emailData{Name: toName, Link: link})
	if err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}
	return s.sendEmail(ctx, toEmail, "Reset your parish office password", htmlBody, textBody)
}

// SendWelcomeEmail greets a newly registered user
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		return nil
	}

	htmlBody, textBody, err := render(welcomeHTML, welcomeText, emailData{Name: toName, Link: s.appBaseURL + "/login"})
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	return s.sendEmail(ctx, toEmail, "Welcome to the parish office", htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.logger.Info("email sent",
		zap.String("to", toEmail),
		zap.String("subject", subject),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)
	return nil
}
