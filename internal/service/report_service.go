package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"nauczsie/internal/models"
	"nauczsie/internal/validation"
)

// sesAPI is the subset of the SES client used to send reports
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// ReportService emails review summaries via Amazon SES
type ReportService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewReportService creates a new report service. An empty fromEmail
// yields a disabled service that logs and skips every send.
func NewReportService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*ReportService, error) {
	if fromEmail == "" {
		log.Println("Report service disabled: SES_FROM_EMAIL not configured")
		return &ReportService{enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing report service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Report service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newReportService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newReportService(client sesAPI, fromEmail, fromName, appBaseURL string, debug bool) *ReportService {
	return &ReportService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}
}

// IsEnabled returns whether the report service is enabled
func (s *ReportService) IsEnabled() bool {
	return s.enabled
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>Review complete</h1>
	<p>Hi {{.Name}},</p>
	<p>You reviewed {{.Summary.Total}} {{.Summary.TargetLanguage}} words and knew {{.Summary.Known}} ({{.Accuracy}}%).</p>
	{{if .Summary.UnknownCards}}
	<p>Words to practise again:</p>
	<ul>
	{{range .Summary.UnknownCards}}<li><strong>{{.Word}}</strong> - {{.Translation}}</li>
	{{end}}
	</ul>
	{{end}}
	<p><a href="{{.BaseURL}}/flashcards">Start another review</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from NauczSie. Please do not reply.</p>
</body>
</html>
`))

// SendReviewSummary emails the outcome of a completed flashcard review
func (s *ReportService) SendReviewSummary(ctx context.Context, user models.User, summary models.ReviewSummary) error {
	if s.debug {
		log.Printf("[DEBUG] SendReviewSummary called: to=%s, total=%d, known=%d", user.Email, summary.Total, summary.Known)
	}

	if !s.enabled {
		log.Printf("Skipping email send (service disabled): review summary to %s", user.Email)
		return nil
	}
	if err := validation.ValidateEmail(user.Email); err != nil {
		return fmt.Errorf("cannot email user %s: %w", user.ID, err)
	}

	name := user.DisplayName
	if name == "" {
		name = user.Email
	}
	accuracy := fmt.Sprintf("%.0f", summary.Accuracy())

	var html bytes.Buffer
	err := summaryTemplate.Execute(&html, map[string]any{
		"Name":     name,
		"Summary":  summary,
		"Accuracy": accuracy,
		"BaseURL":  s.appBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", name)
	fmt.Fprintf(&text, "You reviewed %d %s words and knew %d (%s%%).\n", summary.Total, summary.TargetLanguage, summary.Known, accuracy)
	if len(summary.UnknownCards) > 0 {
		text.WriteString("\nWords to practise again:\n")
		for _, card := range summary.UnknownCards {
			fmt.Fprintf(&text, "- %s: %s\n", card.Word, card.Translation)
		}
	}
	fmt.Fprintf(&text, "\nStart another review: %s/flashcards\n", s.appBaseURL)

	subject := fmt.Sprintf("Your %s review: %d/%d known", summary.TargetLanguage, summary.Known, summary.Total)
	return s.sendEmail(ctx, user.Email, subject, html.String(), text.String())
}

// sendEmail sends an email using Amazon SES
func (s *ReportService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
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
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		if s.debug {
			log.Printf("[DEBUG] SES SendEmail failed: %v", err)
		}
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
