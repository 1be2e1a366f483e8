package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"nauczsie/internal/models"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestReportServiceDisabled(t *testing.T) {
	svc, err := NewReportService(context.Background(), "eu-central-1", "", "NauczSie", "http://localhost:5173", false)
	if err != nil {
		t.Fatalf("NewReportService() error = %v", err)
	}
	if svc.IsEnabled() {
		t.Fatal("service should be disabled without a from address")
	}
	if err := svc.SendReviewSummary(context.Background(), testUser, models.ReviewSummary{Total: 1}); err != nil {
		t.Errorf("disabled send should be a no-op, got %v", err)
	}
}

func TestReportServiceSendReviewSummary(t *testing.T) {
	ses := &fakeSES{}
	svc := newReportService(ses, "noreply@example.com", "NauczSie", "http://localhost:5173", true)

	summary := models.ReviewSummary{
		NativeLanguage: "pl",
		TargetLanguage: "es",
		Total:          4,
		Known:          3,
		UnknownCards:   []models.Flashcard{{Word: "perro", Translation: "pies"}},
	}
	user := models.User{ID: "user-1", Email: "ala@example.com", DisplayName: "Ala <Kot>"}

	if err := svc.SendReviewSummary(context.Background(), user, summary); err != nil {
		t.Fatalf("SendReviewSummary() error = %v", err)
	}
	if len(ses.inputs) != 1 {
		t.Fatalf("SendEmail calls = %d, want 1", len(ses.inputs))
	}

	input := ses.inputs[0]
	if got := aws.ToString(input.FromEmailAddress); got != "NauczSie <noreply@example.com>" {
		t.Errorf("from = %q", got)
	}
	if got := input.Destination.ToAddresses; len(got) != 1 || got[0] != "ala@example.com" {
		t.Errorf("to = %v", got)
	}
	if got := aws.ToString(input.Content.Simple.Subject.Data); got != "Your es review: 3/4 known" {
		t.Errorf("subject = %q", got)
	}

	html := aws.ToString(input.Content.Simple.Body.Html.Data)
	if !strings.Contains(html, "perro") || !strings.Contains(html, "75%") {
		t.Errorf("html body missing summary details: %s", html)
	}
	if strings.Contains(html, "<Kot>") {
		t.Error("display name must be escaped in html body")
	}
	text := aws.ToString(input.Content.Simple.Body.Text.Data)
	if !strings.Contains(text, "- perro: pies") {
		t.Errorf("text body = %s", text)
	}
}

func TestReportServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		user models.User
		err  error
	}{
		{name: "missing email", user: models.User{ID: "user-2"}},
		{name: "malformed email", user: models.User{ID: "user-3", Email: "not-an-email"}},
		{name: "ses failure", user: testUser, err: errors.New("throttled")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newReportService(&fakeSES{err: tt.err}, "noreply@example.com", "", "http://localhost:5173", false)
			if err := svc.SendReviewSummary(context.Background(), tt.user, models.ReviewSummary{Total: 1}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
