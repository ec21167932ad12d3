package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/astroveda/astro-backend/internal/models"
)

// Notifier delivers a one-time code over a user's contact channel.
type Notifier interface {
	SendOTP(ctx context.Context, user *models.User, code string) error
}

// TwilioNotifier sends OTP codes over SMS.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioNotifier creates a Twilio SMS notifier from environment credentials.
func NewTwilioNotifier() (*TwilioNotifier, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_SMS_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioNotifier{client: client, from: from}, nil
}

func (t *TwilioNotifier) SendOTP(ctx context.Context, user *models.User, code string) error {
	if user.Phone == nil || *user.Phone == "" {
		return fmt.Errorf("user %d has no phone number", user.ID)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(*user.Phone)
	params.SetBody(fmt.Sprintf("Your Astro verification code is %s. It is valid for 10 minutes.", code))

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	return nil
}

// EmailNotifier sends OTP codes over SMTP.
type EmailNotifier struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewEmailNotifier creates an SMTP notifier from environment credentials.
func NewEmailNotifier() (*EmailNotifier, error) {
	n := &EmailNotifier{
		host: os.Getenv("SMTP_HOST"),
		port: os.Getenv("SMTP_PORT"),
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASSWORD"),
		from: os.Getenv("SMTP_FROM"),
	}
	if n.host == "" || n.port == "" || n.user == "" {
		return nil, fmt.Errorf("missing SMTP credentials in environment variables")
	}
	if n.from == "" {
		n.from = n.user
	}
	return n, nil
}

func (e *EmailNotifier) SendOTP(ctx context.Context, user *models.User, code string) error {
	if user.Email == nil || *user.Email == "" {
		return fmt.Errorf("user %d has no email address", user.ID)
	}

	body := fmt.Sprintf(`<div style="padding: 20px;">
  <h1>Verification code</h1>
  <p>Please use the verification code below to sign in.</p>
  <p><strong style="font-size: 130%%">%s</strong></p>
  <p>If you didn't request this, you can ignore this email.</p>
  <p>Thanks,<br>The Astro team</p>
</div>`, code)

	msg := []byte(
		"From: " + e.from + "\r\n" +
			"To: " + *user.Email + "\r\n" +
			"Subject: Login OTP\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body + "\r\n")

	addr := fmt.Sprintf("%s:%s", e.host, e.port)
	auth := smtp.PlainAuth("", e.user, e.pass, e.host)
	if err := smtp.SendMail(addr, auth, e.from, []string{*user.Email}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// ChannelNotifier routes a code to email when the user has one,
// otherwise to SMS. Either side may be nil when unconfigured.
type ChannelNotifier struct {
	Email Notifier
	SMS   Notifier
}

func (n *ChannelNotifier) SendOTP(ctx context.Context, user *models.User, code string) error {
	if user.Email != nil && *user.Email != "" && n.Email != nil {
		return n.Email.SendOTP(ctx, user, code)
	}
	if user.Phone != nil && *user.Phone != "" && n.SMS != nil {
		return n.SMS.SendOTP(ctx, user, code)
	}
	return fmt.Errorf("no deliverable contact channel for user %d", user.ID)
}

// LogNotifier writes codes to the process log. Development only.
type LogNotifier struct{}

func (LogNotifier) SendOTP(ctx context.Context, user *models.User, code string) error {
	log.Printf("OTP for user %s: %s", user.Contact(), code)
	return nil
}
