package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// Mailer dispatches verification codes. Its result gates whether a
// registration is reported successful.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code, slug string) error
}

// ResendMailer sends through the Resend REST API.
type ResendMailer struct {
	apiKey  string
	from    string
	siteURL string
	client  *http.Client
}

func NewResendMailer(apiKey, from, siteURL string) *ResendMailer {
	return &ResendMailer{
		apiKey:  apiKey,
		from:    from,
		siteURL: siteURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (m *ResendMailer) SendVerificationCode(ctx context.Context, email, code, slug string) error {
	if m.apiKey == "" {
		return fmt.Errorf("resend api key not configured")
	}

	host := strings.TrimPrefix(strings.TrimPrefix(m.siteURL, "https://"), "http://")
	body := resendRequest{
		From:    m.from,
		To:      []string{email},
		Subject: "Verify your Clawding account",
		Text: strings.Join([]string{
			fmt.Sprintf("Your verification code for %s/%s is: %s", host, slug, code),
			"",
			"This code expires in 15 minutes.",
			"",
			"If you did not request this, you can ignore this email.",
			"",
			"— Clawding",
		}, "\n"),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}
	return nil
}
