package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type TwilioClient struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	HTTPClient *http.Client
	Endpoint   string
}

func NewTwilioClient(accountSID, authToken, fromNumber string) *TwilioClient {
	return &TwilioClient{
		AccountSID: strings.TrimSpace(accountSID),
		AuthToken:  strings.TrimSpace(authToken),
		FromNumber: strings.TrimSpace(fromNumber),
		Endpoint:   "https://api.twilio.com/2010-04-01",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendSMS delivers one notification SMS. Satisfies SMSSender.
func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) error {
	if c == nil {
		return fmt.Errorf("twilio client not configured")
	}
	if c.AccountSID == "" || c.AuthToken == "" {
		return fmt.Errorf("missing TWILIO_ACCOUNT_SID / TWILIO_AUTH_TOKEN")
	}
	if c.FromNumber == "" {
		return fmt.Errorf("missing TWILIO_FROM_NUMBER")
	}

	form := url.Values{}
	form.Set("To", strings.TrimSpace(to))
	form.Set("From", c.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.Endpoint, url.PathEscape(c.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Twilio returns 201 Created when the message is queued.
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("twilio message send http %d", resp.StatusCode)
	}
	return nil
}
