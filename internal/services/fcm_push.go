package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMPushSender delivers push notifications through Firebase Cloud
// Messaging. Satisfies PushSender.
type FCMPushSender struct {
	client *messaging.Client
}

func NewFCMPushSender(ctx context.Context, projectID, credentialsJSON string) (*FCMPushSender, error) {
	opts := []option.ClientOption{}
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("fcm: firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: messaging client: %w", err)
	}
	return &FCMPushSender{client: client}, nil
}

func (p *FCMPushSender) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("fcm push sender not configured")
	}

	_, err := p.client.Send(ctx, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	return err
}
