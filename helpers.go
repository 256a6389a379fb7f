package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/streadway/amqp"
)

// retry retries fn up to attempts times, waiting wait*(i+1) between tries.
func retry[T any](attempts int, wait time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i < attempts-1 {
			time.Sleep(wait * time.Duration(i+1))
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// --- File Download ---

func DownloadFromR2(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

// r2Fetcher reads resume objects from one R2 bucket.
type r2Fetcher struct {
	client *s3.Client
	bucket string
}

func newR2Fetcher(awsConfig aws.Config, accountID, bucket string) *r2Fetcher {
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})
	return &r2Fetcher{client: client, bucket: bucket}
}

func (f *r2Fetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	return DownloadFromR2(ctx, f.client, f.bucket, key)
}

// --- Session updates ---

const sessionUpdatesExchange = "session_updates"

// amqpPublisher publishes session status changes to the session_updates exchange.
type amqpPublisher struct {
	conn *amqp.Connection
}

func (p *amqpPublisher) Publish(sessionID string, update map[string]any) error {
	return publishSessionUpdate(p.conn, sessionID, update)
}

func publishSessionUpdate(rabbitConn *amqp.Connection, sessionID string, update map[string]any) error {
	ch, err := rabbitConn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal session update: %w", err)
	}

	return ch.Publish(
		sessionUpdatesExchange,
		sessionRoutingKey(sessionID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func sessionRoutingKey(sessionID string) string {
	return fmt.Sprintf("session.%s", sessionID)
}

func sessionUpdate(sessionID, status, message string) map[string]any {
	return map[string]any{
		"session_id": sessionID,
		"status":     status,
		"message":    message,
		"timestamp":  time.Now(),
	}
}
