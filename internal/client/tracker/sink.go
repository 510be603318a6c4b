package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"thriftstore/internal/logger"
)

type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Source    string    `json:"source"`
}

type Sink interface {
	Record(ctx context.Context, s Sample) error
}

// LogSink writes every sample to the structured log.
type LogSink struct {
	entry *logrus.Entry
}

func NewLogSink() *LogSink {
	return &LogSink{entry: logger.Log.WithField("component", "location-tracker")}
}

func (l *LogSink) Record(_ context.Context, s Sample) error {
	l.entry.WithFields(logrus.Fields{
		"timestamp": s.Timestamp.Format(time.RFC3339),
		"latitude":  s.Latitude,
		"longitude": s.Longitude,
		"accuracy":  s.Accuracy,
		"source":    s.Source,
	}).Info("location sample")
	return nil
}

// TokenSource matches api.TokenSource.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ForwardingSink posts samples as JSON to an ingestion endpoint. The server
// does not expose one yet, so nothing constructs it by default.
type ForwardingSink struct {
	url    string
	http   *http.Client
	tokens TokenSource
}

func NewForwardingSink(url string, httpClient *http.Client, tokens TokenSource) *ForwardingSink {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ForwardingSink{url: url, http: httpClient, tokens: tokens}
}

func (f *ForwardingSink) Record(ctx context.Context, s Sample) error {
	body, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode sample")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build sample request")
	}
	req.Header.Set("Content-Type", "application/json")
	if f.tokens != nil {
		token, err := f.tokens.Token(ctx)
		if err != nil {
			return errors.Wrap(err, "load token")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "forward sample")
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sample endpoint returned %d", resp.StatusCode)
	}
	return nil
}
