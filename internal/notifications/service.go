package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lenscap/internal/config"
)

const userAgent = "Lenscap/0.1.0"

// Service defines the notification surface exposed to commands.
type Service interface {
	NotifyBatchComplete(ctx context.Context, count int, duration time.Duration) error
	NotifyBatchPartial(ctx context.Context, succeeded, failed int) error
	NotifyAnalysisComplete(ctx context.Context, count int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
		uploads:  cfg.Notifications.Uploads,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	uploads  bool
	errors   bool
}

func (n *ntfyService) NotifyBatchComplete(ctx context.Context, count int, duration time.Duration) error {
	if !n.uploads {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	noun := "photos"
	if count == 1 {
		noun = "photo"
	}
	data := payload{
		title:   "Lenscap - Upload Complete",
		message: fmt.Sprintf("Uploaded %d %s in %s", count, noun, duration),
		tags:    []string{"lenscap", "upload", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchPartial(ctx context.Context, succeeded, failed int) error {
	if !n.uploads {
		return nil
	}
	data := payload{
		title:    "Lenscap - Upload Partially Failed",
		message:  fmt.Sprintf("Upload finished with errors: %d succeeded, %d failed", succeeded, failed),
		tags:     []string{"lenscap", "upload", "partial"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisComplete(ctx context.Context, count int) error {
	if !n.uploads {
		return nil
	}
	noun := "captions"
	if count == 1 {
		noun = "caption"
	}
	data := payload{
		title:   "Lenscap - Captions Ready",
		message: fmt.Sprintf("%d %s ready to view", count, noun),
		tags:    []string{"lenscap", "analysis", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Lenscap - Error",
		message:  builder.String(),
		tags:     []string{"lenscap", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Lenscap - Test",
		message:  "Notification system test",
		tags:     []string{"lenscap", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBatchComplete(context.Context, int, time.Duration) error { return nil }
func (noopService) NotifyBatchPartial(context.Context, int, int) error            { return nil }
func (noopService) NotifyAnalysisComplete(context.Context, int) error             { return nil }
func (noopService) NotifyError(context.Context, error, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
