package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"focuslens/internal/config"
)

const userAgent = "FocusLens-Go/0.1.0"

// Service defines the notification surface exposed to the state machines.
type Service interface {
	NotifyExportCompleted(ctx context.Context, projectID, outputPath string, fallbackUsed bool) error
	NotifyExportFailed(ctx context.Context, projectID, reason string) error
	NotifyRecordingError(ctx context.Context, projectID, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When notifications are disabled or no topic is set, a noop implementation
// is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if !cfg.Notifications.Enabled || topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
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
}

func (n *ntfyService) NotifyExportCompleted(ctx context.Context, projectID, outputPath string, fallbackUsed bool) error {
	message := fmt.Sprintf("Export complete: %s\nFile: %s", strings.TrimSpace(projectID), strings.TrimSpace(outputPath))
	if fallbackUsed {
		message += "\nSoftware encoder fallback was used"
	}
	return n.send(ctx, payload{
		title:   "FocusLens - Export Complete",
		message: message,
		tags:    []string{"focuslens", "export", "completed"},
	})
}

func (n *ntfyService) NotifyExportFailed(ctx context.Context, projectID, reason string) error {
	return n.send(ctx, payload{
		title:    "FocusLens - Export Failed",
		message:  fmt.Sprintf("Export failed: %s\n%s", strings.TrimSpace(projectID), strings.TrimSpace(reason)),
		tags:     []string{"focuslens", "export", "error"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyRecordingError(ctx context.Context, projectID, reason string) error {
	return n.send(ctx, payload{
		title:    "FocusLens - Recording Error",
		message:  fmt.Sprintf("Recording error: %s\n%s", strings.TrimSpace(projectID), strings.TrimSpace(reason)),
		tags:     []string{"focuslens", "recording", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "FocusLens - Test",
		message:  "Notification system test",
		tags:     []string{"focuslens", "test"},
		priority: "low",
	})
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

func (noopService) NotifyExportCompleted(context.Context, string, string, bool) error { return nil }
func (noopService) NotifyExportFailed(context.Context, string, string) error          { return nil }
func (noopService) NotifyRecordingError(context.Context, string, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
