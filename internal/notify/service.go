package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mindcare/internal/config"
)

const userAgent = "MindCare-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyAppointmentReminder(ctx context.Context, patientName, fecha, hora string) error
	NotifyTranscriptionReady(ctx context.Context, patientName string) error
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

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		appointments:  cfg.Notifications.Appointments,
		transcription: cfg.Notifications.Transcription,
		errors:        cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	appointments  bool
	transcription bool
	errors        bool
}

func (n *ntfyService) NotifyAppointmentReminder(ctx context.Context, patientName, fecha, hora string) error {
	if !n.appointments {
		return nil
	}
	patientName = strings.TrimSpace(patientName)
	data := payload{
		title:   "MindCare - Cita",
		message: fmt.Sprintf("📅 Cita con %s el %s a las %s", patientName, fecha, hora),
		tags:    []string{"mindcare", "agenda", "reminder"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTranscriptionReady(ctx context.Context, patientName string) error {
	if !n.transcription {
		return nil
	}
	patientName = strings.TrimSpace(patientName)
	data := payload{
		title:   "MindCare - Transcripción",
		message: fmt.Sprintf("📝 Transcripción lista: %s", patientName),
		tags:    []string{"mindcare", "transcription", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" en ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("desconocido")
	}

	data := payload{
		title:    "MindCare - Error",
		message:  builder.String(),
		tags:     []string{"mindcare", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "MindCare - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"mindcare", "test"},
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

func (noopService) NotifyAppointmentReminder(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyTranscriptionReady(context.Context, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
