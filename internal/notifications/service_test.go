package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"lightbox/internal/config"
	"lightbox/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()

	var mu sync.Mutex
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), requests...)
	}
}

func serviceFor(endpoint string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = endpoint
	return notifications.NewService(&cfg)
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	if err := svc.NotifyScanCompleted(ctx, "/library", 10, 2); err != nil {
		t.Fatalf("noop NotifyScanCompleted failed: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("noop TestNotification failed: %v", err)
	}
}

func TestNotifyJobFailedSendsHighPriority(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := serviceFor(server.URL)

	if err := svc.NotifyJobFailed(context.Background(), "image_processing", 8, 2); err != nil {
		t.Fatalf("NotifyJobFailed failed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].priority != "high" {
		t.Fatalf("expected high priority, got %q", got[0].priority)
	}
	if got[0].tags != "lightbox,job,failed" {
		t.Fatalf("unexpected tags %q", got[0].tags)
	}
}

func TestNotifyQueueDrained(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := serviceFor(server.URL)

	if err := svc.NotifyQueueDrained(context.Background(), 5, 0, 90*time.Second); err != nil {
		t.Fatalf("NotifyQueueDrained failed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].title != "Lightbox - Queue Complete" {
		t.Fatalf("unexpected title %q", got[0].title)
	}
	if got[0].body != "Queue drained: 5 jobs completed in 1m30s" {
		t.Fatalf("unexpected body %q", got[0].body)
	}
}

func TestNotifyErrorIncludesContextLabel(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := serviceFor(server.URL)

	if err := svc.NotifyError(context.Background(), errors.New("disk full"), "directory scan"); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].body != "Error with directory scan: disk full" {
		t.Fatalf("unexpected body %q", got[0].body)
	}
}

func TestDisabledCategoriesAreSilent(t *testing.T) {
	server, requests := newCaptureServer(t)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Scans = false
	cfg.Notifications.Jobs = false
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	if err := svc.NotifyScanCompleted(ctx, "/library", 10, 2); err != nil {
		t.Fatalf("NotifyScanCompleted failed: %v", err)
	}
	if err := svc.NotifyJobCompleted(ctx, "image_processing", 10); err != nil {
		t.Fatalf("NotifyJobCompleted failed: %v", err)
	}
	if got := requests(); len(got) != 0 {
		t.Fatalf("expected no requests for disabled categories, got %d", len(got))
	}
}

func TestSendReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	svc := serviceFor(server.URL)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
