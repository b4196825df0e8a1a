package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coursemerge/internal/notifications"
	"coursemerge/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := notifications.NewService(cfg)
	if err := svc.NotifyMergeCompleted(context.Background(), 3, "/tmp/merged-1.zip"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNotifyMergeCompleted(t *testing.T) {
	server, got := captureServer(t)
	svc := notifications.NewService(testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL)))

	if err := svc.NotifyMergeCompleted(context.Background(), 4, "/out/merged-9.zip"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.title != "CourseMerge - Merge Complete" {
		t.Errorf("title = %q", got.title)
	}
	if !strings.Contains(got.body, "Merged 4 packages") || !strings.Contains(got.body, "/out/merged-9.zip") {
		t.Errorf("body = %q", got.body)
	}
	if got.tags != "coursemerge,merge,completed" {
		t.Errorf("tags = %q", got.tags)
	}
	if got.priority != "high" {
		t.Errorf("priority = %q", got.priority)
	}
}

func TestNotifyMergeFailed(t *testing.T) {
	server, got := captureServer(t)
	svc := notifications.NewService(testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL)))

	if err := svc.NotifyMergeFailed(context.Background(), errors.New("disk full")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(got.body, "disk full") {
		t.Errorf("body = %q", got.body)
	}
}

func TestNotifyDescriptionsCompleted(t *testing.T) {
	server, got := captureServer(t)
	svc := notifications.NewService(testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL)))

	if err := svc.NotifyDescriptionsCompleted(context.Background(), "session-1", 5); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(got.body, "5 descriptions") || !strings.Contains(got.body, "session-1") {
		t.Errorf("body = %q", got.body)
	}
}

func TestNotifyErrorOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	svc := notifications.NewService(testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL)))

	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}
