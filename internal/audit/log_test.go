package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"legalthings.one/internal/iam"
	"legalthings.one/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	sess := &iam.Session{
		ID:   "sess-123",
		Date: time.Now().UTC(),
		User: &iam.User{ID: "user-42", Organization: &iam.Organization{ID: "org-1"}},
	}

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = iam.ContextWithSession(ctx, sess)

	if err := LogEvent(ctx, "audit.test", map[string]any{"foo": "bar"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "audit.test" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["session_id"] != "sess-123" {
		t.Fatalf("unexpected session id: %v", entry["session_id"])
	}
	if entry["user_id"] != "user-42" {
		t.Fatalf("unexpected user id: %v", entry["user_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["foo"] != "bar" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventAnonymousSession(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	sess := &iam.Session{
		ID:   "sess-guest",
		User: &iam.User{Organization: &iam.Organization{}},
	}
	ctx := iam.ContextWithSession(context.Background(), sess)

	if err := LogEvent(ctx, "audit.guest", nil); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["session_id"] != "sess-guest" {
		t.Fatalf("unexpected session id: %v", entry["session_id"])
	}
	if _, ok := entry["user_id"]; ok {
		t.Fatal("anonymous session must not report a user id")
	}
}
