package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"meshstudio.org/internal/auth"
	"meshstudio.org/internal/obs"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	obs.Logger().SetOutput(&buf)
	t.Cleanup(func() { obs.Logger().SetOutput(os.Stdout) })
	return &buf
}

func TestLogEvent(t *testing.T) {
	buf := captureLog(t)

	ctx := WithRequestID(context.Background(), "req-123")
	session := auth.NewSession(&auth.Account{ID: "01ACC", Username: "admin"}, nil)
	ctx = auth.ContextWithSession(ctx, session)

	if err := LogEvent(ctx, "role.add", map[string]any{"role_id": "01ROLE"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit line is not JSON: %v", err)
	}
	if entry["type"] != "audit" || entry["event"] != "role.add" {
		t.Fatalf("entry = %v", entry)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("request_id = %v", entry["request_id"])
	}
	if entry["account_id"] != "01ACC" || entry["username"] != "admin" {
		t.Fatalf("actor fields = %v", entry)
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["role_id"] != "01ROLE" {
		t.Fatalf("fields = %v", entry["fields"])
	}
}

func TestLogEventAnonymous(t *testing.T) {
	buf := captureLog(t)

	if err := LogEvent(context.Background(), "system.initialize", nil); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit line is not JSON: %v", err)
	}
	if _, present := entry["account_id"]; present {
		t.Fatal("anonymous events must not carry an actor")
	}
	if _, present := entry["request_id"]; present {
		t.Fatal("missing request id must be omitted")
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("blank event name must be rejected")
	}
}
