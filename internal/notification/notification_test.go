package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/arihant-coaching/coaching_api/internal/logging"
)

func TestLoggerNotifierWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(logging.NewTo(&buf, "info"))

	err := n.Send(context.Background(), Message{
		Kind:        KindPaymentSuccess,
		Destination: "asha@x.com",
		Body:        "payment received",
		Data:        map[string]string{"payment_id": "pay_1"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["kind"] != KindPaymentSuccess || entry["payment_id"] != "pay_1" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNilLoggerNotifierIsNoop(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{Kind: KindOTP}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
