package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"supply-risk-alerts/internal/risk"
	"supply-risk-alerts/internal/storage"
)

func sampleNotification() Notification {
	return Notification{
		Metric:       "freight_cost_index",
		Timestamp:    "2024-03-01T00:00:00Z",
		Value:        110,
		MovingAvg30d: 100,
		PctChange:    10,
		RiskScore:    50,
		Severity:     risk.Warning,
		ThresholdPct: 5,
		UserID:       "u-1",
		Channels:     []string{"telegram"},
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("wrong chat_id: %#v", received)
	}
	if !strings.Contains(received["text"], "freight_cost_index") {
		t.Fatalf("message should name the metric: %q", received["text"])
	}
	if !strings.Contains(received["text"], "warning") {
		t.Fatalf("message should carry the severity: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("ok=false should fail")
	}
}

func TestTelegramNotifierHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("non-2xx should fail")
	}
}

func TestEvaluate(t *testing.T) {
	score := storage.ScoredObservation{
		Metric:    "port_congestion_shanghai",
		Timestamp: "2024-03-01T00:00:00Z",
		Value:     92,
		PctChange: -7.5,
		RiskScore: 40,
		Severity:  risk.Warning,
	}
	rules := []storage.AlertRule{
		{UserID: "u-low", Metric: score.Metric, Threshold: 5, Enabled: true},
		{UserID: "u-high", Metric: score.Metric, Threshold: 10, Enabled: true},
		{UserID: "u-off", Metric: score.Metric, Threshold: 1, Enabled: false},
	}

	fired := Evaluate(score, rules, []string{"telegram"})

	if len(fired) != 1 {
		t.Fatalf("want 1 fired rule, got %d", len(fired))
	}
	if fired[0].UserID != "u-low" {
		t.Fatalf("wrong rule fired: %+v", fired[0])
	}
	if fired[0].ThresholdPct != 5 {
		t.Fatalf("threshold not carried: %+v", fired[0])
	}
}

func TestEvaluateAbsoluteChange(t *testing.T) {
	// A drop fires the rule the same as a rise of equal magnitude.
	score := storage.ScoredObservation{Metric: "m", PctChange: -6}
	rules := []storage.AlertRule{{UserID: "u", Metric: "m", Threshold: 6, Enabled: true}}

	if fired := Evaluate(score, rules, nil); len(fired) != 1 {
		t.Fatalf("threshold reached exactly should fire, got %d", len(fired))
	}
}

func TestEvaluateNoRules(t *testing.T) {
	if fired := Evaluate(storage.ScoredObservation{PctChange: 99}, nil, nil); len(fired) != 0 {
		t.Fatalf("no rules should fire nothing, got %d", len(fired))
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
