package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"supply-risk-alerts/internal/risk"
	"supply-risk-alerts/internal/storage"
)

type stubScores struct {
	metrics []string
	ranged  []storage.ScoredObservation
	latest  *storage.ScoredObservation

	gotMetric, gotStart, gotEnd string
	gotLimit                    int
}

func (s *stubScores) PutScore(context.Context, storage.ScoredObservation) error { return nil }

func (s *stubScores) QueryRange(_ context.Context, metric, start, end string, limit int) ([]storage.ScoredObservation, error) {
	s.gotMetric, s.gotStart, s.gotEnd, s.gotLimit = metric, start, end, limit
	return s.ranged, nil
}

func (s *stubScores) Latest(_ context.Context, metric string) (*storage.ScoredObservation, error) {
	s.gotMetric = metric
	return s.latest, nil
}

func (s *stubScores) ListMetrics(context.Context) ([]string, error) { return s.metrics, nil }

type stubRules struct {
	saved   []storage.AlertRule
	byUser  []storage.AlertRule
	deleted [][2]string
}

func (s *stubRules) SaveAlertRule(_ context.Context, rule storage.AlertRule) error {
	s.saved = append(s.saved, rule)
	return nil
}

func (s *stubRules) UserAlertRules(context.Context, string) ([]storage.AlertRule, error) {
	return s.byUser, nil
}

func (s *stubRules) RulesForMetric(context.Context, string) ([]storage.AlertRule, error) {
	return s.byUser, nil
}

func (s *stubRules) DeleteAlertRule(_ context.Context, userID, metric string) error {
	s.deleted = append(s.deleted, [2]string{userID, metric})
	return nil
}

func newTestServer(scores *stubScores, rules *stubRules) http.Handler {
	return New(scores, rules, nil, zerolog.Nop()).Router()
}

func TestHealthz(t *testing.T) {
	router := newTestServer(&stubScores{}, &stubRules{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestListMetrics(t *testing.T) {
	scores := &stubScores{metrics: []string{"freight_cost_index", "port_congestion_shanghai"}}
	router := newTestServer(scores, &stubRules{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Metrics []string `json:"metrics"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Metrics) != 2 {
		t.Fatalf("metrics = %v", body.Metrics)
	}
}

func TestQueryRangePassesBounds(t *testing.T) {
	scores := &stubScores{ranged: []storage.ScoredObservation{{Metric: "m", Timestamp: "2024-03-01T00:00:00Z"}}}
	router := newTestServer(scores, &stubRules{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/scores/m?start=2024-02-01&end=2024-03-01&limit=5", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if scores.gotMetric != "m" || scores.gotStart != "2024-02-01" || scores.gotEnd != "2024-03-01" || scores.gotLimit != 5 {
		t.Fatalf("store called with %q %q %q %d", scores.gotMetric, scores.gotStart, scores.gotEnd, scores.gotLimit)
	}
}

func TestQueryRangeDefaultsWindow(t *testing.T) {
	scores := &stubScores{}
	router := newTestServer(scores, &stubRules{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scores/m", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if scores.gotStart == "" || scores.gotEnd == "" || scores.gotStart >= scores.gotEnd {
		t.Fatalf("default range not applied: start %q end %q", scores.gotStart, scores.gotEnd)
	}
	if scores.gotLimit != 1000 {
		t.Fatalf("default limit = %d", scores.gotLimit)
	}
}

func TestLatestFound(t *testing.T) {
	scores := &stubScores{latest: &storage.ScoredObservation{
		Metric:    "m",
		Timestamp: "2024-03-01T00:00:00Z",
		RiskScore: 50,
		Severity:  risk.Warning,
	}}
	router := newTestServer(scores, &stubRules{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scores/m/latest", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"severity":"warning"`) {
		t.Fatalf("severity must serialize as its name: %s", rec.Body.String())
	}
}

func TestLatestNotFound(t *testing.T) {
	router := newTestServer(&stubScores{}, &stubRules{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scores/ghost/latest", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListRulesRequiresSelector(t *testing.T) {
	router := newTestServer(&stubScores{}, &stubRules{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSaveRule(t *testing.T) {
	rules := &stubRules{}
	router := newTestServer(&stubScores{}, rules)

	body := strings.NewReader(`{"user_id":"u-1","metric":"freight_cost_index","threshold":7.5,"enabled":true}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/rules", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(rules.saved) != 1 || rules.saved[0].Threshold != 7.5 {
		t.Fatalf("rule not saved: %+v", rules.saved)
	}
}

func TestSaveRuleValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing identity", `{"threshold":5}`},
		{"negative threshold", `{"user_id":"u","metric":"m","threshold":-1}`},
		{"unknown field", `{"user_id":"u","metric":"m","threshold":1,"nope":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestServer(&stubScores{}, &stubRules{})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/rules", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestDeleteRule(t *testing.T) {
	rules := &stubRules{}
	router := newTestServer(&stubScores{}, rules)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/rules/u-1/freight_cost_index", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(rules.deleted) != 1 || rules.deleted[0] != [2]string{"u-1", "freight_cost_index"} {
		t.Fatalf("delete not forwarded: %v", rules.deleted)
	}
}
