package parser

import (
	"errors"
	"math"
	"testing"
)

func TestParseIndicatorSeries(t *testing.T) {
	payload := []byte(`{
		"series_id": "inflation_rate_cpi",
		"data": [
			{"date": "2024-02-01", "value": 310.2},
			{"date": "2024-03-01", "value": 312.3}
		]
	}`)

	rec, err := ParseIndicator(payload)
	if err != nil {
		t.Fatalf("ParseIndicator failed: %v", err)
	}
	if rec.Metric != "inflation_rate_cpi" {
		t.Fatalf("metric = %q", rec.Metric)
	}
	if rec.Value != 312.3 {
		t.Fatalf("value = %v, want most recent entry", rec.Value)
	}
	if rec.Timestamp != "2024-03-01" {
		t.Fatalf("timestamp = %q", rec.Timestamp)
	}
	if rec.Source != "fred" {
		t.Fatalf("source = %q", rec.Source)
	}
}

func TestParseIndicatorSeriesDefaultsMetric(t *testing.T) {
	payload := []byte(`{"data": [{"date": "2024-03-01", "value": "312.3"}]}`)

	rec, err := ParseIndicator(payload)
	if err != nil {
		t.Fatalf("ParseIndicator failed: %v", err)
	}
	if rec.Metric != "inflation_rate_cpi" {
		t.Fatalf("metric = %q, want default series id", rec.Metric)
	}
	if rec.Value != 312.3 {
		t.Fatalf("string value should coerce, got %v", rec.Value)
	}
}

func TestParseIndicatorSimplified(t *testing.T) {
	payload := []byte(`{"metric": "inflation_rate_cpi", "value": 312.3, "date": "2024-03-01"}`)

	rec, err := ParseIndicator(payload)
	if err != nil {
		t.Fatalf("ParseIndicator failed: %v", err)
	}
	if rec.Metric != "inflation_rate_cpi" || rec.Value != 312.3 || rec.Timestamp != "2024-03-01" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestParseIndicatorBadValue(t *testing.T) {
	payload := []byte(`{"metric": "inflation_rate_cpi", "value": "not-a-number", "date": "2024-03-01"}`)

	if _, err := ParseIndicator(payload); err == nil {
		t.Fatal("non-numeric value should fail, not be silently dropped")
	}
}

func TestParseIndicatorUnrecognized(t *testing.T) {
	if _, err := ParseIndicator([]byte(`{"foo": "bar"}`)); !errors.Is(err, ErrUnrecognizedPayload) {
		t.Fatalf("want ErrUnrecognizedPayload, got %v", err)
	}
}

func TestParseLogisticsMultiPort(t *testing.T) {
	payload := []byte(`{
		"ports": [
			{"port": "shanghai", "congestion_count": 42, "date": "2024-03-01"},
			{"port": "rotterdam", "value": 17, "timestamp": "2024-03-01T06:00:00Z"},
			{"congestion_count": 3, "date": "2024-03-01"}
		]
	}`)

	records, err := ParseLogistics(payload)
	if err != nil {
		t.Fatalf("ParseLogistics failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want 3 records, got %d", len(records))
	}
	if records[0].Metric != "port_congestion_shanghai" || records[0].Value != 42 {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].Metric != "port_congestion_rotterdam" || records[1].Timestamp != "2024-03-01T06:00:00Z" {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
	if records[2].Metric != "port_congestion_unknown" {
		t.Fatalf("missing port name should fall back to unknown, got %q", records[2].Metric)
	}
}

func TestParseLogisticsSinglePort(t *testing.T) {
	payload := []byte(`{"port": "singapore", "congestion_count": "55", "date": "2024-03-01"}`)

	records, err := ParseLogistics(payload)
	if err != nil {
		t.Fatalf("ParseLogistics failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("want 1 record, got %d", len(records))
	}
	if records[0].Metric != "port_congestion_singapore" || records[0].Value != 55 || records[0].Port != "singapore" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestParseLogisticsFreightIndex(t *testing.T) {
	for _, payload := range []string{
		`{"freight_cost_index": 1430.5, "date": "2024-03-01"}`,
		`{"freight_index": 1430.5, "timestamp": "2024-03-01"}`,
	} {
		records, err := ParseLogistics([]byte(payload))
		if err != nil {
			t.Fatalf("ParseLogistics(%s) failed: %v", payload, err)
		}
		if len(records) != 1 {
			t.Fatalf("want 1 record, got %d", len(records))
		}
		if records[0].Metric != "freight_cost_index" || records[0].Value != 1430.5 || records[0].Source != "freight" {
			t.Fatalf("unexpected record: %+v", records[0])
		}
	}
}

func TestParseLogisticsBadPortValue(t *testing.T) {
	payload := []byte(`{"ports": [{"port": "shanghai", "congestion_count": "many"}]}`)
	if _, err := ParseLogistics(payload); err == nil {
		t.Fatal("non-numeric congestion count should fail")
	}
}

func TestParseLogisticsUnrecognized(t *testing.T) {
	if _, err := ParseLogistics([]byte(`{"foo": 1}`)); !errors.Is(err, ErrUnrecognizedPayload) {
		t.Fatalf("want ErrUnrecognizedPayload, got %v", err)
	}
}

func TestParseDispatch(t *testing.T) {
	records, err := Parse([]byte(`{"freight_cost_index": 1430.5, "date": "2024-03-01"}`))
	if err != nil {
		t.Fatalf("Parse logistics payload failed: %v", err)
	}
	if len(records) != 1 || records[0].Metric != "freight_cost_index" {
		t.Fatalf("unexpected records: %+v", records)
	}

	records, err = Parse([]byte(`{"metric": "inflation_rate_cpi", "value": 1.0, "date": "2024-03-01"}`))
	if err != nil {
		t.Fatalf("Parse indicator payload failed: %v", err)
	}
	if len(records) != 1 || records[0].Source != "fred" {
		t.Fatalf("unexpected records: %+v", records)
	}

	if _, err := Parse([]byte(`{"unrelated": true}`)); !errors.Is(err, ErrUnrecognizedPayload) {
		t.Fatalf("want ErrUnrecognizedPayload, got %v", err)
	}
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Fatal("invalid JSON should fail")
	}
}

func TestRecordValidate(t *testing.T) {
	good := Record{Metric: "freight_cost_index", Value: 1.5}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	if err := (Record{Value: 1.5}).Validate(); err == nil {
		t.Fatal("missing metric should be rejected")
	}
	if err := (Record{Metric: "m", Value: math.NaN()}).Validate(); err == nil {
		t.Fatal("NaN value should be rejected before scoring")
	}
	if err := (Record{Metric: "m", Value: math.Inf(1)}).Validate(); err == nil {
		t.Fatal("infinite value should be rejected before scoring")
	}
}
