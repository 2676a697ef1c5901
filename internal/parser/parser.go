// Package parser turns vendor-specific JSON payloads into normalized
// observation records. Malformed payloads surface as errors so callers
// can tell "no data" apart from "bad data".
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrUnrecognizedPayload indicates the payload matched none of the known
// vendor shapes.
var ErrUnrecognizedPayload = errors.New("parser: unrecognized payload shape")

// Record is the normalized observation contract consumed by scoring.
type Record struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source"`
	Port      string  `json:"port,omitempty"`
}

// Validate rejects records that must never reach the risk engine.
func (r Record) Validate() error {
	if r.Metric == "" {
		return errors.New("record missing metric")
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return fmt.Errorf("record %q has non-finite value", r.Metric)
	}
	return nil
}

// ParseIndicator parses an economic indicator payload (FRED-style).
// Two shapes are accepted: a series document with a data array, of which
// the most recent entry is taken, and a simplified single-value document.
func ParseIndicator(payload []byte) (Record, error) {
	var doc struct {
		SeriesID  string `json:"series_id"`
		Metric    string `json:"metric"`
		Date      string `json:"date"`
		Timestamp string `json:"timestamp"`
		Value     any    `json:"value"`
		Data      []struct {
			Date  string `json:"date"`
			Value any    `json:"value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Record{}, fmt.Errorf("decode indicator payload: %w", err)
	}

	if len(doc.Data) > 0 {
		latest := doc.Data[len(doc.Data)-1]
		value, err := coerceFloat(latest.Value)
		if err != nil {
			return Record{}, fmt.Errorf("indicator series value: %w", err)
		}
		metric := doc.SeriesID
		if metric == "" {
			metric = "inflation_rate_cpi"
		}
		rec := Record{Metric: metric, Value: value, Timestamp: latest.Date, Source: "fred"}
		return rec, rec.Validate()
	}

	if doc.Metric != "" && doc.Value != nil {
		value, err := coerceFloat(doc.Value)
		if err != nil {
			return Record{}, fmt.Errorf("indicator value: %w", err)
		}
		rec := Record{Metric: doc.Metric, Value: value, Timestamp: firstNonEmpty(doc.Date, doc.Timestamp), Source: "fred"}
		return rec, rec.Validate()
	}

	return Record{}, ErrUnrecognizedPayload
}

// ParseLogistics parses port congestion and freight cost payloads. A
// multi-port document yields one record per port.
func ParseLogistics(payload []byte) ([]Record, error) {
	var doc struct {
		Ports []struct {
			Port            string `json:"port"`
			CongestionCount any    `json:"congestion_count"`
			Value           any    `json:"value"`
			Date            string `json:"date"`
			Timestamp       string `json:"timestamp"`
		} `json:"ports"`
		Port             string `json:"port"`
		CongestionCount  any    `json:"congestion_count"`
		Value            any    `json:"value"`
		FreightCostIndex any    `json:"freight_cost_index"`
		FreightIndex     any    `json:"freight_index"`
		Date             string `json:"date"`
		Timestamp        string `json:"timestamp"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode logistics payload: %w", err)
	}

	switch {
	case len(doc.Ports) > 0:
		records := make([]Record, 0, len(doc.Ports))
		for _, p := range doc.Ports {
			port := p.Port
			if port == "" {
				port = "unknown"
			}
			value, err := coerceFloat(firstNonNil(p.CongestionCount, p.Value))
			if err != nil {
				return nil, fmt.Errorf("port %q congestion value: %w", port, err)
			}
			rec := Record{
				Metric:    "port_congestion_" + port,
				Value:     value,
				Timestamp: firstNonEmpty(p.Date, p.Timestamp),
				Source:    "port_congestion",
				Port:      port,
			}
			if err := rec.Validate(); err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		return records, nil

	case doc.Port != "" || doc.CongestionCount != nil:
		port := doc.Port
		if port == "" {
			port = "unknown"
		}
		value, err := coerceFloat(firstNonNil(doc.CongestionCount, doc.Value))
		if err != nil {
			return nil, fmt.Errorf("port %q congestion value: %w", port, err)
		}
		rec := Record{
			Metric:    "port_congestion_" + port,
			Value:     value,
			Timestamp: firstNonEmpty(doc.Date, doc.Timestamp),
			Source:    "port_congestion",
			Port:      port,
		}
		return []Record{rec}, rec.Validate()

	case doc.FreightCostIndex != nil || doc.FreightIndex != nil:
		value, err := coerceFloat(firstNonNil(doc.FreightCostIndex, doc.FreightIndex))
		if err != nil {
			return nil, fmt.Errorf("freight index value: %w", err)
		}
		rec := Record{
			Metric:    "freight_cost_index",
			Value:     value,
			Timestamp: firstNonEmpty(doc.Date, doc.Timestamp),
			Source:    "freight",
		}
		return []Record{rec}, rec.Validate()
	}

	return nil, ErrUnrecognizedPayload
}

// Parse dispatches a raw payload to the matching vendor parser. Used by
// transports (queue, replay) that carry payloads of either family.
func Parse(payload []byte) ([]Record, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	if hasAny(probe, "ports", "port", "congestion_count", "freight_cost_index", "freight_index") {
		return ParseLogistics(payload)
	}
	if hasAny(probe, "data", "series_id", "metric") {
		rec, err := ParseIndicator(payload)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}

	return nil, ErrUnrecognizedPayload
}

func coerceFloat(v any) (float64, error) {
	switch value := v.(type) {
	case nil:
		return 0, errors.New("value missing")
	case float64:
		return value, nil
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", value)
		}
		return parsed, nil
	case json.Number:
		return value.Float64()
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", v)
	}
}

func hasAny(probe map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := probe[k]; ok {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
