package report

import (
	"context"
	"testing"
	"time"
)

func TestDefinitionsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range Definitions() {
		if def.Name == "" {
			t.Error("Definition with empty name")
		}
		if def.Description == "" {
			t.Errorf("Definition %s has no description", def.Name)
		}
		if seen[def.Name] {
			t.Errorf("Duplicate definition: %s", def.Name)
		}
		seen[def.Name] = true
	}
}

func TestRunUnknownReport(t *testing.T) {
	r := NewRunner(nil, Options{})
	if _, err := r.Run(context.Background(), "nope"); err == nil {
		t.Error("Expected error for unknown report name")
	}
}

func TestNewRunnerDefaultsTopN(t *testing.T) {
	r := NewRunner(nil, Options{TopN: 0})
	if r.opts.TopN != 10 {
		t.Errorf("Expected default TopN 10, got %d", r.opts.TopN)
	}
	r = NewRunner(nil, Options{TopN: 3})
	if r.opts.TopN != 3 {
		t.Errorf("Expected TopN 3, got %d", r.opts.TopN)
	}
}

func TestFormatters(t *testing.T) {
	if got := formatMoney(20); got != "20.00" {
		t.Errorf("formatMoney(20) = %s", got)
	}
	if got := formatMoney(3.391); got != "3.39" {
		t.Errorf("formatMoney(3.391) = %s", got)
	}
	if got := formatInt(-4); got != "-4" {
		t.Errorf("formatInt(-4) = %s", got)
	}
	if got := formatNullableID(nil); got != "" {
		t.Errorf("formatNullableID(nil) = %q", got)
	}
	id := int32(17850)
	if got := formatNullableID(&id); got != "17850" {
		t.Errorf("formatNullableID(17850) = %s", got)
	}
	ts := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
	if got := formatTime(ts); got != "2010-12-01 08:26:00" {
		t.Errorf("formatTime = %s", got)
	}
	if got := formatNullableTime(nil); got != "" {
		t.Errorf("formatNullableTime(nil) = %q", got)
	}
}
