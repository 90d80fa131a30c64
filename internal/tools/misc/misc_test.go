package misc

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestCurrentTimeTool_FormatsRFC3339(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tool := CurrentTimeTool{Now: func() time.Time { return fixed }}

	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Content != "2026-01-02T03:04:05Z" {
		t.Fatalf("got %q, want 2026-01-02T03:04:05Z", result.Content)
	}
}

func TestWeatherTool_RequiresCity(t *testing.T) {
	result, err := WeatherTool{}.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result when city is missing")
	}
}

func TestWeatherTool_ReturnsCityInReport(t *testing.T) {
	result, err := WeatherTool{}.Execute(context.Background(), json.RawMessage(`{"city":"Tokyo"}`))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
}
