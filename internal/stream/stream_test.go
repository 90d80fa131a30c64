package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/pkg/models"
)

func TestSegment_SplitsOnSentenceTerminatorsKeepingThemAttached(t *testing.T) {
	segments := Segment("Hello there. How are you? Great!")
	want := []string{"Hello there.", " How are you?", " Great!"}
	if len(segments) != len(want) {
		t.Fatalf("got %d segments, want %d: %#v", len(segments), len(want), segments)
	}
	for i := range want {
		if segments[i] != want[i] {
			t.Fatalf("segment[%d] = %q, want %q", i, segments[i], want[i])
		}
	}
}

func TestSegment_DropsEmptySegmentsFromConsecutiveTerminators(t *testing.T) {
	segments := Segment("Wait... really?")
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			t.Fatalf("found empty segment in %#v", segments)
		}
	}
}

func TestSegment_EmptyTextYieldsNoSegments(t *testing.T) {
	if segs := Segment(""); len(segs) != 0 {
		t.Fatalf("got %d segments for empty text, want 0", len(segs))
	}
}

func TestSegment_ConcatenationReproducesOriginalText(t *testing.T) {
	cases := []string{
		"Hello there. How are you? Great!",
		"Wait... really?",
		"Hi!  ",
		"no terminators here",
		"   ",
	}
	for _, text := range cases {
		var rebuilt strings.Builder
		for _, seg := range Segment(text) {
			rebuilt.WriteString(seg)
		}
		if rebuilt.String() != text {
			t.Fatalf("Segment(%q) reassembled as %q, want %q", text, rebuilt.String(), text)
		}
	}
}

func TestSegment_KeepsTrailingWhitespaceAttachedToLastSegment(t *testing.T) {
	segments := Segment("Hi!  ")
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1: %#v", segments, segments)
	}
	if segments[0] != "Hi!  " {
		t.Fatalf("segment = %q, want %q", segments[0], "Hi!  ")
	}
}

func TestWriteTurn_EmitsMessageHistoryDoneSequence(t *testing.T) {
	rec := httptest.NewRecorder()
	sw, err := NewWriter(rec, time.Millisecond)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}

	result := &agent.Result{
		Text: "First sentence. Second sentence.",
		Records: []models.ToolCallRecord{
			{Step: 1, ToolName: "getCurrentTime", Status: models.ToolCallCompleted},
		},
	}

	if err := sw.WriteTurn(context.Background(), result, nil, "agent-123"); err != nil {
		t.Fatalf("WriteTurn error: %v", err)
	}

	body := rec.Body.String()
	if strings.Count(body, "event: message") != 2 {
		t.Fatalf("expected 2 message events, got body: %s", body)
	}
	if !strings.Contains(body, "event: agent-history") {
		t.Fatalf("expected an agent-history event, got body: %s", body)
	}
	if !strings.Contains(body, "event: done") {
		t.Fatalf("expected a done event, got body: %s", body)
	}
	if !strings.Contains(body, "agent-123") {
		t.Fatalf("expected conversation id in done event, got body: %s", body)
	}

	msgIdx := strings.Index(body, "event: message")
	histIdx := strings.Index(body, "event: agent-history")
	doneIdx := strings.Index(body, "event: done")
	if !(msgIdx < histIdx && histIdx < doneIdx) {
		t.Fatalf("expected message* -> agent-history -> done ordering, got body: %s", body)
	}
}

func TestWriteTurn_OnRunErrorEmitsOnlyErrorEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	sw, err := NewWriter(rec, time.Millisecond)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}

	runErr := agent.ProviderRejected("openai", errors.New("boom"))
	if err := sw.WriteTurn(context.Background(), nil, runErr, "agent-123"); err != nil {
		t.Fatalf("WriteTurn error: %v", err)
	}

	body := rec.Body.String()
	if strings.Contains(body, "event: message") {
		t.Fatalf("did not expect message events on an up-front run error, got body: %s", body)
	}
	if !strings.Contains(body, "event: error") {
		t.Fatalf("expected an error event, got body: %s", body)
	}
	if !strings.Contains(body, "PROVIDER_REJECTED") {
		t.Fatalf("expected error kind in payload, got body: %s", body)
	}
}

func TestWriteTurn_RespectsContextCancellationMidPacing(t *testing.T) {
	rec := httptest.NewRecorder()
	sw, err := NewWriter(rec, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := &agent.Result{Text: "One. Two. Three."}
	if err := sw.WriteTurn(ctx, result, nil, "agent-1"); err != nil {
		t.Fatalf("WriteTurn error: %v", err)
	}

	body := rec.Body.String()
	if strings.Contains(body, "event: done") {
		t.Fatal("did not expect a done event after cancellation stopped emission mid-turn")
	}
}
