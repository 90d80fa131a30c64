// Package stream implements the SSE adapter (C9): it takes one completed
// agent turn and re-emits its text as a paced sequence of sentence-sized
// message events, followed by a tool-call history event and a terminal
// done event, or a single error event on failure.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/internal/observability"
	"github.com/ragagent/ragagent/pkg/models"
)

// DefaultPace is the inter-segment delay between message events.
const DefaultPace = 30 * time.Millisecond

// sentenceBoundary matches one or more sentence terminators; the terminator
// run stays attached to the preceding segment.
var sentenceBoundary = regexp.MustCompile(`[.!?。！？\n]+`)

// Segment splits text into sentence-sized chunks, each one ending with the
// terminator(s) that closed it except possibly the last if text has no
// trailing terminator. A whitespace-only chunk is never emitted on its own;
// it is folded into the preceding segment so that concatenating the result
// always reproduces text exactly, including trailing whitespace.
func Segment(text string) []string {
	if text == "" {
		return nil
	}

	var segments []string
	locs := sentenceBoundary.FindAllStringIndex(text, -1)
	start := 0
	for _, loc := range locs {
		end := loc[1]
		segments = appendSegment(segments, text[start:end])
		start = end
	}
	if start < len(text) {
		segments = appendSegment(segments, text[start:])
	}
	return segments
}

// appendSegment adds seg as a new segment, unless seg is whitespace-only and
// there is already a preceding segment to attach it to instead.
func appendSegment(segments []string, seg string) []string {
	if !trimmedNonEmpty(seg) && len(segments) > 0 {
		segments[len(segments)-1] += seg
		return segments
	}
	return append(segments, seg)
}

func trimmedNonEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

// Writer emits one agent turn over an http.ResponseWriter as Server-Sent
// Events. It is single-use: create one per request.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	pace    time.Duration
	metrics *observability.Metrics
}

// NewWriter sets the SSE response headers and returns a Writer bound to w.
// Returns an error if w does not support flushing, which would otherwise
// silently buffer the whole turn instead of streaming it.
func NewWriter(w http.ResponseWriter, pace time.Duration) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("stream: response writer does not support flushing")
	}
	if pace <= 0 {
		pace = DefaultPace
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher, pace: pace}, nil
}

// SetMetrics attaches metrics collection to the writer. Segments emitted
// before SetMetrics is called are simply not counted.
func (sw *Writer) SetMetrics(metrics *observability.Metrics) {
	sw.metrics = metrics
}

type messageEvent struct {
	Text string `json:"text"`
}

type doneEvent struct {
	ConversationID string `json:"conversationId"`
}

type errorEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteTurn emits the full event sequence for one completed agent turn. If
// runErr is non-nil, result is ignored and a single error event is written;
// callers are responsible for having aborted the agent loop before this
// call, per the error handling policy (a provider failure after some
// message events have already gone out still satisfies "message* error").
func (sw *Writer) WriteTurn(ctx context.Context, result *agent.Result, runErr error, conversationID string) error {
	if runErr != nil {
		return sw.writeError(runErr)
	}

	for _, segment := range Segment(result.Text) {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := sw.writeEvent("message", messageEvent{Text: segment}); err != nil {
			return err
		}
		sw.metrics.RecordStreamSegment()
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sw.pace):
		}
	}

	records := result.Records
	if records == nil {
		records = []models.ToolCallRecord{}
	}
	if err := sw.writeEvent("agent-history", records); err != nil {
		return err
	}

	return sw.writeEvent("done", doneEvent{ConversationID: conversationID})
}

func (sw *Writer) writeError(err error) error {
	kind := "PROVIDER_REJECTED"
	if k, ok := agent.KindOf(err); ok {
		kind = string(k)
	}
	return sw.writeEvent("error", errorEvent{Kind: kind, Message: err.Error()})
}

func (sw *Writer) writeEvent(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("stream: encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("stream: write %s event: %w", event, err)
	}
	sw.flusher.Flush()
	return nil
}
