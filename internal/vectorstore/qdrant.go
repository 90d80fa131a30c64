// Package vectorstore provides a nearest-neighbour search client over a
// Qdrant-compatible vector index (C2).
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ragagent/ragagent/internal/observability"
	"github.com/ragagent/ragagent/pkg/models"
)

// Client is the minimal contract the agent loop needs from a vector index:
// nearest-neighbour search over stored (vector, segment, metadata). The wire
// protocol is a provider concern; this implementation speaks Qdrant's REST
// API.
type Client interface {
	Search(ctx context.Context, vector []float32, k int, minScore float64) ([]models.VectorSegment, error)
}

// QdrantConfig configures the Qdrant-backed client.
type QdrantConfig struct {
	BaseURL        string // Default: http://localhost:6333
	Collection     string
	APIKey         string
	Timeout        time.Duration
}

// QdrantClient implements Client against a Qdrant collection's points/search
// endpoint.
type QdrantClient struct {
	baseURL    string
	collection string
	apiKey     string
	client     *http.Client
	metrics    *observability.Metrics
}

var _ Client = (*QdrantClient)(nil)

// NewQdrantClient creates a Qdrant-backed vector store client.
func NewQdrantClient(cfg QdrantConfig) (*QdrantClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:6333"
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, fmt.Errorf("collection is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QdrantClient{
		baseURL:    baseURL,
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// SetMetrics attaches metrics collection to the client. Searches issued
// before SetMetrics is called are simply not recorded.
func (c *QdrantClient) SetMetrics(metrics *observability.Metrics) {
	c.metrics = metrics
}

type qdrantSearchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []qdrantScoredPoint `json:"result"`
	Status string              `json:"status"`
	Error  *qdrantError        `json:"error,omitempty"`
}

type qdrantError struct {
	Message string `json:"message"`
}

type qdrantScoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Search issues a nearest-neighbour query against the collection, filtering
// to matches scoring at least minScore. Qdrant's cosine/dot scores are
// already in a comparable space with the spec's [0,1] similarity contract
// for normalised vectors.
func (c *QdrantClient) Search(ctx context.Context, vector []float32, k int, minScore float64) ([]models.VectorSegment, error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordVectorSearch(c.collection, time.Since(start).Seconds())
	}()

	if k <= 0 {
		k = 5
	}
	reqBody := qdrantSearchRequest{
		Vector:      vector,
		Limit:       k,
		WithPayload: true,
	}
	if minScore > 0 {
		reqBody.ScoreThreshold = &minScore
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vector store returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed qdrantSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("vector store error: %s", parsed.Error.Message)
	}

	segments := make([]models.VectorSegment, 0, len(parsed.Result))
	for _, point := range parsed.Result {
		if minScore > 0 && point.Score < minScore {
			continue
		}
		segments = append(segments, models.VectorSegment{
			Text:     stringPayload(point.Payload, "text"),
			Score:    point.Score,
			Metadata: models.VectorSegmentMeta{
				Filename:   stringPayload(point.Payload, "filename"),
				DocumentID: stringPayload(point.Payload, "documentId"),
				ChunkIndex: intPayload(point.Payload, "chunkIndex"),
			},
		})
	}
	return segments, nil
}

func stringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
