// Package observability provides structured logging and Prometheus metrics
// for the dispatch and tool-orchestration engine.
//
// # Metrics
//
// Metrics tracks routing decisions, provider call latency and token usage,
// tool execution outcomes, vector search latency, SSE segment counts, HTTP
// request/response stats, and conversation-store errors.
//
// Example usage:
//
//	metrics := observability.NewMetrics()
//
//	start := time.Now()
//	// ... call a provider ...
//	metrics.RecordProviderRequest("anthropic", "claude-3-opus", "success",
//	    time.Since(start).Seconds(), promptTokens, completionTokens)
//
//	start = time.Now()
//	// ... execute a tool ...
//	metrics.RecordToolExecution("searchKnowledge", "success", time.Since(start).Seconds())
//
// A nil *Metrics is a valid, no-op value, so components that take metrics
// through a SetMetrics method work the same whether or not metrics were
// ever wired in.
//
// # Logging
//
// Logging is built on Go's slog package with:
//   - Request/conversation ID correlation pulled automatically from context
//   - Redaction of sensitive values (API keys, tokens, passwords) before they
//     reach the sink
//   - JSON output for production, text for local development
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	ctx = observability.AddRequestID(ctx, requestID)
//	ctx = observability.AddConversationID(ctx, conversationID)
//
//	logger.Info(ctx, "routing decision",
//	    "strategy", "BUSINESS_TYPE",
//	    "model", modelID,
//	)
//
//	logger.Error(ctx, "provider request failed",
//	    "error", err,
//	    "provider", "anthropic",
//	    "api_key", apiKey, // redacted automatically
//	)
//
// # Security
//
// The logger redacts, wherever they appear as a logged value:
//   - API keys (Anthropic, OpenAI, generic)
//   - Passwords and secrets
//   - JWT and bearer tokens
//   - Custom patterns supplied via LogConfig.RedactPatterns
//
// Sensitive map keys are redacted the same way: password, passwd, pwd,
// secret, api_key, apikey, token, auth, authorization, private_key,
// privatekey.
package observability
