// Package providers contains LLM provider implementations.
package providers

import (
	"net/http"
	"strings"

	"github.com/ragagent/ragagent/internal/agent"
)

// classify turns a raw provider error (plus an optional HTTP status) into
// this engine's error kinds. Providers never retry internally per the error
// handling policy; classification only labels the error for the caller.
func classify(providerName, model string, status int, cause error) *agent.Error {
	if status > 0 {
		switch {
		case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
			return agent.ProviderTimeout(providerName, cause)
		case status >= 500:
			return agent.ProviderRejected(providerName, cause)
		case status == http.StatusTooManyRequests:
			return agent.ProviderRejected(providerName, cause)
		default:
			return agent.ProviderRejected(providerName, cause)
		}
	}
	if cause == nil {
		return agent.ProviderRejected(providerName, nil)
	}
	msg := strings.ToLower(cause.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return agent.ProviderTimeout(providerName, cause)
	}
	return agent.ProviderRejected(providerName, cause)
}
