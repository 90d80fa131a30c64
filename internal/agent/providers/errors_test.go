package providers

import (
	"errors"
	"testing"

	"github.com/ragagent/ragagent/internal/agent"
)

func TestClassify_TimeoutByMessage(t *testing.T) {
	err := classify("local", "llama3", 0, errors.New("context deadline exceeded"))
	if kind, ok := agent.KindOf(err); !ok || kind != agent.ErrProviderTimeout {
		t.Errorf("kind = %v, %v, want PROVIDER_TIMEOUT", kind, ok)
	}
}

func TestClassify_TimeoutByStatus(t *testing.T) {
	err := classify("remote", "qwen", 408, errors.New("request timeout"))
	if kind, ok := agent.KindOf(err); !ok || kind != agent.ErrProviderTimeout {
		t.Errorf("kind = %v, %v, want PROVIDER_TIMEOUT", kind, ok)
	}
}

func TestClassify_ServerErrorIsRejected(t *testing.T) {
	err := classify("remote", "qwen", 500, errors.New("internal server error"))
	if kind, ok := agent.KindOf(err); !ok || kind != agent.ErrProviderRejected {
		t.Errorf("kind = %v, %v, want PROVIDER_REJECTED", kind, ok)
	}
}

func TestClassify_UnknownMessageIsRejected(t *testing.T) {
	err := classify("local", "llama3", 0, errors.New("something went wrong"))
	if kind, ok := agent.KindOf(err); !ok || kind != agent.ErrProviderRejected {
		t.Errorf("kind = %v, %v, want PROVIDER_REJECTED", kind, ok)
	}
}
