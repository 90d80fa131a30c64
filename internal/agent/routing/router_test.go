package routing

import (
	"context"
	"testing"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/pkg/models"
)

type stubProvider struct {
	name  string
	calls int
}

func (p *stubProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	p.calls++
	ch := make(chan *agent.CompletionChunk, 1)
	ch <- &agent.CompletionChunk{Done: true}
	close(ch)
	return ch, nil
}
func (p *stubProvider) Name() string          { return p.name }
func (p *stubProvider) Models() []agent.Model { return nil }
func (p *stubProvider) SupportsTools() bool   { return true }

func newTestProviders() map[string]agent.LLMProvider {
	return map[string]agent.LLMProvider{
		"local":  &stubProvider{name: "local"},
		"remote": &stubProvider{name: "remote"},
	}
}

func TestRouter_PercentageAllLocal(t *testing.T) {
	r := NewRouter(Config{
		Strategy:         StrategyPercentage,
		PercentageRemote: 0,
		LocalModel:       "local",
		RemoteModel:      "remote",
	}, newTestProviders(), 1)

	for i := 0; i < 20; i++ {
		_, decision := r.Route("hello")
		if decision.ModelID != "local" {
			t.Fatalf("decision.ModelID = %q, want %q with remote=0", decision.ModelID, "local")
		}
	}
}

func TestRouter_PercentageAllRemote(t *testing.T) {
	r := NewRouter(Config{
		Strategy:         StrategyPercentage,
		PercentageRemote: 100,
		LocalModel:       "local",
		RemoteModel:      "remote",
	}, newTestProviders(), 1)

	for i := 0; i < 20; i++ {
		_, decision := r.Route("hello")
		if decision.ModelID != "remote" {
			t.Fatalf("decision.ModelID = %q, want %q with remote=100", decision.ModelID, "remote")
		}
	}
}

func TestRouter_BusinessType_ToolCallingTakesPriority(t *testing.T) {
	r := NewRouter(Config{
		Strategy:   StrategyBusinessType,
		LocalModel: "local",
		BusinessTypeMap: map[models.BusinessType]string{
			models.BusinessToolCalling:  "remote",
			models.BusinessComplexQuery: "remote",
		},
	}, newTestProviders(), 1)

	_, decision := r.Route("帮我计算一下IRR和分析比较")
	if decision.BusinessType != models.BusinessToolCalling {
		t.Fatalf("BusinessType = %q, want TOOL_CALLING (tool keywords take priority)", decision.BusinessType)
	}
	if decision.ModelID != "remote" {
		t.Fatalf("ModelID = %q, want remote", decision.ModelID)
	}
}

func TestRouter_BusinessType_LongContext(t *testing.T) {
	r := NewRouter(Config{Strategy: StrategyBusinessType, LocalModel: "local"}, newTestProviders(), 1)
	long := ""
	for i := 0; i < 210; i++ {
		long += "a"
	}
	_, decision := r.Route(long)
	if decision.BusinessType != models.BusinessLongContext {
		t.Fatalf("BusinessType = %q, want LONG_CONTEXT", decision.BusinessType)
	}
}

func TestRouter_BusinessType_GeneralChatOnEmpty(t *testing.T) {
	r := NewRouter(Config{Strategy: StrategyBusinessType, LocalModel: "local"}, newTestProviders(), 1)
	_, decision := r.Route("   ")
	if decision.BusinessType != models.BusinessGeneralChat {
		t.Fatalf("BusinessType = %q, want GENERAL_CHAT", decision.BusinessType)
	}
}

func TestRouter_BusinessType_SimpleQADefault(t *testing.T) {
	r := NewRouter(Config{Strategy: StrategyBusinessType, LocalModel: "local"}, newTestProviders(), 1)
	_, decision := r.Route("what time zone is Tokyo in")
	if decision.BusinessType != models.BusinessSimpleQA {
		t.Fatalf("BusinessType = %q, want SIMPLE_QA", decision.BusinessType)
	}
}

func TestRouter_UnregisteredModelFallsBackToLocal(t *testing.T) {
	r := NewRouter(Config{
		Strategy:   StrategyBusinessType,
		LocalModel: "local",
		BusinessTypeMap: map[models.BusinessType]string{
			models.BusinessComplexQuery: "nonexistent-model",
		},
	}, newTestProviders(), 1)

	provider, decision := r.Route("请分析一下这个方案")
	if decision.ModelID != "local" {
		t.Fatalf("ModelID = %q, want fallback to local", decision.ModelID)
	}
	if provider == nil {
		t.Fatal("expected a non-nil fallback provider")
	}
}
