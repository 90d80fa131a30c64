package routing

import (
	"math/rand"
	"strings"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/internal/observability"
	"github.com/ragagent/ragagent/pkg/models"
)

// Strategy selects the model-routing algorithm (C7).
type Strategy string

const (
	StrategyPercentage   Strategy = "PERCENTAGE"
	StrategyBusinessType Strategy = "BUSINESS_TYPE"
)

// Config configures a Router. Keyword sets are data, not code, so operators
// can extend detection without rebuilding.
type Config struct {
	Strategy Strategy

	// PercentageRemote is pRemote in [0,100]: the share of PERCENTAGE-routed
	// requests sent to the remote model.
	PercentageRemote int

	// BusinessTypeMap maps a detected BusinessType to a registered model id.
	// Types absent from the map resolve to the local model.
	BusinessTypeMap map[models.BusinessType]string

	// ToolKeywords and ComplexityKeywords drive business-type detection, in
	// the order the spec's first-match-wins rules require.
	ToolKeywords       []string
	ComplexityKeywords []string

	// LongContextThreshold is the character-length cutoff for LONG_CONTEXT
	// (default 200, per the detection rules below).
	LongContextThreshold int

	LocalModel  string
	RemoteModel string
}

// DefaultToolKeywords are the spec's example tool-calling trigger words.
func DefaultToolKeywords() []string {
	return []string{"计算", "查询", "天气", "时间", "IRR", "NPV", "债券", "期权", "摊销"}
}

// DefaultComplexityKeywords are the spec's example complex-query trigger
// words.
func DefaultComplexityKeywords() []string {
	return []string{"分析", "比较", "总结", "推理", "判断", "评估", "建议", "方案"}
}

// Router selects one chat model per request from policy and request
// features (C7). It never fails a request for a misconfigured model target:
// an unregistered model falls back to the local model and the substitution
// is reported in the RoutingDecision.
type Router struct {
	cfg       Config
	providers map[string]agent.LLMProvider
	rng       *rand.Rand
	metrics   *observability.Metrics
}

// NewRouter constructs a Router bound to a set of named providers (model id
// -> LLMProvider). The random source is seeded once per process, matching
// the spec's "no state between requests" requirement for PERCENTAGE.
func NewRouter(cfg Config, providers map[string]agent.LLMProvider, seed int64) *Router {
	if cfg.ToolKeywords == nil {
		cfg.ToolKeywords = DefaultToolKeywords()
	}
	if cfg.ComplexityKeywords == nil {
		cfg.ComplexityKeywords = DefaultComplexityKeywords()
	}
	if cfg.LongContextThreshold <= 0 {
		cfg.LongContextThreshold = 200
	}
	return &Router{cfg: cfg, providers: providers, rng: rand.New(rand.NewSource(seed))}
}

// SetMetrics attaches metrics collection to the router. Routing decisions
// made before SetMetrics is called (or when it is never called) are simply
// not recorded; metrics are an optional concern, not a dependency.
func (r *Router) SetMetrics(metrics *observability.Metrics) {
	r.metrics = metrics
}

// Route selects a provider and model for message, returning the provider to
// invoke alongside the RoutingDecision to surface to callers.
func (r *Router) Route(message string) (agent.LLMProvider, models.RoutingDecision) {
	var modelID string
	var businessType models.BusinessType
	var reason string

	switch r.cfg.Strategy {
	case StrategyBusinessType:
		businessType = classifyBusinessType(message, r.cfg.ToolKeywords, r.cfg.ComplexityKeywords, r.cfg.LongContextThreshold)
		modelID, reason = r.resolveBusinessType(businessType)
	default:
		modelID, reason = r.resolvePercentage()
	}

	provider, ok := r.providers[modelID]
	if !ok {
		provider, ok = r.providers[r.cfg.LocalModel]
		if ok {
			reason = reason + "; requested model not registered, substituted local model"
			modelID = r.cfg.LocalModel
		}
	}

	r.metrics.RecordRoutingDecision(string(r.cfg.Strategy), string(businessType), modelID)
	return provider, models.RoutingDecision{ModelID: modelID, BusinessType: businessType, Reason: reason}
}

func (r *Router) resolvePercentage() (string, string) {
	draw := r.rng.Intn(100)
	if draw < r.cfg.PercentageRemote {
		return r.cfg.RemoteModel, "percentage strategy: draw below threshold, routed remote"
	}
	return r.cfg.LocalModel, "percentage strategy: draw at or above threshold, routed local"
}

func (r *Router) resolveBusinessType(bt models.BusinessType) (string, string) {
	if model, ok := r.cfg.BusinessTypeMap[bt]; ok && model != "" {
		return model, "business type " + string(bt) + " mapped to configured model"
	}
	return r.cfg.LocalModel, "business type " + string(bt) + " unmapped, defaulted to local model"
}

// classifyBusinessType applies the spec's deterministic, first-match-wins
// detection order.
func classifyBusinessType(message string, toolKeywords, complexityKeywords []string, longContextThreshold int) models.BusinessType {
	trimmed := strings.TrimSpace(message)

	if containsAny(message, toolKeywords) {
		return models.BusinessToolCalling
	}
	if containsAny(message, complexityKeywords) {
		return models.BusinessComplexQuery
	}
	if len([]rune(trimmed)) > longContextThreshold {
		return models.BusinessLongContext
	}
	if trimmed == "" {
		return models.BusinessGeneralChat
	}
	return models.BusinessSimpleQA
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
