// internal/workers/refine/classify-prompt/handler.go
package classifyprompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"promptlab-workers/internal/common/logger"
	"promptlab-workers/pkg/templates"

	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "classify-prompt"

	// RuleConfidence is reported when a cascade rule fires.
	RuleConfidence = 0.9
	// FallbackConfidence is reported when nothing matched and no
	// usable LLM answer was available.
	FallbackConfidence = 0.5
)

// LLMClient is the optional classification fallback. A nil client means
// unmatched inputs degrade straight to the default template.
type LLMClient interface {
	Complete(ctx context.Context, system, prompt string, temperature float64) (string, error)
}

type Handler struct {
	config   *Config
	registry *templates.Registry
	llm      LLMClient
	cache    *redis.Client
	logger   logger.Logger
}

// NewHandler wires the classifier. llm and cache may both be nil.
func NewHandler(config *Config, registry *templates.Registry, llm LLMClient, cache *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		registry: registry,
		llm:      llm,
		cache:    cache,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute classifies raw text into a template. It never fails: every
// degraded path lands on the default template with FallbackConfidence,
// so classifying the same text twice without an LLM yields the identical
// triple.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return h.defaultResult()
	}

	if cached := h.cacheGet(ctx, text); cached != nil {
		return cached
	}

	if r, ok := matchCascade(text); ok {
		out := &Output{
			TemplateID: r.templateID,
			Category:   string(r.category),
			Confidence: RuleConfidence,
		}
		h.cacheSet(ctx, text, out)
		return out
	}

	if h.llm != nil {
		if out, err := h.classifyWithLLM(ctx, text); err == nil {
			h.cacheSet(ctx, text, out)
			return out
		} else {
			h.logger.Warn("llm classification fallback failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return h.defaultResult()
}

func (h *Handler) defaultResult() *Output {
	d := h.registry.Default()
	return &Output{
		TemplateID: d.ID,
		Category:   string(d.Category),
		Confidence: FallbackConfidence,
	}
}

// llmReplySchema constrains the fallback's single JSON object.
var llmReplySchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"templateId", "confidence"},
	"properties": map[string]interface{}{
		"templateId": map[string]interface{}{"type": "string"},
		"confidence": map[string]interface{}{"type": "number"},
	},
}

type llmReply struct {
	TemplateID string  `json:"templateId"`
	Confidence float64 `json:"confidence"`
}

// classifyWithLLM issues one constrained classification call. Any
// network, parse or vocabulary failure is an error the caller degrades
// from; nothing propagates past Execute.
func (h *Handler) classifyWithLLM(ctx context.Context, text string) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	system := fmt.Sprintf(
		"Classify the user's text into exactly one template id from this list: %s. "+
			"Respond with a single JSON object {\"templateId\": string, \"confidence\": number} and nothing else.",
		strings.Join(h.registry.IDs(), ", "))

	raw, err := h.llm.Complete(ctx, system, text, 0)
	if err != nil {
		return nil, err
	}

	reply, err := parseReply(raw)
	if err != nil {
		return nil, err
	}

	desc, ok := h.registry.Lookup(reply.TemplateID)
	if !ok {
		return nil, fmt.Errorf("unknown template id %q", reply.TemplateID)
	}

	conf := reply.Confidence
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}

	return &Output{
		TemplateID: desc.ID,
		Category:   string(desc.Category),
		Confidence: conf,
	}, nil
}

// parseReply extracts and validates the one JSON object the model was
// asked for. Models wrap answers in fences often enough that the
// object is cut out positionally first.
func parseReply(raw string) (*llmReply, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	body := raw[start : end+1]

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(llmReplySchema),
		gojsonschema.NewStringLoader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("validate reply: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("reply does not match schema")
	}

	var reply llmReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &reply, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "classify:" + hex.EncodeToString(sum[:])
}

func (h *Handler) cacheGet(ctx context.Context, text string) *Output {
	if h.cache == nil {
		return nil
	}
	val, err := h.cache.Get(ctx, cacheKey(text)).Result()
	if err != nil {
		return nil
	}
	var out Output
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil
	}
	return &out
}

func (h *Handler) cacheSet(ctx context.Context, text string, out *Output) {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	// Best effort: a cache write failure never affects the result.
	h.cache.Set(ctx, cacheKey(text), data, h.config.CacheTTL)
}
