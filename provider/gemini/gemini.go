package gemini_provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/provider"
	"google.golang.org/genai"
)

const defaultTimeout = 120 * time.Second

// Config holds the credentials and transport settings for a Gemini client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// client implements provider.Provider using the Gemini API
type client struct {
	models *genai.Models
}

// NewClient creates a new Gemini client from an explicit configuration.
func NewClient(ctx context.Context, cfg Config) (provider.Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key not set")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &client{models: c.Models}, nil
}

// Generate sends a single prompt and normalizes the first candidate.
func (c *client) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		return provider.Response{}, errors.New("missing model")
	}
	resp, err := c.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), buildConfig(req))
	if err != nil {
		return provider.Response{}, fmt.Errorf("gemini %s: %w", req.Model, err)
	}
	return toResponse(resp), nil
}

func buildConfig(req provider.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.Tools.Search {
		cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if req.Tools.URLContext {
		cfg.Tools = append(cfg.Tools, &genai.Tool{URLContext: &genai.URLContext{}})
	}
	if s := strings.TrimSpace(req.SystemInstruction); s != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: s}}}
	}
	if req.ThinkingBudget != nil {
		budget := *req.ThinkingBudget
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}
	return cfg
}

func toResponse(resp *genai.GenerateContentResponse) provider.Response {
	if resp == nil {
		return provider.Response{FinishReason: provider.FinishOther}
	}
	if len(resp.Candidates) == 0 {
		// A blocked prompt comes back without candidates.
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return provider.Response{FinishReason: mapBlockReason(resp.PromptFeedback.BlockReason)}
		}
		return provider.Response{FinishReason: provider.FinishOther}
	}

	cand := resp.Candidates[0]
	out := provider.Response{
		Text:         resp.Text(),
		FinishReason: mapFinishReason(cand.FinishReason),
	}
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			out.Parts = append(out.Parts, part.Text)
		}
	}
	if gm := cand.GroundingMetadata; gm != nil {
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil {
				continue
			}
			gc := provider.GroundingChunk{}
			if chunk.Web != nil {
				gc.Web = &provider.WebChunk{Title: chunk.Web.Title, URI: chunk.Web.URI}
			}
			out.Grounding = append(out.Grounding, gc)
		}
	}
	return out
}

func mapFinishReason(r genai.FinishReason) provider.FinishReason {
	switch r {
	case genai.FinishReasonUnspecified, "":
		return provider.FinishUnspecified
	case genai.FinishReasonStop:
		return provider.FinishStop
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonSPII, genai.FinishReasonBlocklist:
		return provider.FinishSafety
	case genai.FinishReasonRecitation:
		return provider.FinishRecitation
	default:
		return provider.FinishOther
	}
}

func mapBlockReason(r genai.BlockedReason) provider.FinishReason {
	switch r {
	case genai.BlockedReasonSafety, genai.BlockedReasonProhibitedContent, genai.BlockedReasonBlocklist:
		return provider.FinishSafety
	default:
		return provider.FinishOther
	}
}

// NewClientFromConfig creates a client from the llm config section.
func NewClientFromConfig(ctx context.Context, cfg config.LLMConfig) (provider.Provider, error) {
	return NewClient(ctx, Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
}
