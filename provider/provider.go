package provider

import (
	"context"
)

// FinishReason is the normalized reason the model stopped generating.
type FinishReason string

const (
	FinishUnspecified FinishReason = ""
	FinishStop        FinishReason = "STOP"
	FinishSafety      FinishReason = "SAFETY"
	FinishRecitation  FinishReason = "RECITATION"
	FinishOther       FinishReason = "OTHER"
)

// Tools selects the retrieval tools attached to a generation call.
type Tools struct {
	Search     bool
	URLContext bool
}

// Request is a single generation call.
type Request struct {
	Model             string
	Prompt            string
	SystemInstruction string
	Tools             Tools
	// ThinkingBudget is a hint; nil leaves the model default.
	ThinkingBudget *int32
}

// WebChunk is the web payload of a grounding citation.
type WebChunk struct {
	Title string
	URI   string
}

// GroundingChunk is a raw citation entry returned with a response.
type GroundingChunk struct {
	Web *WebChunk
}

// Response is what came back from the generative service.
type Response struct {
	// Text is the primary text field, when the service filled it.
	Text string
	// Parts holds the text-bearing segments of the first candidate.
	Parts        []string
	FinishReason FinishReason
	Grounding    []GroundingChunk
}

// Provider is the interface that all generative backends must satisfy
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
