package reader

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mohammad-safakhou/readmode/provider"
)

// MaxAttempts caps the model tier chain: one primary call and one fallback.
const MaxAttempts = 2

// Status is the classified completion status of one generation call.
type Status int

const (
	StatusNormal Status = iota
	StatusSafetyBlocked
	StatusCopyrightBlocked
	StatusAbnormal
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusSafetyBlocked:
		return "safety"
	case StatusCopyrightBlocked:
		return "recitation"
	default:
		return "abnormal"
	}
}

// Attempt is one entry of the model tier table.
type Attempt struct {
	Model          string
	Tools          provider.Tools
	ThinkingBudget *int32
}

// RetrievalResponse is the normalized result of a successful attempt.
type RetrievalResponse struct {
	Text      string
	Status    Status
	Citations []provider.GroundingChunk
	Model     string
}

// Invoker runs the retrieval prompt through the attempt table.
type Invoker struct {
	provider provider.Provider
	attempts []Attempt
	logger   *log.Logger
}

// NewInvoker builds an invoker; attempts beyond MaxAttempts are ignored.
func NewInvoker(p provider.Provider, attempts []Attempt, logger *log.Logger) *Invoker {
	if logger == nil {
		logger = log.New(log.Writer(), "[INVOKER] ", log.LstdFlags)
	}
	if len(attempts) > MaxAttempts {
		logger.Printf("model table has %d entries, using the first %d", len(attempts), MaxAttempts)
		attempts = attempts[:MaxAttempts]
	}
	return &Invoker{provider: p, attempts: append([]Attempt(nil), attempts...), logger: logger}
}

// Invoke retrieves the article at pageURL. Attempts run strictly one after
// another: a failed tier falls through to the next one, and a recitation
// block earns a single paraphrase retry. Both escalations happen at most once.
func (inv *Invoker) Invoke(ctx context.Context, pageURL string) (RetrievalResponse, error) {
	prompt := BuildRetrievalPrompt(pageURL)
	paraphrased := false
	var lastErr error

	for _, at := range inv.attempts {
		resp, err := inv.call(ctx, at, prompt)
		if err != nil {
			lastErr = &GenerationFailure{Kind: FailureTransport, Model: at.Model, Err: err}
			if ctx.Err() != nil {
				return RetrievalResponse{}, lastErr
			}
			continue
		}

		if resp.Status == StatusCopyrightBlocked && !paraphrased {
			paraphrased = true
			prompt = BuildParaphrasePrompt(pageURL)
			inv.logger.Printf("recitation block from %s, retrying with paraphrase prompt", at.Model)
			resp, err = inv.call(ctx, at, prompt)
			if err != nil {
				lastErr = &GenerationFailure{Kind: FailureTransport, Model: at.Model, Err: err}
				if ctx.Err() != nil {
					return RetrievalResponse{}, lastErr
				}
				continue
			}
		}

		switch resp.Status {
		case StatusNormal:
			if strings.TrimSpace(resp.Text) == "" {
				lastErr = &GenerationFailure{Kind: FailureEmpty, Model: at.Model}
				continue
			}
			return resp, nil
		case StatusSafetyBlocked:
			return RetrievalResponse{}, &ContentBlocked{Kind: BlockSafety, Model: at.Model}
		case StatusCopyrightBlocked:
			return RetrievalResponse{}, &ContentBlocked{Kind: BlockCopyright, Model: at.Model}
		default:
			lastErr = &GenerationFailure{Kind: FailureAbnormal, Model: at.Model}
		}
	}

	if lastErr == nil {
		lastErr = &GenerationFailure{Kind: FailureTransport, Err: errors.New("no model attempts configured")}
	}
	return RetrievalResponse{}, lastErr
}

func (inv *Invoker) call(ctx context.Context, at Attempt, prompt string) (RetrievalResponse, error) {
	resp, err := inv.provider.Generate(ctx, provider.Request{
		Model:          at.Model,
		Prompt:         prompt,
		Tools:          at.Tools,
		ThinkingBudget: at.ThinkingBudget,
	})
	if err != nil {
		inv.logger.Printf("generation with %s failed: %v", at.Model, err)
		recordAttempt(at.Model, "error")
		return RetrievalResponse{}, err
	}
	out := RetrievalResponse{
		Text:      responseText(resp),
		Status:    classify(resp),
		Citations: resp.Grounding,
		Model:     at.Model,
	}
	outcome := out.Status.String()
	if out.Status == StatusNormal && strings.TrimSpace(out.Text) == "" {
		outcome = "empty"
	}
	recordAttempt(at.Model, outcome)
	inv.logger.Printf("generation with %s finished: status=%s chars=%d citations=%d", at.Model, outcome, len(out.Text), len(out.Citations))
	return out, nil
}

// classify maps the platform finish reason onto Status.
func classify(resp provider.Response) Status {
	switch resp.FinishReason {
	case provider.FinishStop, provider.FinishUnspecified:
		return StatusNormal
	case provider.FinishSafety:
		return StatusSafetyBlocked
	case provider.FinishRecitation:
		return StatusCopyrightBlocked
	default:
		return StatusAbnormal
	}
}

// responseText prefers the primary text field and falls back to the
// concatenated text segments.
func responseText(resp provider.Response) string {
	if strings.TrimSpace(resp.Text) != "" {
		return resp.Text
	}
	return strings.Join(resp.Parts, "")
}
