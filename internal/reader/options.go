package reader

import (
	"log"

	"github.com/mohammad-safakhou/readmode/config"
	"github.com/mohammad-safakhou/readmode/provider"
)

// AttemptsFromConfig turns the configured model tiers into the attempt table.
func AttemptsFromConfig(cfg config.LLMConfig) []Attempt {
	tiers := cfg.Tiers()
	out := make([]Attempt, 0, len(tiers))
	for _, t := range tiers {
		at := Attempt{
			Model: t.Model,
			Tools: provider.Tools{Search: t.Search, URLContext: t.URLContext},
		}
		if t.ThinkingBudget > 0 {
			budget := t.ThinkingBudget
			at.ThinkingBudget = &budget
		}
		out = append(out, at)
	}
	return out
}

// OptionsFromConfig builds Service options from the llm config section.
func OptionsFromConfig(cfg config.LLMConfig, logger *log.Logger) Options {
	return Options{
		Attempts:        AttemptsFromConfig(cfg),
		AnswerModel:     cfg.AnswerModel,
		MaxContextChars: cfg.MaxContextChars,
		Logger:          logger,
	}
}
