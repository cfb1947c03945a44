package reader

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mohammad-safakhou/readmode/models"
	"github.com/mohammad-safakhou/readmode/provider"
)

const (
	// DefaultMaxContextChars bounds the article text sent with a question.
	DefaultMaxContextChars = 30000
	// FallbackAnswer is returned whenever a question cannot be answered.
	FallbackAnswer = "Sorry, I couldn't answer that question right now. Please try again."
)

// Options configures a Service.
type Options struct {
	Attempts        []Attempt
	AnswerModel     string
	MaxContextChars int
	Logger          *log.Logger
}

// Service fetches articles and answers questions about them. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	provider        provider.Provider
	invoker         *Invoker
	answerModel     string
	maxContextChars int
	logger          *log.Logger
}

// New wires a Service around p.
func New(p provider.Provider, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[READER] ", log.LstdFlags)
	}
	maxChars := opts.MaxContextChars
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	answerModel := strings.TrimSpace(opts.AnswerModel)
	if answerModel == "" && len(opts.Attempts) > 0 {
		answerModel = opts.Attempts[len(opts.Attempts)-1].Model
	}
	return &Service{
		provider:        p,
		invoker:         NewInvoker(p, opts.Attempts, logger),
		answerModel:     answerModel,
		maxContextChars: maxChars,
		logger:          logger,
	}
}

// FetchArticle retrieves and parses the article at pageURL. The URL is
// expected to carry a scheme already and is echoed verbatim in the record.
// Errors are *GenerationFailure or *ContentBlocked.
func (s *Service) FetchArticle(ctx context.Context, pageURL string) (models.Article, error) {
	resp, err := s.invoker.Invoke(ctx, pageURL)
	if err != nil {
		if cause := errors.Unwrap(err); cause != nil {
			s.logger.Printf("fetch %s failed: %v (cause: %v)", pageURL, err, cause)
		} else {
			s.logger.Printf("fetch %s failed: %v", pageURL, err)
		}
		return models.Article{}, err
	}
	res := Parse(resp.Text, pageURL, resp.Citations)
	recordTitleSource(res.TitleSource)
	s.logger.Printf("fetched %s via %s: title=%q (from %s) sources=%d", pageURL, resp.Model, res.Article.Title, res.TitleSource, len(res.Article.Sources))
	return res.Article, nil
}

// AskQuestion answers question using only content. It never fails; on any
// error it returns FallbackAnswer.
func (s *Service) AskQuestion(ctx context.Context, content, question string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("ask question panic: %v", r)
			recordQuestion("error")
			answer = FallbackAnswer
		}
	}()

	if strings.TrimSpace(question) == "" || strings.TrimSpace(content) == "" || s.answerModel == "" {
		recordQuestion("rejected")
		return FallbackAnswer
	}
	resp, err := s.provider.Generate(ctx, provider.Request{
		Model:             s.answerModel,
		Prompt:            BuildQuestionPrompt(truncateContext(content, s.maxContextChars), question),
		SystemInstruction: QuestionSystemInstruction,
	})
	if err != nil {
		s.logger.Printf("ask question with %s failed: %v", s.answerModel, err)
		recordQuestion("error")
		return FallbackAnswer
	}
	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		recordQuestion("empty")
		return FallbackAnswer
	}
	recordQuestion("ok")
	return text
}
