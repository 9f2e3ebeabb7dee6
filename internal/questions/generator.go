package questions

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"aicruiter/internal/llm"
	"aicruiter/internal/metrics"
	"aicruiter/internal/prompts"
	"aicruiter/internal/telemetry"
)

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"

	defaultTimeout = 45 * time.Second
)

var tracer = telemetry.GetTracer("aicruiter/questions")

type Request struct {
	Role        string
	Description string
	Types       []string
	Count       int
}

type Result struct {
	Questions []string
	Source    string
}

// Generator asks the Question Source for questions and falls back to the template
// bank when the source is missing, fails, or returns fewer usable items than asked.
type Generator struct {
	provider llm.Provider
	prompts  prompts.PromptProvider
	logger   *zap.Logger
	timeout  time.Duration
}

// provider may be nil, in which case every call uses the fallback bank
func NewGenerator(provider llm.Provider, promptManager prompts.PromptProvider, logger *zap.Logger) *Generator {
	return &Generator{
		provider: provider,
		prompts:  promptManager,
		logger:   logger,
		timeout:  defaultTimeout,
	}
}

func (g *Generator) HasSource() bool {
	return g.provider != nil
}

// Generate always returns exactly req.Count questions.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	ctx, span := tracer.Start(ctx, "questions.Generate")
	defer span.End()
	span.SetAttributes(telemetry.String("role", req.Role), telemetry.Int("count", req.Count))

	if qs, ok := g.fromSource(ctx, req); ok {
		span.SetAttributes(telemetry.String("source", SourceLLM))
		metrics.QuestionsGenerated(SourceLLM)
		return Result{Questions: qs[:req.Count], Source: SourceLLM}
	}

	span.SetAttributes(telemetry.String("source", SourceFallback))
	metrics.QuestionsGenerated(SourceFallback)
	return Result{Questions: Fallback(req.Role, req.Types, req.Count), Source: SourceFallback}
}

func (g *Generator) fromSource(ctx context.Context, req Request) ([]string, bool) {
	if g.provider == nil || g.prompts == nil || req.Count <= 0 {
		return nil, false
	}

	prompt, err := g.prompts.BuildPrompt(prompts.ModeQuestions, prompts.DefaultVariant, prompts.QuestionPromptData{
		Role:        req.Role,
		Description: req.Description,
		Types:       req.Types,
		Count:       req.Count,
	})
	if err != nil {
		g.logger.Error("failed to build question prompt", zap.Error(err))
		return nil, false
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.GenerateContent(callCtx, prompt)
	if err != nil {
		span := oteltrace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "question source failed")
		g.logger.Warn("question source unavailable, using fallback",
			zap.String("provider", g.provider.GetProviderName()),
			zap.String("code", llm.ErrorCode(err)),
			zap.Error(err))
		return nil, false
	}

	qs, ok := ParseList(resp.Content)
	if !ok {
		g.logger.Warn("question source returned a non-list, using fallback",
			zap.String("provider", g.provider.GetProviderName()))
		return nil, false
	}
	if len(qs) < req.Count {
		g.logger.Info("question source returned too few questions, using fallback",
			zap.Int("requested", req.Count),
			zap.Int("received", len(qs)))
		return nil, false
	}

	g.logger.Debug("questions generated",
		zap.String("provider", resp.Metadata.Provider),
		zap.String("model", resp.Metadata.Model),
		zap.Int("processing_time_ms", resp.Metadata.ProcessingTime))
	return qs, true
}
