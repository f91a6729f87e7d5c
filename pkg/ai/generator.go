package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"studynotes/pkg/apperr"
	"studynotes/pkg/metrics"
	"studynotes/pkg/quiz/types"
	"studynotes/pkg/validation"
)

const (
	DefaultQuizSize = 3
	DefaultTimeout  = 30 * time.Second
)

// Generator turns provider calls into the three operations the orchestrators use,
// isolating provider failures behind typed errors. It never retries.
type Generator struct {
	client   Client
	quizSize int
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

type GeneratorOption func(*Generator)

func WithQuizSize(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.quizSize = n
		}
	}
}

// WithTimeout bounds every call; for streams it bounds the whole stream.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) GeneratorOption {
	return func(g *Generator) { g.metrics = m }
}

func WithLogger(l logrus.FieldLogger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

func NewGenerator(c Client, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:   c,
		quizSize: DefaultQuizSize,
		timeout:  DefaultTimeout,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateAnswer starts one streamed completion. Fragments are forwarded in order;
// the channel closes when the model finishes, the stream fails, or ctx ends.
func (g *Generator) GenerateAnswer(ctx context.Context, systemContext string, history []Message, question string) (<-chan Fragment, error) {
	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: question})

	sctx, cancel := context.WithTimeout(ctx, g.timeout)
	in, err := g.client.Stream(sctx, systemContext, msgs)
	if err != nil {
		cancel()
		g.metrics.ObserveGeneration("answer", err)
		return nil, &apperr.GenerationServiceError{Op: "answer generation", Err: err}
	}
	g.metrics.ObserveGeneration("answer", nil)

	out := make(chan Fragment)
	go func() {
		defer cancel()
		defer close(out)
		failed := false
		for f := range in {
			if f.Err != nil {
				failed = true
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
		// the provider stops quietly on cancellation; surface a timeout as a stream failure
		if !failed && ctx.Err() == nil && sctx.Err() != nil {
			failed = true
			select {
			case out <- Fragment{Err: fmt.Errorf("answer generation: %w", sctx.Err())}:
			case <-ctx.Done():
			}
		}
		if failed {
			g.metrics.ObserveGeneration("answer_stream", fmt.Errorf("interrupted"))
		}
	}()
	return out, nil
}

// GenerateEmbedding returns the vector for text or an *apperr.EmbeddingError.
func (g *Generator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &apperr.EmbeddingError{Reason: "nothing to embed"}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	vec, err := g.client.Embed(ctx, text)
	if err != nil {
		g.metrics.ObserveGeneration("embedding", err)
		return nil, &apperr.EmbeddingError{Reason: "embedding request failed", Err: err}
	}
	if len(vec) == 0 {
		err := &apperr.EmbeddingError{Reason: "service returned no vector"}
		g.metrics.ObserveGeneration("embedding", err)
		return nil, err
	}
	g.metrics.ObserveGeneration("embedding", nil)
	return vec, nil
}

// GenerateQuiz asks for the configured number of four-option questions about noteContent and
// validates what comes back.
func (g *Generator) GenerateQuiz(ctx context.Context, noteContent string) (types.Quiz, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.client.Complete(ctx, quizSystemPrompt, []Message{
		{Role: RoleUser, Content: renderQuizPrompt(noteContent, g.quizSize)},
	})
	if err != nil {
		g.metrics.ObserveGeneration("quiz", err)
		return nil, &apperr.GenerationServiceError{Op: "quiz generation", Err: err}
	}

	quiz, err := validation.ParseQuiz(raw, g.quizSize)
	g.metrics.ObserveGeneration("quiz", err)
	if err != nil {
		g.log.WithError(err).WithField("raw_len", len(raw)).Warn("quiz output rejected")
		return nil, err
	}
	return quiz, nil
}

const quizSystemPrompt = "You are a study assistant that writes quizzes. Reply with a JSON array only."

func renderQuizPrompt(noteContent string, n int) string {
	return fmt.Sprintf(`Based on the note below, write exactly %d multiple-choice questions. Each question has exactly 4 answer options.

Note content:
%s

Return a JSON array where every object has:
- "question": the question text
- "options": an array of 4 answer strings
- "correctAnswer": the index (0-3) of the correct option

Example:
[
  {
    "question": "Is this the first question?",
    "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
    "correctAnswer": 0
  }
]

Keep the questions relevant to the note and of moderate difficulty.`, n, noteContent)
}
