package serviceImp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"studynotes/pkg/metrics"
	"studynotes/pkg/note/repository"
	"studynotes/pkg/richtext"
)

// Embedder produces an embedding vector for text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Enricher attaches embeddings to notes that already exist. Failures are logged
// and counted, never returned.
type Enricher struct {
	repo    repository.NoteRepository
	emb     Embedder
	async   bool
	timeout time.Duration
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

type EnricherOptions struct {
	Async   bool
	Timeout time.Duration
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

func NewEnricher(repo repository.NoteRepository, emb Embedder, o EnricherOptions) *Enricher {
	e := &Enricher{
		repo:    repo,
		emb:     emb,
		async:   o.Async,
		timeout: o.Timeout,
		log:     o.Logger,
		metrics: o.Metrics,
	}
	if e.timeout <= 0 {
		e.timeout = 30 * time.Second
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	return e
}

// Enrich embeds the note's title and plain text. In async mode it returns at once.
func (e *Enricher) Enrich(noteID, title, content string) {
	if e == nil || e.emb == nil {
		return
	}
	if !e.async {
		e.run(noteID, title, content)
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(noteID, title, content)
	}()
}

// Wait blocks until in-flight enrichment finishes or ctx ends.
func (e *Enricher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Enricher) run(noteID, title, content string) {
	log := e.log.WithField("note_id", noteID)
	defer func() {
		if r := recover(); r != nil {
			e.metrics.ObserveEnrichment("panic")
			log.WithField("panic", fmt.Sprint(r)).Error("embedding enrichment panicked")
		}
	}()

	// detached from the request: the response has usually been sent already
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	text := strings.TrimSpace(title + "\n\n" + richtext.PlainText(content))
	vec, err := e.emb.GenerateEmbedding(ctx, text)
	if err != nil {
		e.metrics.ObserveEnrichment("embedding_failed")
		log.WithError(err).Warn("note saved without embedding")
		return
	}
	if err := e.repo.UpdateEmbedding(ctx, noteID, vec); err != nil {
		e.metrics.ObserveEnrichment("store_failed")
		log.WithError(err).Warn("could not store note embedding")
		return
	}
	e.metrics.ObserveEnrichment("ok")
	log.WithField("dimension", len(vec)).Debug("note embedding stored")
}
