package serviceImp

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes/database"
	"studynotes/pkg/apperr"
	"studynotes/pkg/logger"
	"studynotes/pkg/metrics"
	"studynotes/pkg/note/repository"
	"studynotes/pkg/note/repositoryImp"
	"studynotes/pkg/validation"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls atomic.Int32
	last  atomic.Value
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	f.last.Store(text)
	return f.vec, f.err
}

type panicEmbedder struct{}

func (panicEmbedder) GenerateEmbedding(context.Context, string) ([]float32, error) {
	panic("boom")
}

func newRepo(t *testing.T) repository.NoteRepository {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return repositoryImp.New(db)
}

func newSvc(t *testing.T, emb Embedder, m *metrics.Metrics) (*Svc, repository.NoteRepository) {
	t.Helper()
	r := newRepo(t)
	enr := NewEnricher(r, emb, EnricherOptions{Async: false, Timeout: time.Second, Logger: logger.Discard(), Metrics: m})
	return New(r, validation.NewRequestValidator(), enr, emb, logger.Discard()), r
}

func TestSave_ContentRoundTripsUnchanged(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vec: []float32{1, 0, 0}}
	s, r := newSvc(t, emb, nil)

	content := `<h1>Photosynthesis</h1><p>Light &amp; <strong>water</strong> become sugar.</p>`
	n, err := s.Save(ctx, "u1", "u1@example.com", validation.NoteInput{Title: "Bio", Content: content})
	require.NoError(t, err)

	notes, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, n.ID, notes[0].ID)
	assert.Equal(t, content, notes[0].Content)
	assert.Equal(t, "Bio", notes[0].Title)

	stored, err := r.FindByID(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, stored.HasEmbedding())
	assert.Equal(t, []float32{1, 0, 0}, stored.Embedding.Slice())
	assert.Equal(t, "Bio\n\nPhotosynthesis\nLight & water become sugar.", emb.last.Load())
}

func TestSave_RejectsEmptyDocument(t *testing.T) {
	ctx := context.Background()
	s, _ := newSvc(t, nil, nil)

	for _, title := range []string{"Anything", "x", "A longer title"} {
		_, err := s.Save(ctx, "u1", "", validation.NoteInput{Title: title, Content: "<p></p>"})
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve, title)
		assert.Contains(t, ve.Fields, "content")
	}

	notes, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestSave_RequiresUser(t *testing.T) {
	s, _ := newSvc(t, nil, nil)
	_, err := s.Save(context.Background(), "", "", validation.NoteInput{Title: "t", Content: "<p>c</p>"})
	var ae *apperr.AuthenticationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 401, apperr.Status(err))
}

func TestSave_EmbeddingFailureStillCreatesNote(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	emb := &fakeEmbedder{err: &apperr.EmbeddingError{Reason: "service unavailable"}}
	s, r := newSvc(t, emb, m)

	n, err := s.Save(ctx, "u1", "", validation.NoteInput{Title: "t", Content: "<p>c</p>"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), emb.calls.Load())

	stored, err := r.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Embedding)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EnrichmentResults.WithLabelValues("embedding_failed")))
}

func TestSave_EnrichmentPanicIsContained(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	s, r := newSvc(t, panicEmbedder{}, m)

	n, err := s.Save(ctx, "u1", "", validation.NoteInput{Title: "t", Content: "<p>c</p>"})
	require.NoError(t, err)
	_, err = r.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EnrichmentResults.WithLabelValues("panic")))
}

func TestEnricher_AsyncWait(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	emb := &fakeEmbedder{vec: []float32{0.25, 0.75}}
	enr := NewEnricher(r, emb, EnricherOptions{Async: true, Logger: logger.Discard()})
	s := New(r, validation.NewRequestValidator(), enr, emb, logger.Discard())

	n, err := s.Save(ctx, "u1", "", validation.NoteInput{Title: "t", Content: "<p>c</p>"})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, enr.Wait(waitCtx))

	stored, err := r.FindByID(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, stored.HasEmbedding())
}

func TestGetAndDelete_Ownership(t *testing.T) {
	ctx := context.Background()
	s, _ := newSvc(t, nil, nil)

	n, err := s.Save(ctx, "owner", "", validation.NoteInput{Title: "t", Content: "<p>c</p>"})
	require.NoError(t, err)

	got, err := s.Get(ctx, "owner", n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)

	var nf *apperr.NotFoundError
	_, err = s.Get(ctx, "intruder", n.ID)
	require.ErrorAs(t, err, &nf)

	require.ErrorAs(t, s.Delete(ctx, "intruder", n.ID), &nf)
	_, err = s.Get(ctx, "owner", n.ID)
	require.NoError(t, err)
}

func TestDelete_NonexistentLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s, _ := newSvc(t, nil, nil)

	_, err := s.Save(ctx, "u1", "", validation.NoteInput{Title: "keep", Content: "<p>c</p>"})
	require.NoError(t, err)

	err = s.Delete(ctx, "u1", uuid.NewString())
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 404, apperr.Status(err))

	notes, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "keep", notes[0].Title)
}

func TestDelete_RemovesNote(t *testing.T) {
	ctx := context.Background()
	s, _ := newSvc(t, nil, nil)

	n, err := s.Save(ctx, "u1", "", validation.NoteInput{Title: "t", Content: "<p>c</p>"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "u1", n.ID))

	notes, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

// directionalEmbedder maps known words to fixed axes.
type directionalEmbedder struct{}

func (directionalEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "plant"), strings.Contains(text, "Photosynthesis"):
		return []float32{1, 0}, nil
	case strings.Contains(text, "History"):
		return []float32{0, 1}, nil
	}
	return nil, &apperr.EmbeddingError{Reason: "unknown"}
}

func TestSearch_RanksByEmbedding(t *testing.T) {
	ctx := context.Background()
	s, _ := newSvc(t, directionalEmbedder{}, nil)

	bio, err := s.Save(ctx, "u1", "", validation.NoteInput{Title: "Photosynthesis", Content: "<p>Light to sugar</p>"})
	require.NoError(t, err)
	_, err = s.Save(ctx, "u1", "", validation.NoteInput{Title: "History", Content: "<p>Dates</p>"})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "u1", "how do plants eat", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, bio.ID, hits[0].Note.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestSearch_KeywordFallback(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{err: &apperr.EmbeddingError{Reason: "down"}}
	s, _ := newSvc(t, emb, nil)

	_, err := s.Save(ctx, "u1", "", validation.NoteInput{Title: "Cells", Content: "<p>The mitochondria is the powerhouse</p>"})
	require.NoError(t, err)
	_, err = s.Save(ctx, "u1", "", validation.NoteInput{Title: "Rocks", Content: "<p>Granite</p>"})
	require.NoError(t, err)
	_, err = s.Save(ctx, "u2", "", validation.NoteInput{Title: "Mitochondria", Content: "<p>other user</p>"})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "u1", "Mitochondria", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Cells", hits[0].Note.Title)

	_, err = s.Search(ctx, "u1", "  ", 5)
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSearch_PropagatesUnexpectedEmbedderErrors(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("not an embedding error")}
	s, _ := newSvc(t, emb, nil)
	_, err := s.Search(context.Background(), "u1", "q", 5)
	require.Error(t, err)
}
