package serviceImp

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"studynotes/entities"
	"studynotes/pkg/apperr"
	"studynotes/pkg/note/repository"
	"studynotes/pkg/note/service"
	"studynotes/pkg/richtext"
	"studynotes/pkg/validation"
)

type Svc struct {
	r        repository.NoteRepository
	v        echo.Validator
	enricher *Enricher
	emb      Embedder
	log      logrus.FieldLogger
}

var _ service.NoteService = (*Svc)(nil)

// New wires the note service. enricher and emb may be nil; notes are then stored
// without embeddings and search falls back to keyword matching.
func New(r repository.NoteRepository, v echo.Validator, enricher *Enricher, emb Embedder, log logrus.FieldLogger) *Svc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Svc{r: r, v: v, enricher: enricher, emb: emb, log: log}
}

func (s *Svc) Save(ctx context.Context, userID, email string, in validation.NoteInput) (*entities.Note, error) {
	if userID == "" {
		return nil, &apperr.AuthenticationError{}
	}
	if err := s.v.Validate(&in); err != nil {
		return nil, err
	}
	if err := s.r.UpsertUser(ctx, userID, email); err != nil {
		return nil, err
	}

	n := &entities.Note{
		AuthorID: userID,
		Title:    in.Title,
		Content:  in.Content,
	}
	if err := s.r.Insert(ctx, n); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"note_id": n.ID, "user_id": userID}).Info("note saved")

	s.enricher.Enrich(n.ID, n.Title, n.Content)
	return n, nil
}

func (s *Svc) List(ctx context.Context, userID string) ([]entities.Note, error) {
	if userID == "" {
		return nil, &apperr.AuthenticationError{}
	}
	return s.r.FindByOwner(ctx, userID, 0)
}

// Get hides other users' notes behind the same NotFoundError as missing ones.
func (s *Svc) Get(ctx context.Context, userID, noteID string) (*entities.Note, error) {
	if userID == "" {
		return nil, &apperr.AuthenticationError{}
	}
	n, err := s.r.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.AuthorID != userID {
		return nil, &apperr.NotFoundError{Resource: "note", ID: noteID}
	}
	return n, nil
}

func (s *Svc) Delete(ctx context.Context, userID, noteID string) error {
	if _, err := s.Get(ctx, userID, noteID); err != nil {
		return err
	}
	if err := s.r.DeleteByID(ctx, noteID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"note_id": noteID, "user_id": userID}).Info("note deleted")
	return nil
}

// Search ranks the user's notes by cosine similarity to the query embedding and
// falls back to keyword matching when the query cannot be embedded.
func (s *Svc) Search(ctx context.Context, userID, query string, k int) ([]service.SearchHit, error) {
	if userID == "" {
		return nil, &apperr.AuthenticationError{}
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperr.Invalid("q", "Query is required")
	}
	if k <= 0 {
		k = 5
	}

	var qvec []float32
	if s.emb != nil {
		vec, err := s.emb.GenerateEmbedding(ctx, q)
		var ee *apperr.EmbeddingError
		switch {
		case err == nil:
			qvec = vec
		case errors.As(err, &ee):
			s.log.WithError(err).Debug("search falling back to keywords")
		default:
			return nil, err
		}
	}

	var hits []service.SearchHit
	if len(qvec) > 0 {
		notes, err := s.r.FindEmbedded(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			if !n.HasEmbedding() {
				continue
			}
			vec := n.Embedding.Slice()
			if len(vec) != len(qvec) {
				continue
			}
			if sc := cosine(qvec, vec); sc > 0 {
				hits = append(hits, service.SearchHit{Note: n, Score: sc})
			}
		}
	}
	if len(hits) == 0 {
		notes, err := s.r.FindByOwner(ctx, userID, 0)
		if err != nil {
			return nil, err
		}
		hits = keywordHits(notes, q)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// keywordHits scores each note by the share of query words it contains.
func keywordHits(notes []entities.Note, query string) []service.SearchHit {
	words := strings.Fields(strings.ToLower(query))
	var hits []service.SearchHit
	for _, n := range notes {
		text := strings.ToLower(n.Title + " " + richtext.PlainText(n.Content))
		matched := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				matched++
			}
		}
		if matched > 0 {
			hits = append(hits, service.SearchHit{Note: n, Score: float64(matched) / float64(len(words))})
		}
	}
	return hits
}
