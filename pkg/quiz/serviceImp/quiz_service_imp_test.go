package serviceImp

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes/database"
	"studynotes/entities"
	"studynotes/pkg/ai"
	"studynotes/pkg/apperr"
	"studynotes/pkg/logger"
	"studynotes/pkg/note/repository"
	"studynotes/pkg/note/repositoryImp"
)

type cannedClient struct {
	reply  string
	err    error
	prompt string
}

func (c *cannedClient) Complete(_ context.Context, _ string, msgs []ai.Message) (string, error) {
	c.prompt = msgs[len(msgs)-1].Content
	return c.reply, c.err
}

func (c *cannedClient) Stream(context.Context, string, []ai.Message) (<-chan ai.Fragment, error) {
	return nil, errors.New("not used")
}

func (c *cannedClient) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("not used")
}

func newRepo(t *testing.T) repository.NoteRepository {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return repositoryImp.New(db)
}

const photosynthesis = "Photosynthesis converts light into chemical energy."

const threeQuestions = `[
  {"question": "What does photosynthesis convert light into?", "options": ["Heat", "Chemical energy", "Sound", "Motion"], "correctAnswer": 1},
  {"question": "Which organisms photosynthesize?", "options": ["Plants", "Rocks", "Metals", "Clouds"], "correctAnswer": 0},
  {"question": "Photosynthesis needs which input?", "options": ["Darkness", "Salt", "Light", "Iron"], "correctAnswer": 2}
]`

func setup(t *testing.T, client ai.Client) (*Svc, *entities.Note) {
	t.Helper()
	r := newRepo(t)
	n := &entities.Note{AuthorID: "u1", Title: "Secret title", Content: photosynthesis}
	require.NoError(t, r.Insert(context.Background(), n))
	gen := ai.NewGenerator(client, ai.WithLogger(logger.Discard()))
	return New(r, gen, logger.Discard()), n
}

func TestGenerate_ThreeQuestions(t *testing.T) {
	client := &cannedClient{reply: threeQuestions}
	s, n := setup(t, client)

	quiz, err := s.Generate(context.Background(), "u1", n.ID)
	require.NoError(t, err)
	require.Len(t, quiz, 3)
	for _, q := range quiz {
		assert.Len(t, q.Options, 4)
		assert.True(t, q.CorrectAnswer >= 0 && q.CorrectAnswer <= 3)
	}
	assert.Contains(t, client.prompt, photosynthesis)
	assert.NotContains(t, client.prompt, "Secret title")
}

func TestGenerate_ProseOnlyIsParseError(t *testing.T) {
	s, n := setup(t, &cannedClient{reply: "Sorry, I cannot make a quiz from this."})

	_, err := s.Generate(context.Background(), "u1", n.ID)
	var pe *apperr.QuizParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 500, apperr.Status(err))
}

func TestGenerate_NotFoundAndOwnership(t *testing.T) {
	client := &cannedClient{reply: threeQuestions}
	s, n := setup(t, client)

	var nf *apperr.NotFoundError
	_, err := s.Generate(context.Background(), "u1", "missing")
	require.ErrorAs(t, err, &nf)

	_, err = s.Generate(context.Background(), "u2", n.ID)
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, client.prompt, "generation must not run for a foreign note")
}

func TestGenerate_ServiceFailure(t *testing.T) {
	s, n := setup(t, &cannedClient{err: errors.New("rate limited")})

	_, err := s.Generate(context.Background(), "u1", n.ID)
	var ge *apperr.GenerationServiceError
	require.ErrorAs(t, err, &ge)
	assert.Contains(t, apperr.PublicMessage(err), "rate limited")
}
