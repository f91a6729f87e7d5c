package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes/database"
	"studynotes/entities"
	"studynotes/pkg/ai"
	"studynotes/pkg/apperr"
	"studynotes/pkg/chat/service"
	"studynotes/pkg/logger"
	"studynotes/pkg/note/repository"
	"studynotes/pkg/note/repositoryImp"
)

func newRepo(t *testing.T) repository.NoteRepository {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return repositoryImp.New(db)
}

func seed(t *testing.T, r repository.NoteRepository, owner string, n int) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		require.NoError(t, r.Insert(context.Background(), &entities.Note{
			AuthorID:  owner,
			Title:     fmt.Sprintf("Title %d", i),
			Content:   fmt.Sprintf("<p>Body %d</p>", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
}

func TestAssemble_NoNotesGivesPlaceholder(t *testing.T) {
	a := NewContextAssembler(newRepo(t), 5, 0, nil)
	out, err := a.Assemble(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, NoNotesPlaceholder, out)
}

func TestAssemble_CapsAtFiveInStableOrder(t *testing.T) {
	r := newRepo(t)
	seed(t, r, "u1", 7)
	a := NewContextAssembler(r, 5, 0, nil)

	first, err := a.Assemble(context.Background(), "u1")
	require.NoError(t, err)
	second, err := a.Assemble(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries := strings.Split(first, "\n\n---\n\n")
	require.Len(t, entries, 5)
	assert.Equal(t, "Note 1: \"Title 7\"\n<p>Body 7</p>", entries[0])
	assert.Equal(t, "Note 5: \"Title 3\"\n<p>Body 3</p>", entries[4])
}

func TestRender_TokenBudget(t *testing.T) {
	a := NewContextAssembler(nil, 5, 10, ai.EstimateCounter{})
	notes := []entities.Note{
		{Title: "A", Content: strings.Repeat("x", 100)},
		{Title: "B", Content: "short"},
	}
	out := a.Render(notes)
	assert.True(t, strings.HasPrefix(out, "Note 1: \"A\"\n"))
	assert.Len(t, []rune(out), 40)
	assert.NotContains(t, out, "Note 2")

	roomy := NewContextAssembler(nil, 5, 1000, ai.EstimateCounter{})
	assert.Contains(t, roomy.Render(notes), "Note 2: \"B\"\nshort")
}

type recordingGenerator struct {
	system   string
	history  []ai.Message
	question string
	err      error
}

func (g *recordingGenerator) GenerateAnswer(_ context.Context, system string, history []ai.Message, question string) (<-chan ai.Fragment, error) {
	g.system, g.history, g.question = system, history, question
	if g.err != nil {
		return nil, g.err
	}
	out := make(chan ai.Fragment, 2)
	out <- ai.Fragment{Text: "from "}
	out <- ai.Fragment{Text: "notes"}
	close(out)
	return out, nil
}

func collect(ch <-chan ai.Fragment) string {
	var sb strings.Builder
	for f := range ch {
		sb.WriteString(f.Text)
	}
	return sb.String()
}

func TestAsk_ProceedsWithPlaceholder(t *testing.T) {
	gen := &recordingGenerator{}
	s := New(NewContextAssembler(newRepo(t), 5, 0, nil), gen, logger.Discard())

	ch, err := s.Ask(context.Background(), service.AskRequest{UserID: "u1", Question: "What is ATP?"})
	require.NoError(t, err)
	assert.Equal(t, "from notes", collect(ch))

	assert.Contains(t, gen.system, NoNotesPlaceholder)
	assert.Contains(t, gen.system, "If the notes do not contain relevant information, say so explicitly.")
	assert.Equal(t, "What is ATP?", gen.question)
}

func TestAsk_EmbedsContextAndHistory(t *testing.T) {
	r := newRepo(t)
	seed(t, r, "u1", 2)
	gen := &recordingGenerator{}
	s := New(NewContextAssembler(r, 5, 0, nil), gen, logger.Discard())

	history := []ai.Message{{Role: ai.RoleUser, Content: "hi"}, {Role: ai.RoleAssistant, Content: "hello"}}
	_, err := s.Ask(context.Background(), service.AskRequest{UserID: "u1", Question: "q", History: history})
	require.NoError(t, err)
	assert.Contains(t, gen.system, "Note 1: \"Title 2\"\n<p>Body 2</p>\n\n---\n\nNote 2: \"Title 1\"")
	assert.Equal(t, history, gen.history)
}

func TestAsk_Validation(t *testing.T) {
	s := New(NewContextAssembler(newRepo(t), 5, 0, nil), &recordingGenerator{}, logger.Discard())

	var ve *apperr.ValidationError
	_, err := s.Ask(context.Background(), service.AskRequest{UserID: "u1", Question: "   "})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "question")

	_, err = s.Ask(context.Background(), service.AskRequest{Question: "q"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "userId")
}

func TestAsk_InvocationFailure(t *testing.T) {
	failure := &apperr.GenerationServiceError{Op: "answer generation", Err: errors.New("503")}
	s := New(NewContextAssembler(newRepo(t), 5, 0, nil), &recordingGenerator{err: failure}, logger.Discard())

	_, err := s.Ask(context.Background(), service.AskRequest{UserID: "u1", Question: "q"})
	require.ErrorIs(t, err, failure)
	assert.Equal(t, 500, apperr.Status(err))
}
