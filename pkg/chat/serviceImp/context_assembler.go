package serviceImp

import (
	"context"
	"fmt"
	"strings"

	"studynotes/entities"
	"studynotes/pkg/ai"
	"studynotes/pkg/note/repository"
)

const (
	NoNotesPlaceholder = "(no notes available)"
	entryDelimiter     = "\n\n---\n\n"

	DefaultNoteLimit = 5
	DefaultMaxTokens = 6000
)

// ContextAssembler renders a user's most recent notes into the block that is
// embedded in the chat system prompt.
type ContextAssembler struct {
	repo      repository.NoteRepository
	limit     int
	maxTokens int
	counter   ai.TokenCounter
}

func NewContextAssembler(repo repository.NoteRepository, limit, maxTokens int, counter ai.TokenCounter) *ContextAssembler {
	if limit <= 0 {
		limit = DefaultNoteLimit
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if counter == nil {
		counter = ai.EstimateCounter{}
	}
	return &ContextAssembler{repo: repo, limit: limit, maxTokens: maxTokens, counter: counter}
}

func (a *ContextAssembler) Assemble(ctx context.Context, userID string) (string, error) {
	notes, err := a.repo.FindByOwner(ctx, userID, a.limit)
	if err != nil {
		return "", err
	}
	return a.Render(notes), nil
}

// Render is deterministic for a given slice. The first entry is always kept,
// cut down to the token budget if it alone exceeds it; later entries are added
// only while they fit whole.
func (a *ContextAssembler) Render(notes []entities.Note) string {
	if len(notes) == 0 {
		return NoNotesPlaceholder
	}
	var sb strings.Builder
	used := 0
	for i, n := range notes {
		entry := formatEntry(i+1, n)
		if i == 0 {
			entry = a.counter.TrimToTokenLimit(entry, a.maxTokens)
			used = a.counter.CountTokens(entry)
			sb.WriteString(entry)
			continue
		}
		cost := a.counter.CountTokens(entryDelimiter + entry)
		if used+cost > a.maxTokens {
			break
		}
		used += cost
		sb.WriteString(entryDelimiter)
		sb.WriteString(entry)
	}
	return sb.String()
}

func formatEntry(n int, note entities.Note) string {
	return fmt.Sprintf("Note %d: \"%s\"\n%s", n, note.Title, note.Content)
}
