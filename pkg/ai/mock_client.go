// pkg/ai/mock_client.go

package ai

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// mockDimension matches nothing in particular; it only has to be stable.
const mockDimension = 64

// mockClient answers without any network access. It is wired in when no API key is configured.
type mockClient struct{}

func NewMock() Client { return &mockClient{} }

func (m *mockClient) Complete(ctx context.Context, system string, msgs []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	last := lastUserMessage(msgs)
	if strings.Contains(strings.ToLower(system+last), "multiple-choice") {
		return mockQuiz(last), nil
	}
	return "Offline mode: no language model is configured.", nil
}

func (m *mockClient) Stream(ctx context.Context, system string, msgs []Message) (<-chan Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	answer := "Offline mode: no language model is configured, so I cannot answer \"" +
		strings.TrimSpace(lastUserMessage(msgs)) + "\" from your notes yet."
	words := strings.SplitAfter(answer, " ")

	out := make(chan Fragment)
	go func() {
		defer close(out)
		for _, w := range words {
			select {
			case out <- Fragment{Text: w}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Embed hashes words into a fixed-size bag-of-words vector, L2-normalised.
func (m *mockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, mockDimension)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%mockDimension]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return vec, nil
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec, nil
}

func lastUserMessage(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != RoleAssistant {
			return msgs[i].Content
		}
	}
	return ""
}

var quizCountRX = regexp.MustCompile(`exactly (\d+) multiple-choice`)

func mockQuiz(prompt string) string {
	subject := "this note"
	if i := strings.Index(prompt, "Note content:"); i >= 0 {
		if line := strings.TrimSpace(strings.SplitN(prompt[i+len("Note content:"):], "\n\n", 2)[0]); line != "" {
			if r := []rune(line); len(r) > 40 {
				line = string(r[:40]) + "..."
			}
			subject = line
		}
	}
	type q struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correctAnswer"`
	}
	templates := []q{
		{Question: "Which statement best summarises " + subject + "?", Options: []string{"The main idea of the note", "An unrelated fact", "A contradiction of the note", "None of the above"}, CorrectAnswer: 0},
		{Question: "What is the best way to review " + subject + "?", Options: []string{"Skip it", "Re-read it and test yourself", "Delete it", "Ignore the details"}, CorrectAnswer: 1},
		{Question: "How confident should you be after one reading of " + subject + "?", Options: []string{"Completely", "Not at all", "Somewhat, until you practise", "It does not matter"}, CorrectAnswer: 2},
	}
	n := len(templates)
	if m := quizCountRX.FindStringSubmatch(prompt); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			n = v
		}
	}
	quiz := make([]q, n)
	for i := range quiz {
		quiz[i] = templates[i%len(templates)]
	}
	b, _ := json.Marshal(quiz)
	return string(b)
}
