package types

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

type Quiz []Question
