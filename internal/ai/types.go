package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"

	Provider = "openrouter"

	AIStatusPending = "pending"

	defaultQuestions  = 4
	maxQuestions      = 20
	defaultCards      = 10
	maxCards          = 50
	defaultDifficulty = "medium"
)

// FlexInt accepts a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexInt(int(n))
	return nil
}

// PDFPayloads accepts a single base64 string or an array of them.
type PDFPayloads []string

func (p *PDFPayloads) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*p = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s != "" {
		*p = PDFPayloads{s}
	}
	return nil
}

type QuizRequest struct {
	Subject      string      `json:"subject" validate:"required"`
	GradeLevel   string      `json:"gradeLevel"`
	NumQuestions FlexInt     `json:"numQuestions"`
	Difficulty   string      `json:"difficulty"`
	QuestionType string      `json:"questionType"`
	Title        string      `json:"title"`
	PDFText      string      `json:"pdfText"`
	PDFBase64    PDFPayloads `json:"pdfBase64"`
}

func (r QuizRequest) withDefaults() QuizRequest {
	r.Subject = strings.TrimSpace(r.Subject)
	r.NumQuestions = FlexInt(clamp(int(r.NumQuestions), defaultQuestions, maxQuestions))
	if strings.TrimSpace(r.Difficulty) == "" {
		r.Difficulty = defaultDifficulty
	}
	r.QuestionType = NormalizeQuestionType(r.QuestionType)
	return r
}

type FlashcardRequest struct {
	Subject    string      `json:"subject" validate:"required"`
	GradeLevel string      `json:"gradeLevel" validate:"required"`
	NumCards   FlexInt     `json:"numCards"`
	Difficulty string      `json:"difficulty"`
	Topic      string      `json:"topic"`
	Title      string      `json:"title"`
	PDFText    string      `json:"pdfText"`
	PDFBase64  PDFPayloads `json:"pdfBase64"`
}

func (r FlashcardRequest) withDefaults() FlashcardRequest {
	r.Subject = strings.TrimSpace(r.Subject)
	r.NumCards = FlexInt(clamp(int(r.NumCards), defaultCards, maxCards))
	if strings.TrimSpace(r.Difficulty) == "" {
		r.Difficulty = defaultDifficulty
	}
	return r
}

type Answer struct {
	AnswerText string `json:"answer_text"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index"`
}

type QuestionMetadata struct {
	Subject    string `json:"subject"`
	GradeLevel string `json:"gradeLevel"`
	Difficulty string `json:"difficulty"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

type Question struct {
	QuestionText  string           `json:"question_text"`
	QuestionType  string           `json:"question_type"`
	Explanation   string           `json:"explanation,omitempty"`
	Points        int              `json:"points"`
	OrderIndex    int              `json:"order_index"`
	Answers       []Answer         `json:"answers"`
	IsAIGenerated bool             `json:"is_ai_generated"`
	AIStatus      string           `json:"ai_status"`
	Metadata      QuestionMetadata `json:"metadata"`
}

type QuizResult struct {
	Questions []Question `json:"questions"`
	Model     string     `json:"model"`
}

type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardResult struct {
	Cards    []Card `json:"cards"`
	Fallback bool   `json:"fallback"`
	Source   string `json:"source"`
	Model    string `json:"model,omitempty"`
}

// NormalizeQuestionType maps the spellings clients send onto the two
// supported types; anything unknown is multiple choice.
func NormalizeQuestionType(t string) string {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(t, "-", "_"))) {
	case "true_false", "truefalse", "tf", "boolean", "true/false":
		return TypeTrueFalse
	}
	return TypeMultipleChoice
}

func clamp(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
