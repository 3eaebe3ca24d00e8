package ai

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

const placeholderRule = `Use real, specific content. Never write placeholders such as "Option 1", "Option A", "Answer 1", "Term", "Definition", "N/A", "undefined", "null" or "...".`

func quizPrompt(req QuizRequest, material string) string {
	var b strings.Builder
	grade := req.GradeLevel
	if grade == "" {
		grade = "general"
	}
	fmt.Fprintf(&b, "You are an experienced %s teacher writing a quiz for %s students.\n", req.Subject, grade)
	if req.Title != "" {
		fmt.Fprintf(&b, "Quiz title: %s\n", req.Title)
	}
	fmt.Fprintf(&b, "Write exactly %d questions. Difficulty: %s.\n\n", req.NumQuestions, req.Difficulty)

	b.WriteString("Rules:\n")
	if req.QuestionType == TypeTrueFalse {
		b.WriteString("- Every question is a single statement that is either true or false.\n")
		b.WriteString(`- Every question has exactly two answers, "True" and "False", and exactly one has "is_correct": true.` + "\n")
	} else {
		b.WriteString("- Every question has exactly 4 answers and exactly one has \"is_correct\": true.\n")
		b.WriteString("- Wrong answers must be plausible for the grade level.\n")
	}
	b.WriteString("- " + placeholderRule + "\n")
	b.WriteString("- Add a one-sentence explanation of the correct answer.\n")
	if material != "" {
		b.WriteString("- Base every question on the source material below.\n")
	}
	b.WriteString("\nReturn ONLY JSON with no prose and no markdown, in exactly this shape:\n")
	b.WriteString(`{"questions":[{"question_text":"...","explanation":"...","answers":[{"answer_text":"...","is_correct":true},{"answer_text":"...","is_correct":false}]}]}`)
	b.WriteString("\n")
	writeMaterial(&b, material)
	return b.String()
}

func flashcardPrompt(req FlashcardRequest, material string, count int, avoid []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d study flashcards for %s students studying %s", count, req.GradeLevel, req.Subject)
	if req.Topic != "" {
		fmt.Fprintf(&b, " (topic: %s)", req.Topic)
	}
	fmt.Fprintf(&b, ". Difficulty: %s.\n", req.Difficulty)
	if req.Title != "" {
		fmt.Fprintf(&b, "Deck title: %s\n", req.Title)
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- \"front\" is a term, concept or short question.\n")
	b.WriteString("- \"back\" is a concise answer or definition of one or two sentences.\n")
	b.WriteString("- Every card covers a different idea.\n")
	b.WriteString("- " + placeholderRule + "\n")
	if len(avoid) > 0 {
		b.WriteString("- Do NOT repeat any of these existing card fronts:\n")
		for _, f := range avoid {
			b.WriteString("  - " + f + "\n")
		}
	}
	b.WriteString("\nReturn ONLY JSON with no prose and no markdown, in exactly this shape:\n")
	b.WriteString(`{"cards":[{"front":"...","back":"..."}]}`)
	b.WriteString("\n")
	writeMaterial(&b, material)
	return b.String()
}

func writeMaterial(b *strings.Builder, material string) {
	if material == "" {
		return
	}
	b.WriteString("\nSource material:\n\"\"\"\n")
	b.WriteString(material)
	b.WriteString("\n\"\"\"\n")
}

func quizSchema() *jsonschema.Definition {
	answer := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"answer_text": {Type: jsonschema.String},
			"is_correct":  {Type: jsonschema.Boolean},
		},
		Required:             []string{"answer_text", "is_correct"},
		AdditionalProperties: false,
	}
	question := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"question_text": {Type: jsonschema.String},
			"explanation":   {Type: jsonschema.String},
			"answers":       {Type: jsonschema.Array, Items: &answer},
		},
		Required:             []string{"question_text", "explanation", "answers"},
		AdditionalProperties: false,
	}
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"questions": {Type: jsonschema.Array, Items: &question},
		},
		Required:             []string{"questions"},
		AdditionalProperties: false,
	}
}

func flashcardSchema() *jsonschema.Definition {
	card := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"front": {Type: jsonschema.String},
			"back":  {Type: jsonschema.String},
		},
		Required:             []string{"front", "back"},
		AdditionalProperties: false,
	}
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"cards": {Type: jsonschema.Array, Items: &card},
		},
		Required:             []string{"cards"},
		AdditionalProperties: false,
	}
}
