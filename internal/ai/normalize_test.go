package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFromJSON(t *testing.T, s string) rawQuestion {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	qs := extractQuestions(v)
	require.Len(t, qs, 1)
	return qs[0]
}

func texts(answers []Answer) []string {
	out := make([]string, len(answers))
	for i, a := range answers {
		out[i] = a.AnswerText
	}
	return out
}

func correctIndexes(answers []Answer) []int {
	var out []int
	for i, a := range answers {
		if a.IsCorrect {
			out = append(out, i)
		}
	}
	return out
}

func TestMultipleChoicePadsToFour(t *testing.T) {
	q := rawFromJSON(t, `{"question":"2+2?","options":["4","5"],"correct_answer":"4"}`)
	answers := normalizeMultipleChoice(q)
	assert.Equal(t, []string{"4", "5", "Option 3", "Option 4"}, texts(answers))
	assert.Equal(t, []int{0}, correctIndexes(answers))
	for i, a := range answers {
		assert.Equal(t, i, a.OrderIndex)
	}
}

func TestMultipleChoiceTruncationKeepsCorrect(t *testing.T) {
	q := rawFromJSON(t, `{"question_text":"Pick F","answers":[
		{"answer_text":"A"},{"answer_text":"B"},{"answer_text":"C"},
		{"answer_text":"D"},{"answer_text":"E"},{"answer_text":"F","is_correct":true}]}`)
	answers := normalizeMultipleChoice(q)
	assert.Equal(t, []string{"A", "B", "C", "F"}, texts(answers))
	assert.Equal(t, []int{3}, correctIndexes(answers))
}

func TestMultipleChoiceExactlyOneCorrect(t *testing.T) {
	q := rawFromJSON(t, `{"question_text":"Q","answers":[
		{"text":"A","correct":false},{"text":"B","correct":true},
		{"text":"C","correct":true},{"text":"D","correct":"true"}]}`)
	assert.Equal(t, []int{1}, correctIndexes(normalizeMultipleChoice(q)))

	none := rawFromJSON(t, `{"question_text":"Q","answers":["A","B","C","D"]}`)
	assert.Equal(t, []int{0}, correctIndexes(normalizeMultipleChoice(none)))
}

func TestMultipleChoiceHints(t *testing.T) {
	tests := []struct {
		hint string
		want int
	}{
		{`"C"`, 2},
		{`1`, 0},
		{`2`, 1},
		{`4`, 3},
		{`"3"`, 2},
		{`0`, 0},
		{`9`, 0},
		{`"delta"`, 3},
	}
	for _, tt := range tests {
		q := rawFromJSON(t, `{"question_text":"Q","answers":["alpha","beta","gamma","Delta"],"correct_answer":`+tt.hint+`}`)
		assert.Equal(t, []int{tt.want}, correctIndexes(normalizeMultipleChoice(q)), tt.hint)
	}
}

func TestTrueFalse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		trueRight bool
	}{
		{"labelled", `{"question_text":"S","answers":[{"answer_text":"true","is_correct":false},{"answer_text":"FALSE","is_correct":true}]}`, false},
		{"complement", `{"question_text":"S","answers":[{"answer_text":"True","is_correct":false}]}`, false},
		{"question hint bool", `{"question_text":"S","correct_answer":false}`, false},
		{"question hint string", `{"question_text":"S","correctAnswer":"True"}`, true},
		{"default", `{"question_text":"S"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := normalizeTrueFalse(rawFromJSON(t, tt.raw))
			require.Len(t, answers, 2)
			assert.Equal(t, []string{"True", "False"}, texts(answers))
			assert.Equal(t, tt.trueRight, answers[0].IsCorrect)
			assert.Equal(t, !tt.trueRight, answers[1].IsCorrect)
		})
	}
}

func TestExtractQuestionsShapes(t *testing.T) {
	for _, s := range []string{
		`{"questions":[{"question":"a"},{"question":"b"}]}`,
		`[{"question_text":"a"},{"questionText":"b"}]`,
		`{"quiz":{"questions":[{"text":"a"},{"prompt":"b"}]}}`,
	} {
		var v interface{}
		require.NoError(t, json.Unmarshal([]byte(s), &v))
		qs := extractQuestions(v)
		require.Len(t, qs, 2, s)
		assert.Equal(t, "a", qs[0].text)
		assert.Equal(t, "b", qs[1].text)
	}
}

func TestNormalizeQuestionType(t *testing.T) {
	assert.Equal(t, TypeTrueFalse, NormalizeQuestionType("true-false"))
	assert.Equal(t, TypeTrueFalse, NormalizeQuestionType("TF"))
	assert.Equal(t, TypeMultipleChoice, NormalizeQuestionType(""))
	assert.Equal(t, TypeMultipleChoice, NormalizeQuestionType("essay"))
}

func TestFlexibleRequestFields(t *testing.T) {
	var req QuizRequest
	require.NoError(t, json.Unmarshal([]byte(`{"subject":"Math","numQuestions":"7","pdfBase64":"abc"}`), &req))
	assert.EqualValues(t, 7, req.NumQuestions)
	assert.Equal(t, PDFPayloads{"abc"}, req.PDFBase64)

	require.NoError(t, json.Unmarshal([]byte(`{"subject":"Math","numQuestions":3,"pdfBase64":["a","b"]}`), &req))
	assert.EqualValues(t, 3, req.NumQuestions)
	assert.Equal(t, PDFPayloads{"a", "b"}, req.PDFBase64)

	assert.Error(t, json.Unmarshal([]byte(`{"numQuestions":"many"}`), &req))
}
