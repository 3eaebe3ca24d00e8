package ai

import (
	"fmt"
	"strconv"
	"strings"
)

type rawAnswer struct {
	text    string
	correct bool
}

type rawQuestion struct {
	text        string
	explanation string
	answers     []rawAnswer
	hint        interface{}
}

var (
	questionTextKeys = []string{"question_text", "questionText", "question", "text", "prompt", "statement"}
	answerListKeys   = []string{"answers", "options", "choices"}
	answerTextKeys   = []string{"answer_text", "answerText", "text", "answer", "option", "label", "value", "content"}
	correctFlagKeys  = []string{"is_correct", "isCorrect", "correct"}
	correctHintKeys  = []string{"correct_answer", "correctAnswer", "correct_index", "correctIndex", "answer", "correct"}
	explanationKeys  = []string{"explanation", "rationale", "reason"}
)

// extractQuestions accepts {"questions":[...]}, a bare array, a nested
// {"quiz":{"questions":[...]}} or a single question object.
func extractQuestions(v interface{}) []rawQuestion {
	switch t := v.(type) {
	case []interface{}:
		out := make([]rawQuestion, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok {
				if q, ok := rawQuestionFrom(m); ok {
					out = append(out, q)
				}
			}
		}
		return out
	case map[string]interface{}:
		if list, ok := t["questions"]; ok {
			return extractQuestions(list)
		}
		if quiz, ok := t["quiz"]; ok {
			return extractQuestions(quiz)
		}
		if q, ok := rawQuestionFrom(t); ok {
			return []rawQuestion{q}
		}
	}
	return nil
}

func rawQuestionFrom(m map[string]interface{}) (rawQuestion, bool) {
	q := rawQuestion{
		text:        firstString(m, questionTextKeys),
		explanation: firstString(m, explanationKeys),
	}
	if q.text == "" {
		return q, false
	}
	for _, key := range answerListKeys {
		if list, ok := m[key].([]interface{}); ok {
			q.answers = answersFrom(list)
			break
		}
	}
	for _, key := range correctHintKeys {
		if v, ok := m[key]; ok {
			if _, isList := v.([]interface{}); isList {
				continue
			}
			q.hint = v
			break
		}
	}
	return q, true
}

func answersFrom(list []interface{}) []rawAnswer {
	out := make([]rawAnswer, 0, len(list))
	for _, item := range list {
		switch a := item.(type) {
		case string:
			out = append(out, rawAnswer{text: strings.TrimSpace(a)})
		case map[string]interface{}:
			ans := rawAnswer{text: firstString(a, answerTextKeys)}
			for _, key := range correctFlagKeys {
				if v, ok := a[key]; ok {
					ans.correct = truthy(v)
					break
				}
			}
			out = append(out, ans)
		case bool:
			out = append(out, rawAnswer{text: titleBool(a)})
		}
	}
	return out
}

// normalizeMultipleChoice returns exactly four answers with exactly one
// marked correct.
func normalizeMultipleChoice(q rawQuestion) []Answer {
	answers := make([]rawAnswer, 0, len(q.answers))
	for _, a := range q.answers {
		if a.text != "" {
			answers = append(answers, a)
		}
	}
	if !anyCorrect(answers) {
		if idx := hintIndex(q.hint, answers); idx >= 0 {
			answers[idx].correct = true
		}
	}

	if len(answers) > 4 {
		first := firstCorrect(answers)
		kept := append([]rawAnswer(nil), answers[:4]...)
		if first >= 4 {
			kept[3] = answers[first]
		}
		answers = kept
	}
	for len(answers) < 4 {
		answers = append(answers, rawAnswer{text: fmt.Sprintf("Option %d", len(answers)+1)})
	}

	correct := firstCorrect(answers)
	if correct < 0 {
		correct = 0
	}
	out := make([]Answer, len(answers))
	for i, a := range answers {
		out[i] = Answer{AnswerText: a.text, IsCorrect: i == correct, OrderIndex: i}
	}
	return out
}

// normalizeTrueFalse returns a True answer followed by a False answer.
func normalizeTrueFalse(q rawQuestion) []Answer {
	trueIsCorrect, decided := false, false
	for _, a := range q.answers {
		label, ok := boolLabel(a.text)
		if !ok {
			continue
		}
		if a.correct {
			trueIsCorrect, decided = label, true
			break
		}
	}
	if !decided {
		// A lone labelled answer marked wrong implies the other side.
		var labels []bool
		for _, a := range q.answers {
			if label, ok := boolLabel(a.text); ok {
				labels = append(labels, label)
			}
		}
		if len(labels) == 1 {
			trueIsCorrect, decided = !labels[0], true
		}
	}
	if !decided && q.hint != nil {
		switch h := q.hint.(type) {
		case bool:
			trueIsCorrect, decided = h, true
		case string:
			if label, ok := boolLabel(h); ok {
				trueIsCorrect, decided = label, true
			}
		}
	}
	if !decided {
		trueIsCorrect = true
	}
	return []Answer{
		{AnswerText: "True", IsCorrect: trueIsCorrect, OrderIndex: 0},
		{AnswerText: "False", IsCorrect: !trueIsCorrect, OrderIndex: 1},
	}
}

func hintIndex(hint interface{}, answers []rawAnswer) int {
	n := len(answers)
	if hint == nil || n == 0 {
		return -1
	}
	switch h := hint.(type) {
	case float64:
		return numericIndex(int(h), n)
	case string:
		h = strings.TrimSpace(h)
		for i, a := range answers {
			if strings.EqualFold(strings.TrimSpace(a.text), h) {
				return i
			}
		}
		if len(h) == 1 {
			c := strings.ToUpper(h)[0]
			if c >= 'A' && c <= 'Z' && int(c-'A') < n {
				return int(c - 'A')
			}
		}
		if i, err := strconv.Atoi(h); err == nil {
			return numericIndex(i, n)
		}
	}
	return -1
}

// numericIndex reads i as a one-based option number ("answer 2" is the
// second option). 0 has no one-based meaning and selects the first option.
func numericIndex(i, n int) int {
	switch {
	case i == 0:
		return 0
	case i >= 1 && i <= n:
		return i - 1
	}
	return -1
}

func anyCorrect(answers []rawAnswer) bool {
	return firstCorrect(answers) >= 0
}

func firstCorrect(answers []rawAnswer) int {
	for i, a := range answers {
		if a.correct {
			return i
		}
	}
	return -1
}

func boolLabel(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes":
		return true, true
	case "false", "f", "no":
		return false, true
	}
	return false, false
}

func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		b, ok := boolLabel(t)
		return ok && b
	}
	return false
}

func firstString(m map[string]interface{}, keys []string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return titleBool(v)
		}
	}
	return ""
}
