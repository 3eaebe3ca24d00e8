package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/tutorhub/tutorhub-api/internal/logger"
)

// Generator turns study requests into quiz questions and flashcards.
type Generator struct {
	llm          Completer
	pdf          *PDFExtractor
	log          *logger.Logger
	contextLimit int
}

func NewGenerator(llm Completer, pdf *PDFExtractor, log *logger.Logger, contextLimit int) *Generator {
	if pdf == nil {
		pdf = NewPDFExtractor(log, 0)
	}
	return &Generator{llm: llm, pdf: pdf, log: log, contextLimit: contextLimit}
}

// GenerateQuiz returns ErrNotConfigured, an *UpstreamError or a
// *MalformedOutputError on failure; it has no fallback content.
func (g *Generator) GenerateQuiz(ctx context.Context, req QuizRequest) (*QuizResult, error) {
	req = req.withDefaults()
	material := g.material(ctx, req.PDFText, req.PDFBase64)

	content, err := g.llm.Complete(ctx, CompletionRequest{
		Prompt:     quizPrompt(req, material),
		SchemaName: "quiz_questions",
		Schema:     quizSchema(),
	})
	if err != nil {
		return nil, err
	}

	var parsed interface{}
	if err := ParseLenient(content, &parsed); err != nil {
		g.log.Warn("quiz output not parseable", "subject", req.Subject, "chars", len(content))
		return nil, err
	}
	raws := extractQuestions(parsed)
	if len(raws) == 0 {
		return nil, &MalformedOutputError{Raw: content}
	}
	if len(raws) > int(req.NumQuestions) {
		raws = raws[:req.NumQuestions]
	}

	meta := QuestionMetadata{
		Subject:    req.Subject,
		GradeLevel: req.GradeLevel,
		Difficulty: req.Difficulty,
		Provider:   Provider,
		Model:      g.llm.Model(),
	}
	questions := make([]Question, len(raws))
	for i, raw := range raws {
		q := Question{
			QuestionText:  raw.text,
			QuestionType:  req.QuestionType,
			Explanation:   raw.explanation,
			Points:        1,
			OrderIndex:    i,
			IsAIGenerated: true,
			AIStatus:      AIStatusPending,
			Metadata:      meta,
		}
		if req.QuestionType == TypeTrueFalse {
			q.Answers = normalizeTrueFalse(raw)
		} else {
			q.Answers = normalizeMultipleChoice(raw)
		}
		questions[i] = q
	}
	g.log.Info("quiz generated", "subject", req.Subject, "type", req.QuestionType, "questions", len(questions))
	return &QuizResult{Questions: questions, Model: g.llm.Model()}, nil
}

// material prefers caller supplied text and falls back to extracting the
// attached PDFs.
func (g *Generator) material(ctx context.Context, text string, pdfs []string) string {
	text = strings.TrimSpace(text)
	if text == "" && len(pdfs) > 0 {
		text = g.pdf.ExtractBase64(ctx, pdfs)
	}
	return truncateRunes(text, g.contextLimit)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}
