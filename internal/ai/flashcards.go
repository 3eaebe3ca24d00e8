package ai

import (
	"context"
	"strings"
)

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

var fallbackCards = []Card{
	{Front: "What is active recall?", Back: "Testing yourself on material instead of rereading it, which strengthens memory retrieval."},
	{Front: "What is spaced repetition?", Back: "Reviewing material at increasing intervals so it moves into long-term memory."},
	{Front: "What is the Feynman technique?", Back: "Explaining a concept in simple words as if teaching it, to expose gaps in understanding."},
	{Front: "What is interleaving?", Back: "Mixing different topics or problem types in one study session instead of practising one at a time."},
	{Front: "What is elaboration?", Back: "Connecting new information to what you already know by asking how and why it works."},
}

// GenerateFlashcards never fails: any provider or parsing problem yields
// the canned study-skills deck with Fallback set.
func (g *Generator) GenerateFlashcards(ctx context.Context, req FlashcardRequest) *FlashcardResult {
	req = req.withDefaults()
	want := int(req.NumCards)
	material := g.material(ctx, req.PDFText, req.PDFBase64)

	cards, err := g.requestCards(ctx, req, material, want, nil)
	if err != nil {
		g.log.Warn("flashcard generation failed, serving fallback deck", "subject", req.Subject, "error", err)
		return fallbackDeck(want)
	}

	seen := map[string]bool{}
	accepted := appendUnique(nil, cards, seen, want)

	// Any shortfall, including an empty first deck, gets one top-up call.
	if len(accepted) < want {
		more, err := g.requestCards(ctx, req, material, want-len(accepted), fronts(accepted))
		if err != nil {
			g.log.Warn("flashcard top-up failed", "subject", req.Subject, "have", len(accepted), "error", err)
		} else {
			accepted = appendUnique(accepted, more, seen, want)
		}
	}
	if len(accepted) == 0 {
		g.log.Warn("flashcard output had no usable cards, serving fallback deck", "subject", req.Subject)
		return fallbackDeck(want)
	}

	g.log.Info("flashcards generated", "subject", req.Subject, "cards", len(accepted))
	return &FlashcardResult{Cards: accepted, Source: SourceAI, Model: g.llm.Model()}
}

func (g *Generator) requestCards(ctx context.Context, req FlashcardRequest, material string, count int, avoid []string) ([]Card, error) {
	content, err := g.llm.Complete(ctx, CompletionRequest{
		Prompt:     flashcardPrompt(req, material, count, avoid),
		SchemaName: "flashcards",
		Schema:     flashcardSchema(),
	})
	if err != nil {
		return nil, err
	}
	var parsed interface{}
	if err := ParseLenient(content, &parsed); err != nil {
		return nil, err
	}
	return extractCards(parsed), nil
}

func extractCards(v interface{}) []Card {
	switch t := v.(type) {
	case []interface{}:
		out := make([]Card, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			c := Card{
				Front: firstString(m, []string{"front", "term", "question", "q"}),
				Back:  firstString(m, []string{"back", "definition", "answer", "a"}),
			}
			if c.Front != "" && c.Back != "" {
				out = append(out, c)
			}
		}
		return out
	case map[string]interface{}:
		for _, key := range []string{"cards", "flashcards", "items"} {
			if list, ok := t[key]; ok {
				return extractCards(list)
			}
		}
	}
	return nil
}

// appendUnique adds cards whose front text has not been seen, up to max.
func appendUnique(dst, cards []Card, seen map[string]bool, max int) []Card {
	for _, c := range cards {
		if len(dst) >= max {
			break
		}
		key := strings.TrimSpace(c.Front)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		dst = append(dst, c)
	}
	return dst
}

func fronts(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Front
	}
	return out
}

func fallbackDeck(want int) *FlashcardResult {
	n := len(fallbackCards)
	if want > 0 && want < n {
		n = want
	}
	cards := make([]Card, n)
	copy(cards, fallbackCards)
	return &FlashcardResult{Cards: cards, Fallback: true, Source: SourceFallback}
}
