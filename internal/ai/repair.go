package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// MalformedOutputError is returned when completion text cannot be turned
// into the expected JSON. Raw is the untouched model output.
type MalformedOutputError struct {
	Raw string
}

func (e *MalformedOutputError) Error() string {
	return "model output is not valid JSON"
}

var (
	thinkBlock     = regexp.MustCompile(`(?is)<think>.*?</think>`)
	fencedBlock    = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	adjacentObject = regexp.MustCompile(`\}\s*\{`)
	adjacentArray  = regexp.MustCompile(`\]\s*\[`)
	missingComma   = regexp.MustCompile(`("|\d|true|false|null|\}|\])(\s*\n\s*)"`)
	smartQuotes    = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// CleanResponse removes reasoning blocks and markdown fences around the
// JSON payload.
func CleanResponse(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	lower := strings.ToLower(s)
	if i := strings.LastIndex(lower, "</think>"); i >= 0 {
		s = s[i+len("</think>"):]
	} else if i := strings.Index(lower, "<think>"); i >= 0 {
		// Unclosed reasoning: keep whatever JSON follows the tag.
		rest := s[i+len("<think>"):]
		if j := strings.IndexAny(rest, "{["); j >= 0 {
			s = s[:i] + rest[j:]
		} else {
			s = s[:i]
		}
	}
	s = strings.TrimSpace(s)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		}
	}
	return strings.TrimSpace(s)
}

// ParseLenient decodes text into out, trying progressively more invasive
// repairs of common model mistakes before giving up.
func ParseLenient(text string, out interface{}) error {
	cleaned := CleanResponse(text)
	for _, candidate := range candidates(cleaned) {
		if json.Unmarshal([]byte(candidate), out) == nil {
			return nil
		}
	}
	return &MalformedOutputError{Raw: text}
}

func candidates(s string) []string {
	list := []string{s}
	block := extractBlock(s)
	if block != "" && block != s {
		list = append(list, block)
	}
	if block == "" {
		block = s
	}

	repaired := smartQuotes.Replace(block)
	list = append(list, repaired)
	repaired = trailingComma.ReplaceAllString(repaired, "$1")
	list = append(list, repaired)
	repaired = adjacentObject.ReplaceAllString(repaired, "},{")
	repaired = adjacentArray.ReplaceAllString(repaired, "],[")
	list = append(list, repaired)
	repaired = missingComma.ReplaceAllString(repaired, "$1,$2\"")
	repaired = trailingComma.ReplaceAllString(repaired, "$1")
	list = append(list, repaired)
	list = append(list, closeTruncated(repaired))
	return list
}

// extractBlock returns the text from the first opening bracket to the last
// matching closing bracket.
func extractBlock(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end <= start {
		return s[start:]
	}
	return s[start : end+1]
}

// closeTruncated appends the brackets a cut-off response never closed.
func closeTruncated(s string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 && !inString {
		return s
	}
	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	out := strings.TrimRight(b.String(), " \t\r\n,:")
	b.Reset()
	b.WriteString(out)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
