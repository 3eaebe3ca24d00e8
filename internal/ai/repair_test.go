package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"think block", "<think>let me plan</think>\n{\"a\":1}", `{"a":1}`},
		{"unclosed think", "<think>reasoning... {\"a\":1}", `{"a":1}`},
		{"fenced json", "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"think then fence", "<THINK>x</THINK>```json\n{\"a\":2}```", `{"a":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanResponse(tt.in))
		})
	}
}

func TestParseLenientRepairs(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"prose around object", `Sure! {"cards":[{"front":"a","back":"b"}]} Hope this helps.`},
		{"trailing commas", `{"cards":[{"front":"a","back":"b",},]}`},
		{"adjacent objects", `{"cards":[{"front":"a","back":"b"}{"front":"c","back":"d"}]}`},
		{"smart quotes", `{“cards”:[{“front”:“a”,“back”:“b”}]}`},
		{"missing comma at newline", "{\"cards\":[{\"front\":\"a\"\n\"back\":\"b\"}]}"},
		{"truncated", `{"cards":[{"front":"a","back":"b"},{"front":"c","ba`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]interface{}
			require.NoError(t, ParseLenient(tt.in, &out))
			cards := extractCards(out)
			require.NotEmpty(t, cards)
			assert.Equal(t, "a", cards[0].Front)
			assert.Equal(t, "b", cards[0].Back)
		})
	}
}

func TestParseLenientGivesUp(t *testing.T) {
	var out interface{}
	err := ParseLenient("I cannot help with that request.", &out)
	var malformed *MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "I cannot help with that request.", malformed.Raw)
}

func TestCloseTruncated(t *testing.T) {
	assert.Equal(t, `{"a":[1,2]}`, closeTruncated(`{"a":[1,2,`))
	assert.Equal(t, `{"a":"x"}`, closeTruncated(`{"a":"x`))
	assert.Equal(t, `{"a":1}`, closeTruncated(`{"a":1}`))
}
