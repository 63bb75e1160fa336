package judge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"winner": "A", "runner_up": "B"}`, `{"winner": "A", "runner_up": "B"}`},
		{"leading text", `Sure! Here is my verdict: {"score": 7}`, `{"score": 7}`},
		{"trailing text", `{"score": 7} I hope this helps.`, `{"score": 7}`},
		{"json fence", "```json\n{\"score\": 3}\n```", `{"score": 3}`},
		{"nested braces", `{"a": {"b": 1}, "c": 2}`, `{"a": {"b": 1}, "c": 2}`},
		{"no object", "I cannot decide.", ""},
		{"unbalanced", `{"score": 7`, ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.input))
		})
	}
}

func TestDecodeComparativeVerdict(t *testing.T) {
	t.Run("valid verdict", func(t *testing.T) {
		v, err := DecodeComparativeVerdict(`{"winner": "A", "runner_up": "B"}`, 3)
		require.NoError(t, err)
		assert.Equal(t, "A", v.Winner)
		assert.Equal(t, "B", v.RunnerUp)
	})

	t.Run("fenced verdict with commentary", func(t *testing.T) {
		raw := "After careful consideration:\n```json\n{\"winner\": \"C\", \"runner_up\": \"A\"}\n```"
		v, err := DecodeComparativeVerdict(raw, 3)
		require.NoError(t, err)
		assert.Equal(t, "C", v.Winner)
		assert.Equal(t, "A", v.RunnerUp)
	})

	t.Run("extra keys are tolerated", func(t *testing.T) {
		v, err := DecodeComparativeVerdict(`{"winner": "A", "runner_up": "B", "reasoning": "obvious"}`, 2)
		require.NoError(t, err)
		assert.Equal(t, "A", v.Winner)
	})

	tests := []struct {
		name       string
		raw        string
		entryCount int
	}{
		{"no json", "the winner is A", 3},
		{"invalid json", `{"winner": }`, 3},
		{"missing winner", `{"runner_up": "B"}`, 3},
		{"missing runner_up", `{"winner": "A"}`, 3},
		{"same letters", `{"winner": "A", "runner_up": "A"}`, 3},
		{"letter out of range", `{"winner": "D", "runner_up": "A"}`, 3},
		{"lowercase letter", `{"winner": "a", "runner_up": "B"}`, 3},
		{"multi char id", `{"winner": "AB", "runner_up": "C"}`, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeComparativeVerdict(tt.raw, tt.entryCount)
			require.Error(t, err)
			assert.IsType(t, &ParseError{}, err)
		})
	}
}

func TestDecodeSoloVerdict(t *testing.T) {
	t.Run("valid score", func(t *testing.T) {
		score, err := DecodeSoloVerdict(`{"score": 7}`)
		require.NoError(t, err)
		assert.Equal(t, 7, score)
	})

	t.Run("boundary scores", func(t *testing.T) {
		for _, want := range []int{1, 10} {
			score, err := DecodeSoloVerdict(fmt.Sprintf(`{"score": %d}`, want))
			require.NoError(t, err)
			assert.Equal(t, want, score)
		}
	})

	t.Run("score wrapped in prose", func(t *testing.T) {
		score, err := DecodeSoloVerdict("My verdict:\n{\"score\": 4}\nThanks!")
		require.NoError(t, err)
		assert.Equal(t, 4, score)
	})

	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "seven out of ten"},
		{"missing score key", `{"rating": 7}`},
		{"null score", `{"score": null}`},
		{"zero out of range", `{"score": 0}`},
		{"eleven out of range", `{"score": 11}`},
		{"negative", `{"score": -3}`},
		{"non integer", `{"score": 7.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSoloVerdict(tt.raw)
			require.Error(t, err)
			assert.IsType(t, &ParseError{}, err)
		})
	}
}
