package tokeniser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenise(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			text: "The cat, the CAT!",
			want: []string{"the", "cat", "the", "cat"},
		},
		{
			name: "keeps contractions together",
			text: "don't panic",
			want: []string{"don't", "panic"},
		},
		{
			name: "handles unicode whitespace and letters",
			text: "café au\tlait",
			want: []string{"café", "au", "lait"},
		},
		{
			name: "digits are tokens",
			text: "error 404 found",
			want: []string{"error", "404", "found"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "punctuation only",
			text: "... !!! ---",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenise(tt.text))
		})
	}
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 3, CountTokens("the cat sat"))
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, len(Tokenise("don't stop, believing!")), CountTokens("don't stop, believing!"))
}

func TestTermFrequencies(t *testing.T) {
	freqs, total := TermFrequencies("cat sat cat")
	assert.Equal(t, 3, total)
	assert.Equal(t, map[string]int{"cat": 2, "sat": 1}, freqs)
}

func TestUniqueTerms(t *testing.T) {
	assert.Equal(t, []string{"cat", "sat", "mat"}, UniqueTerms("Cat sat cat MAT"))
	assert.Empty(t, UniqueTerms(""))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens("abc"))
	assert.Equal(t, 25, EstimateTokens(string(make([]byte, 100))))
}
