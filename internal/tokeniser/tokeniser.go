// Package tokeniser provides the word-boundary tokenizer shared by the
// lexical ranking algorithms and the chunker's minimum-token filter, so
// term identity is consistent everywhere.
package tokeniser

import (
	"regexp"
	"strings"
)

// wordPattern matches letter/digit runs with internal apostrophes, so
// contractions ("don't") stay single terms across languages.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// Tokenise splits text into lowercase word tokens.
func Tokenise(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// CountTokens returns the number of word tokens in text without
// materialising the token slice.
func CountTokens(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// TermFrequencies tokenises text and counts occurrences per term.
// The second return is the total token count.
func TermFrequencies(text string) (map[string]int, int) {
	tokens := Tokenise(text)
	freqs := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freqs[tok]++
	}
	return freqs, len(tokens)
}

// UniqueTerms returns the distinct lowercase terms of text, in first
// occurrence order.
func UniqueTerms(text string) []string {
	tokens := Tokenise(text)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

// EstimateTokens estimates the LLM token cost of text as roughly one
// token per four characters.
func EstimateTokens(text string) int {
	return len(text) / 4
}
