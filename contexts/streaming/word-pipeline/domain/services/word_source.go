package services

import (
	"bufio"
	"iter"
	"strings"
)

// WordSource yields the whitespace-delimited tokens of a text blob.
type WordSource struct {
	text string
}

func NewWordSource(text string) WordSource {
	return WordSource{text: text}
}

// Words returns a lazy sequence of tokens in their original order. Every
// range over the returned sequence starts again from the first token.
func (s WordSource) Words() iter.Seq[string] {
	return func(yield func(string) bool) {
		scanner := bufio.NewScanner(strings.NewReader(s.text))
		// A single token may be as long as the whole text.
		scanner.Buffer(make([]byte, 0, 4096), len(s.text)+1)
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}
}

// Slice materializes all tokens.
func (s WordSource) Slice() []string {
	words := make([]string, 0)
	for word := range s.Words() {
		words = append(words, word)
	}
	return words
}

// Count returns the number of tokens without retaining them.
func (s WordSource) Count() int {
	count := 0
	for range s.Words() {
		count++
	}
	return count
}

func (s WordSource) IsEmpty() bool {
	for range s.Words() {
		return false
	}
	return true
}
