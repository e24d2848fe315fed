package services

import (
	"strings"
	"testing"
)

func TestWordsSplitsOnUnicodeWhitespace(t *testing.T) {
	source := NewWordSource("  never\tgonna\n\ngive you up  ")
	got := source.Slice()
	want := []string{"never", "gonna", "give", "you", "up"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWordsIsRestartable(t *testing.T) {
	source := NewWordSource("a b c")
	first := source.Slice()
	second := source.Slice()
	if strings.Join(first, " ") != strings.Join(second, " ") {
		t.Fatalf("ranging twice yielded %v then %v", first, second)
	}
}

func TestWordsStopsWhenConsumerBreaks(t *testing.T) {
	source := NewWordSource("a b c d")
	seen := 0
	for range source.Words() {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("expected to stop after 2, saw %d", seen)
	}
}

func TestEmptyTextYieldsNothing(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t\r\n"} {
		source := NewWordSource(text)
		if !source.IsEmpty() || source.Count() != 0 {
			t.Fatalf("expected no words for %q", text)
		}
	}
}

func TestLongSingleTokenIsKept(t *testing.T) {
	token := strings.Repeat("x", 200_000)
	got := NewWordSource(" " + token + " ").Slice()
	if len(got) != 1 || got[0] != token {
		t.Fatalf("expected the single long token to survive, got %d tokens", len(got))
	}
}

func TestRejoinedWordsResplitIdentically(t *testing.T) {
	texts := []string{
		"Never gonna give you up\nNever gonna let you down",
		"\tleading and trailing\t",
		"unicode ünïcödé 単語 words",
	}
	for _, text := range texts {
		words := NewWordSource(text).Slice()
		again := NewWordSource(strings.Join(words, " ")).Slice()
		if strings.Join(words, "|") != strings.Join(again, "|") {
			t.Fatalf("resplit mismatch for %q: %v vs %v", text, words, again)
		}
	}
}
