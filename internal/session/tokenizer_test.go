package session

import (
	"reflect"
	"testing"
)

func TestSplitMergesShortFragments(t *testing.T) {
	tok := NewSentenceTokenizer(2)
	got := tok.Split("Sure. Your latte is a medium with oat milk. Anything else?")
	want := []string{
		"Sure. Your latte is a medium with oat milk.",
		"Anything else?",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSplitTrailingFragmentMergesBackward(t *testing.T) {
	tok := NewSentenceTokenizer(3)
	got := tok.Split("That order is on its way to you. Bye!")
	want := []string{"That order is on its way to you. Bye!"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSplitHandlesMissingTerminalPunctuation(t *testing.T) {
	tok := NewSentenceTokenizer(1)
	got := tok.Split("one moment please")
	want := []string{"one moment please"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	tok := NewSentenceTokenizer(2)
	if got := tok.Split("   "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
