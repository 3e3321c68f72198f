package session

import "strings"

// SentenceTokenizer splits synthesized replies into sentences, merging
// fragments shorter than the configured minimum forward into the next
// sentence so the voice does not pause mid-thought.
type SentenceTokenizer struct {
	// MinWords is the smallest sentence, in words, emitted on its own.
	MinWords int
}

// NewSentenceTokenizer returns a tokenizer with the given minimum. A
// minimum below 1 is treated as 1.
func NewSentenceTokenizer(minWords int) *SentenceTokenizer {
	if minWords < 1 {
		minWords = 1
	}
	return &SentenceTokenizer{MinWords: minWords}
}

// Split breaks text into sentences on terminal punctuation. Short
// fragments are merged into the sentence that follows; a short trailing
// fragment is merged into the sentence before it.
func (t *SentenceTokenizer) Split(text string) []string {
	raw := splitTerminal(text)
	if len(raw) == 0 {
		return nil
	}

	var out []string
	var pending string
	for _, sentence := range raw {
		if pending != "" {
			sentence = pending + " " + sentence
			pending = ""
		}
		if wordCount(sentence) < t.MinWords {
			pending = sentence
			continue
		}
		out = append(out, sentence)
	}
	if pending != "" {
		if len(out) == 0 {
			return []string{pending}
		}
		out[len(out)-1] = out[len(out)-1] + " " + pending
	}
	return out
}

func splitTerminal(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
