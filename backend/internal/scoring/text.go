package scoring

import (
	"strings"
	"unicode"
)

// Language of a flashcard sentence.
type Language string

const (
	English  Language = "english"
	Filipino Language = "filipino"
)

// Valid reports whether l is supported.
func (l Language) Valid() bool {
	return l == English || l == Filipino
}

// Normalize lowercases text and splits it into words. Punctuation becomes a
// word break except apostrophes and hyphens inside English words; Filipino
// folds ñ to n and joins hyphenated words.
func Normalize(text string, lang Language) []string {
	runes := []rune(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(runes))

	for i, r := range runes {
		if lang == Filipino && r == 'ñ' {
			r = 'n'
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case (r == '\'' || r == '’' || r == '-') && inWord(runes, i):
			if lang == English {
				if r == '’' {
					r = '\''
				}
				b.WriteRune(r)
			}
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func inWord(runes []rune, i int) bool {
	return i > 0 && i < len(runes)-1 && unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1])
}

// WordResult is how one expected word was matched.
type WordResult struct {
	Expected   string  `json:"expected"`
	Heard      string  `json:"heard"`
	Similarity float64 `json:"similarity"`
	Correct    bool    `json:"correct"`
}

// DefaultWindow is how far from its own position an expected word is searched
// for in the transcript.
const DefaultWindow = 2

// CorrectThreshold is the similarity at which a word counts as read correctly.
const CorrectThreshold = 0.8

// MatchWords aligns expected words to heard words. Each expected word at index
// i looks at heard[i-window..i+window] and keeps the most similar word not yet
// consumed; a heard word is consumed once it produced a correct match.
func MatchWords(expected, heard []string, window int) []WordResult {
	if window <= 0 {
		window = DefaultWindow
	}
	used := make([]bool, len(heard))
	results := make([]WordResult, len(expected))

	for i, want := range expected {
		results[i] = WordResult{Expected: want}

		best, bestSim := -1, 0.0
		lo, hi := max(0, i-window), min(len(heard)-1, i+window)
		for j := lo; j <= hi; j++ {
			if used[j] {
				continue
			}
			if s := Similarity(want, heard[j]); s > bestSim {
				best, bestSim = j, s
			}
		}
		if best < 0 {
			continue
		}

		results[i].Heard = heard[best]
		results[i].Similarity = round(bestSim, 3)
		if bestSim >= CorrectThreshold {
			results[i].Correct = true
			used[best] = true
		}
	}
	return results
}
