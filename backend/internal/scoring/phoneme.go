package scoring

import (
	"strings"
	"unicode"
)

var digraphs = map[Language]map[string]bool{
	English: set("ch", "sh", "th", "ph", "wh", "ck", "ng", "qu",
		"ee", "oo", "ea", "ai", "ay", "oa", "ou", "ow", "oi", "oy"),
	Filipino: set("ng", "ts", "dy", "sy", "ay", "aw", "iw", "oy", "uy"),
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}

// Phonemes approximates the sounds of a word: a greedy left-to-right split into
// the language's digraphs and single letters. English drops a silent trailing
// e after a consonant in words longer than two letters.
func Phonemes(word string, lang Language) []string {
	var letters []rune
	for _, r := range strings.ToLower(word) {
		if lang == Filipino && r == 'ñ' {
			r = 'n'
		}
		if unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}

	if lang == English {
		n := len(letters)
		if n > 2 && letters[n-1] == 'e' && !isVowel(letters[n-2]) {
			letters = letters[:n-1]
		}
	}

	pairs := digraphs[lang]
	out := make([]string, 0, len(letters))
	for i := 0; i < len(letters); {
		if i+1 < len(letters) && pairs[string(letters[i:i+2])] {
			out = append(out, string(letters[i:i+2]))
			i += 2
			continue
		}
		out = append(out, string(letters[i]))
		i++
	}
	return out
}

func sentencePhonemes(words []string, lang Language) []string {
	var out []string
	for _, w := range words {
		out = append(out, Phonemes(w, lang)...)
	}
	return out
}

// PhonemeScore compares the phoneme sequences of two sentences, 0..100.
func PhonemeScore(expected, heard string, lang Language) float64 {
	pe := sentencePhonemes(Normalize(expected, lang), lang)
	ph := sentencePhonemes(Normalize(heard, lang), lang)
	return phonemeScore(pe, ph)
}

func phonemeScore(pe, ph []string) float64 {
	longest := max(len(pe), len(ph))
	if longest == 0 {
		return 0
	}
	return 100 * (1 - float64(Distance(pe, ph))/float64(longest))
}
