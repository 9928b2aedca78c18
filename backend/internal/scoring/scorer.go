package scoring

import (
	"errors"
	"math"
)

// ErrEmptyExpected the flashcard has no words to read.
var ErrEmptyExpected = errors.New("expected sentence is empty")

// Remarks.
const (
	RemarkExcellent     = "excellent"
	RemarkGood          = "good"
	RemarkFair          = "fair"
	RemarkNeedsPractice = "needs_practice"
)

// DefaultSilenceThreshold is the amplitude below which a sample counts as silence.
const DefaultSilenceThreshold = 0.02

// Weights of the composite pronunciation score.
type Weights struct {
	Accuracy float64
	Phoneme  float64
	Fluency  float64
}

// DefaultWeights 0.5 accuracy, 0.3 phoneme, 0.2 fluency.
var DefaultWeights = Weights{Accuracy: 0.5, Phoneme: 0.3, Fluency: 0.2}

// normalized scales w to sum to 1; non-positive sums fall back to the defaults.
func (w Weights) normalized() Weights {
	if w.Accuracy < 0 || w.Phoneme < 0 || w.Fluency < 0 {
		return DefaultWeights
	}
	sum := w.Accuracy + w.Phoneme + w.Fluency
	if sum <= 0 {
		return DefaultWeights
	}
	return Weights{Accuracy: w.Accuracy / sum, Phoneme: w.Phoneme / sum, Fluency: w.Fluency / sum}
}

// Input one reading of a flashcard.
type Input struct {
	Expected         string
	Transcript       string
	Language         Language
	Amplitudes       []float64
	SilenceThreshold float64 // 0 = DefaultSilenceThreshold
}

// Result scores are 0..100 with one decimal.
type Result struct {
	WordAccuracy       float64      `json:"word_accuracy"`
	PhonemeScore       float64      `json:"phoneme_score"`
	FluencyScore       float64      `json:"fluency_score"`
	PronunciationScore float64      `json:"pronunciation_score"`
	SilenceRatio       float64      `json:"silence_ratio"`
	Remark             string       `json:"remark"`
	CorrectWords       int          `json:"correct_words"`
	TotalWords         int          `json:"total_words"`
	Words              []WordResult `json:"words"`
}

// Scorer computes pronunciation results.
type Scorer struct {
	Weights Weights
	Window  int
}

// NewScorer returns a Scorer with default weights and window.
func NewScorer() *Scorer {
	return &Scorer{Weights: DefaultWeights, Window: DefaultWindow}
}

// Score scores in with the default Scorer.
func Score(in Input) (Result, error) {
	return NewScorer().Score(in)
}

// Score compares the transcript with the expected sentence.
func (s *Scorer) Score(in Input) (Result, error) {
	lang := in.Language
	if !lang.Valid() {
		lang = English
	}

	expected := Normalize(in.Expected, lang)
	if len(expected) == 0 {
		return Result{}, ErrEmptyExpected
	}
	heard := Normalize(in.Transcript, lang)

	words := MatchWords(expected, heard, s.Window)
	correct := 0
	for _, w := range words {
		if w.Correct {
			correct++
		}
	}
	accuracy := 100 * float64(correct) / float64(len(expected))

	phoneme := phonemeScore(sentencePhonemes(expected, lang), sentencePhonemes(heard, lang))

	ratio := SilenceRatio(in.Amplitudes, in.SilenceThreshold)
	fluency := FluencyScore(ratio)

	w := s.Weights.normalized()
	pronunciation := round(w.Accuracy*accuracy+w.Phoneme*phoneme+w.Fluency*fluency, 1)

	return Result{
		WordAccuracy:       round(accuracy, 1),
		PhonemeScore:       round(phoneme, 1),
		FluencyScore:       round(fluency, 1),
		PronunciationScore: pronunciation,
		SilenceRatio:       round(ratio, 3),
		Remark:             Remark(pronunciation),
		CorrectWords:       correct,
		TotalWords:         len(expected),
		Words:              words,
	}, nil
}

// SilenceRatio is the fraction of samples whose magnitude is below threshold.
func SilenceRatio(amplitudes []float64, threshold float64) float64 {
	if len(amplitudes) == 0 {
		return 0
	}
	if threshold <= 0 {
		threshold = DefaultSilenceThreshold
	}
	silent := 0
	for _, a := range amplitudes {
		if math.Abs(a) < threshold {
			silent++
		}
	}
	return float64(silent) / float64(len(amplitudes))
}

// FluencyScore maps a silence ratio to 0..100: full marks up to 0.2, zero from 0.8.
func FluencyScore(ratio float64) float64 {
	switch {
	case ratio <= 0.2:
		return 100
	case ratio >= 0.8:
		return 0
	default:
		return 100 * (0.8 - ratio) / 0.6
	}
}

// Remark buckets a pronunciation score.
func Remark(score float64) string {
	switch {
	case score >= 90:
		return RemarkExcellent
	case score >= 75:
		return RemarkGood
	case score >= 50:
		return RemarkFair
	default:
		return RemarkNeedsPractice
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
