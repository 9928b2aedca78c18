package model

import (
	"time"

	"gorm.io/datatypes"
)

// Flashcard a sentence read aloud during remedial reading (flashcards)
type Flashcard struct {
	FlashcardID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"flashcard_id"`
	Language      string `gorm:"type:varchar(20);not null;index:idx_flashcards_lang_level" json:"language"`
	PhonemicLevel string `gorm:"type:varchar(20);not null;index:idx_flashcards_lang_level" json:"phonemic_level"`
	Sentence      string `gorm:"type:text;not null"                                        json:"sentence"`
	Position      int    `gorm:"not null;default:0"                                        json:"position"`
	SoftDeleteModel
}

// TableName flashcards
func (Flashcard) TableName() string { return "flashcards" }

// WordResult per-word outcome stored with an attempt.
type WordResult struct {
	Expected   string  `json:"expected"`
	Heard      string  `json:"heard,omitempty"`
	Similarity float64 `json:"similarity"`
	Correct    bool    `json:"correct"`
}

// FlashcardAttempt one scored reading (flashcard_attempts)
type FlashcardAttempt struct {
	AttemptID          string                          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attempt_id"`
	FlashcardID        string                          `gorm:"type:uuid;not null;index"                       json:"flashcard_id"`
	StudentID          string                          `gorm:"type:uuid;not null;index"                       json:"student_id"`
	RecordedBy         string                          `gorm:"type:uuid;not null"                             json:"recorded_by"`
	Language           string                          `gorm:"type:varchar(20);not null"                      json:"language"`
	Transcript         string                          `gorm:"type:text"                                      json:"transcript"`
	WordAccuracy       float64                         `gorm:"type:numeric(5,1);not null"                     json:"word_accuracy"`
	PhonemeScore       float64                         `gorm:"type:numeric(5,1);not null"                     json:"phoneme_score"`
	FluencyScore       float64                         `gorm:"type:numeric(5,1);not null"                     json:"fluency_score"`
	PronunciationScore float64                         `gorm:"type:numeric(5,1);not null"                     json:"pronunciation_score"`
	SilenceRatio       float64                         `gorm:"type:numeric(4,3);not null"                     json:"silence_ratio"`
	Remark             string                          `gorm:"type:varchar(20);not null"                      json:"remark"`
	WordResults        datatypes.JSONSlice[WordResult] `gorm:"type:jsonb"                                     json:"word_results"`
	CreatedAt          time.Time                       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Flashcard *Flashcard `gorm:"foreignKey:FlashcardID;references:FlashcardID" json:"flashcard,omitempty"`
}

// TableName flashcard_attempts
func (FlashcardAttempt) TableName() string { return "flashcard_attempts" }
