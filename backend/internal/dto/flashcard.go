package dto

// ── flashcards ──

// FlashcardListRequest flashcard list query
type FlashcardListRequest struct {
	Language string `form:"language" binding:"omitempty,oneof=english filipino"`
	Level    string `form:"level"    binding:"omitempty,max=20"`
}

// FlashcardRequest create or replace a flashcard
type FlashcardRequest struct {
	Language      string `json:"language"       binding:"required,oneof=english filipino"`
	PhonemicLevel string `json:"phonemic_level" binding:"required,max=20"`
	Sentence      string `json:"sentence"       binding:"required,max=1000"`
	Position      int    `json:"position"       binding:"omitempty,min=0"`
}

// FlashcardResponse flashcard
type FlashcardResponse struct {
	ID            string `json:"id"`
	Language      string `json:"language"`
	PhonemicLevel string `json:"phonemic_level"`
	Sentence      string `json:"sentence"`
	Position      int    `json:"position"`
}

// AttemptRequest a reading to score. Amplitudes are the normalised microphone
// levels the client sampled while the student read.
type AttemptRequest struct {
	StudentID        string    `json:"student_id"        binding:"required,uuid"`
	Transcript       string    `json:"transcript"        binding:"omitempty,max=2000"`
	Amplitudes       []float64 `json:"amplitudes"        binding:"omitempty,max=20000"`
	SilenceThreshold float64   `json:"silence_threshold" binding:"omitempty,gt=0,lt=1"`
}

// WordResultResponse per-word outcome
type WordResultResponse struct {
	Expected   string  `json:"expected"`
	Heard      string  `json:"heard,omitempty"`
	Similarity float64 `json:"similarity"`
	Correct    bool    `json:"correct"`
}

// AttemptResponse scored attempt
type AttemptResponse struct {
	AttemptID          string               `json:"attempt_id"`
	FlashcardID        string               `json:"flashcard_id"`
	Sentence           string               `json:"sentence,omitempty"`
	StudentID          string               `json:"student_id"`
	Language           string               `json:"language"`
	Transcript         string               `json:"transcript"`
	WordAccuracy       float64              `json:"word_accuracy"`
	PhonemeScore       float64              `json:"phoneme_score"`
	FluencyScore       float64              `json:"fluency_score"`
	PronunciationScore float64              `json:"pronunciation_score"`
	SilenceRatio       float64              `json:"silence_ratio"`
	Remark             string               `json:"remark"`
	Words              []WordResultResponse `json:"words"`
	CreatedAt          string               `json:"created_at"`
}

// LanguageAverageResponse per-language averages
type LanguageAverageResponse struct {
	Language           string  `json:"language"`
	Attempts           int64   `json:"attempts"`
	WordAccuracy       float64 `json:"word_accuracy"`
	PhonemeScore       float64 `json:"phoneme_score"`
	FluencyScore       float64 `json:"fluency_score"`
	PronunciationScore float64 `json:"pronunciation_score"`
}

// AttemptHistoryResponse attempt history with averages
type AttemptHistoryResponse struct {
	StudentID string                    `json:"student_id"`
	Averages  []LanguageAverageResponse `json:"averages"`
	List      []AttemptResponse         `json:"list"`
	Total     int64                     `json:"total"`
	Page      int                       `json:"page"`
	PageSize  int                       `json:"page_size"`
}
