package dto

import (
	"encoding/json"
	"time"
)

// ── quizzes ──

// QuestionRequest one question
type QuestionRequest struct {
	Kind    string   `json:"kind"    binding:"required,oneof=multiple_choice true_false identification"`
	Prompt  string   `json:"prompt"  binding:"required,max=2000"`
	Choices []string `json:"choices" binding:"omitempty,max=10,dive,required,max=500"`
	Answer  string   `json:"answer"  binding:"required,max=500"`
	Points  int      `json:"points"  binding:"omitempty,min=1,max=100"`
}

// QuizRequest create or replace a quiz
type QuizRequest struct {
	Title            string            `json:"title"              binding:"required,max=200"`
	Description      string            `json:"description"        binding:"omitempty,max=2000"`
	Subject          string            `json:"subject"            binding:"required,subject"`
	PhonemicLevel    string            `json:"phonemic_level"     binding:"omitempty,max=20"`
	GradeLevel       int               `json:"grade_level"        binding:"required,grade"`
	TimeLimitMinutes int               `json:"time_limit_minutes" binding:"omitempty,min=0,max=600"`
	ClosesAt         *time.Time        `json:"closes_at"`
	Questions        []QuestionRequest `json:"questions"          binding:"omitempty,max=200,dive"`
}

// QuizListRequest quiz list query
type QuizListRequest struct {
	PaginationRequest
	Status     string `form:"status"      binding:"omitempty,oneof=draft published closed"`
	Subject    string `form:"subject"     binding:"omitempty,subject"`
	GradeLevel int    `form:"grade_level" binding:"omitempty,grade"`
}

// QuestionResponse question as seen by its author
type QuestionResponse struct {
	ID       string   `json:"id"`
	Position int      `json:"position"`
	Kind     string   `json:"kind"`
	Prompt   string   `json:"prompt"`
	Choices  []string `json:"choices,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Points   int      `json:"points"`
}

// QuizResponse quiz as seen by its author
type QuizResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Subject          string             `json:"subject"`
	PhonemicLevel    string             `json:"phonemic_level,omitempty"`
	GradeLevel       int                `json:"grade_level"`
	Code             string             `json:"code,omitempty"`
	JoinURL          string             `json:"join_url,omitempty"`
	Status           string             `json:"status"`
	TimeLimitMinutes int                `json:"time_limit_minutes"`
	PublishedAt      *string            `json:"published_at,omitempty"`
	ClosesAt         *string            `json:"closes_at,omitempty"`
	MaxScore         int                `json:"max_score"`
	QuestionCount    int                `json:"question_count"`
	CreatedBy        string             `json:"created_by,omitempty"`
	CreatedAt        string             `json:"created_at"`
	Questions        []QuestionResponse `json:"questions,omitempty"` // omitted in lists
}

// PublicQuizResponse quiz as served to students; answers are never included
type PublicQuizResponse struct {
	Code             string             `json:"code"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Subject          string             `json:"subject"`
	GradeLevel       int                `json:"grade_level"`
	TimeLimitMinutes int                `json:"time_limit_minutes"`
	ClosesAt         *string            `json:"closes_at,omitempty"`
	MaxScore         int                `json:"max_score"`
	Questions        []QuestionResponse `json:"questions"`
	// StartToken is set for timed quizzes and must come back on submit.
	StartToken string `json:"start_token,omitempty"`
}

// SubmitQuizRequest student submission keyed by question id
type SubmitQuizRequest struct {
	LRN        string            `json:"lrn"        binding:"required,lrn"`
	Answers    map[string]string `json:"answers"    binding:"required"`
	StartedAt  *time.Time        `json:"started_at"`
	StartToken string            `json:"start_token"`
}

// SubmitQuizResponse graded submission
type SubmitQuizResponse struct {
	ResponseID  string `json:"response_id"`
	Score       int    `json:"score"`
	MaxScore    int    `json:"max_score"`
	SubmittedAt string `json:"submitted_at"`
}

// QuizResultResponse one student's result
type QuizResultResponse struct {
	ResponseID  string            `json:"response_id"`
	StudentID   string            `json:"student_id"`
	StudentName string            `json:"student_name"`
	LRN         string            `json:"lrn"`
	Section     string            `json:"section,omitempty"`
	Score       int               `json:"score"`
	MaxScore    int               `json:"max_score"`
	Percent     float64           `json:"percent"`
	Answers     map[string]string `json:"answers"`
	SubmittedAt string            `json:"submitted_at"`
}

// ── drafts ──

// DraftRequest builder state saved as-is
type DraftRequest struct {
	Title   string          `json:"title"   binding:"omitempty,max=200"`
	Content json.RawMessage `json:"content" binding:"required"`
}

// DraftResponse saved builder state
type DraftResponse struct {
	DraftID   string          `json:"draft_id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}
