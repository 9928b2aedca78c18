package model

import (
	"time"

	"gorm.io/datatypes"
)

// Quiz statuses.
const (
	QuizStatusDraft     = "draft"
	QuizStatusPublished = "published"
	QuizStatusClosed    = "closed"
)

// Question kinds.
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionIdentification = "identification"
)

// Quiz assessment built by a teacher (quizzes)
type Quiz struct {
	QuizID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"quiz_id"`
	Title            string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description      string     `gorm:"type:text"                                      json:"description,omitempty"`
	Subject          string     `gorm:"type:varchar(20);not null"                      json:"subject"`
	PhonemicLevel    string     `gorm:"type:varchar(20)"                               json:"phonemic_level,omitempty"`
	GradeLevel       int        `gorm:"type:smallint;not null"                         json:"grade_level"`
	QuizCode         *string    `gorm:"type:varchar(12);uniqueIndex"                   json:"quiz_code,omitempty"`
	Status           string     `gorm:"type:varchar(12);not null;default:'draft'"      json:"status"`
	TimeLimitMinutes int        `gorm:"not null;default:0"                             json:"time_limit_minutes"`
	PublishedAt      *time.Time `                                                      json:"published_at,omitempty"`
	ClosesAt         *time.Time `                                                      json:"closes_at,omitempty"`
	SoftDeleteModel

	Questions []QuizQuestion `gorm:"foreignKey:QuizID;references:QuizID" json:"questions,omitempty"`
}

// TableName quizzes
func (Quiz) TableName() string { return "quizzes" }

// OwnedBy reports whether userID authored the quiz.
func (q *Quiz) OwnedBy(userID string) bool {
	return q.CreatedBy != nil && *q.CreatedBy == userID
}

// MaxScore sum of question points.
func (q *Quiz) MaxScore() int {
	total := 0
	for _, qq := range q.Questions {
		total += qq.Points
	}
	return total
}

// QuizQuestion one question of a quiz (quiz_questions)
type QuizQuestion struct {
	QuestionID string                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"question_id"`
	QuizID     string                      `gorm:"type:uuid;not null;index"                       json:"quiz_id"`
	Position   int                         `gorm:"not null"                                       json:"position"`
	Kind       string                      `gorm:"type:varchar(20);not null"                      json:"kind"`
	Prompt     string                      `gorm:"type:text;not null"                             json:"prompt"`
	Choices    datatypes.JSONSlice[string] `gorm:"type:jsonb"                                     json:"choices,omitempty"`
	Answer     string                      `gorm:"type:text;not null"                             json:"answer"`
	Points     int                         `gorm:"not null;default:1"                             json:"points"`
}

// TableName quiz_questions
func (QuizQuestion) TableName() string { return "quiz_questions" }

// QuizResponse a student's graded submission (quiz_responses)
type QuizResponse struct {
	ResponseID  string                                `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"response_id"`
	QuizID      string                                `gorm:"type:uuid;not null;uniqueIndex:uq_quiz_student"  json:"quiz_id"`
	StudentID   string                                `gorm:"type:uuid;not null;uniqueIndex:uq_quiz_student"  json:"student_id"`
	Answers     datatypes.JSONType[map[string]string] `gorm:"type:jsonb;not null"                             json:"answers"`
	Score       int                                   `gorm:"not null"                                        json:"score"`
	MaxScore    int                                   `gorm:"not null"                                        json:"max_score"`
	StartedAt   *time.Time                            `                                                       json:"started_at,omitempty"`
	SubmittedAt time.Time                             `gorm:"not null;default:CURRENT_TIMESTAMP"              json:"submitted_at"`

	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName quiz_responses
func (QuizResponse) TableName() string { return "quiz_responses" }
