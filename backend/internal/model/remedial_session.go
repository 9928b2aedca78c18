package model

import "time"

// RemedialSession a calendar entry for a remedial class (remedial_sessions)
type RemedialSession struct {
	SessionID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	Title       string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string    `gorm:"type:text"                                      json:"description,omitempty"`
	Subject     string    `gorm:"type:varchar(20)"                               json:"subject,omitempty"`
	TeacherID   string    `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	GradeLevel  int       `gorm:"type:smallint;not null"                         json:"grade_level"`
	Location    string    `gorm:"type:varchar(120)"                              json:"location,omitempty"`
	StartsAt    time.Time `gorm:"not null;index"                                 json:"starts_at"`
	EndsAt      time.Time `gorm:"not null"                                       json:"ends_at"`
	SoftDeleteModel

	Teacher *User `gorm:"foreignKey:TeacherID;references:UserID" json:"teacher,omitempty"`
}

// TableName remedial_sessions
func (RemedialSession) TableName() string { return "remedial_sessions" }
