package model

import "time"

// Assignment methods.
const (
	AssignMethodAuto   = "auto"
	AssignMethodManual = "manual"
)

// TeacherAssignment a student's current teacher (teacher_assignments)
type TeacherAssignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	StudentID    string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"student_id"`
	TeacherID    string    `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	TeacherRole  string    `gorm:"type:varchar(20);not null"                      json:"teacher_role"`
	GradeLevel   int       `gorm:"type:smallint;not null"                         json:"grade_level"`
	Method       string    `gorm:"type:varchar(10);not null;default:'manual'"     json:"method"`
	AssignedBy   *string   `gorm:"type:uuid"                                      json:"assigned_by,omitempty"`
	AssignedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"assigned_at"`

	Teacher *User    `gorm:"foreignKey:TeacherID;references:UserID"    json:"teacher,omitempty"`
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName teacher_assignments
func (TeacherAssignment) TableName() string { return "teacher_assignments" }
