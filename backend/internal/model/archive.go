package model

import (
	"time"

	"gorm.io/datatypes"
)

// DependentTable a child table whose rows travel with an archived record.
type DependentTable struct {
	Table     string
	KeyColumn string
}

// Rows that reference an archived record. They are copied into the archive
// entry and removed before the record itself; the foreign keys are RESTRICT.
var (
	UserDependents = []DependentTable{
		{Table: "remedial_sessions", KeyColumn: "teacher_id"},
	}
	StudentDependents = []DependentTable{
		{Table: "quiz_responses", KeyColumn: "student_id"},
		{Table: "flashcard_attempts", KeyColumn: "student_id"},
	}
)

// Archive entity types.
const (
	ArchiveTypeUsers    = "users"
	ArchiveTypeStudents = "students"
)

// ArchivedUser deleted staff account (archived_users)
type ArchivedUser struct {
	ArchiveID  string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"archive_id"`
	OriginalID string            `gorm:"type:uuid;not null;index"                       json:"original_id"`
	FullName   string            `gorm:"type:varchar(255);not null"                     json:"full_name"`
	Email      string            `gorm:"type:varchar(255);not null"                     json:"email"`
	Role       string            `gorm:"type:varchar(20);not null"                      json:"role"`
	Snapshot   datatypes.JSONMap `gorm:"type:jsonb;not null"                            json:"snapshot"`
	Dependents datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"               json:"dependents,omitempty"`
	Reason     string            `gorm:"type:text"                                      json:"reason,omitempty"`
	ArchivedBy *string           `gorm:"type:uuid"                                      json:"archived_by,omitempty"`
	ArchivedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"archived_at"`
}

// TableName archived_users
func (ArchivedUser) TableName() string { return "archived_users" }

// ArchivedStudent deleted learner record (archived_students)
type ArchivedStudent struct {
	ArchiveID  string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"archive_id"`
	OriginalID string            `gorm:"type:uuid;not null;index"                       json:"original_id"`
	FullName   string            `gorm:"type:varchar(255);not null"                     json:"full_name"`
	LRN        string            `gorm:"column:lrn;type:char(12);not null"              json:"lrn"`
	GradeLevel int               `gorm:"type:smallint;not null"                         json:"grade_level"`
	Snapshot   datatypes.JSONMap `gorm:"type:jsonb;not null"                            json:"snapshot"`
	Dependents datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"               json:"dependents,omitempty"`
	Reason     string            `gorm:"type:text"                                      json:"reason,omitempty"`
	ArchivedBy *string           `gorm:"type:uuid"                                      json:"archived_by,omitempty"`
	ArchivedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"archived_at"`
}

// TableName archived_students
func (ArchivedStudent) TableName() string { return "archived_students" }
