package model

import "time"

// Student learner record (students)
type Student struct {
	StudentID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	LRN             string     `gorm:"column:lrn;type:char(12);not null;uniqueIndex"  json:"lrn"`
	FirstName       string     `gorm:"type:varchar(80);not null"                      json:"first_name"`
	MiddleName      string     `gorm:"type:varchar(80)"                               json:"middle_name,omitempty"`
	LastName        string     `gorm:"type:varchar(80);not null"                      json:"last_name"`
	Suffix          string     `gorm:"type:varchar(10)"                               json:"suffix,omitempty"`
	Sex             string     `gorm:"type:varchar(6)"                                json:"sex,omitempty"`
	BirthDate       *time.Time `gorm:"type:date"                                      json:"birth_date,omitempty"`
	GradeLevel      int        `gorm:"type:smallint;not null"                         json:"grade_level"`
	Section         string     `gorm:"type:varchar(50)"                               json:"section,omitempty"`
	GuardianName    string     `gorm:"type:varchar(160)"                              json:"guardian_name,omitempty"`
	GuardianContact string     `gorm:"type:varchar(20)"                               json:"guardian_contact,omitempty"`
	Address         string     `gorm:"type:text"                                      json:"address,omitempty"`
	EnglishLevel    string     `gorm:"type:varchar(20)"                               json:"english_level,omitempty"`
	FilipinoLevel   string     `gorm:"type:varchar(20)"                               json:"filipino_level,omitempty"`
	MathLevel       string     `gorm:"type:varchar(20)"                               json:"math_level,omitempty"`
	VersionedModel

	Assignment *TeacherAssignment `gorm:"foreignKey:StudentID;references:StudentID" json:"assignment,omitempty"`
}

// TableName students
func (Student) TableName() string { return "students" }

// FullName "First M. Last Suffix".
func (s *Student) FullName() string {
	return joinName(s.FirstName, s.MiddleName, s.LastName, s.Suffix)
}

// LevelFor returns the student's level in subject.
func (s *Student) LevelFor(subject string) string {
	switch subject {
	case SubjectEnglish:
		return s.EnglishLevel
	case SubjectFilipino:
		return s.FilipinoLevel
	case SubjectMath:
		return s.MathLevel
	}
	return ""
}
