package model

import (
	"strings"
	"time"
	"unicode"
)

// User staff account (users)
type User struct {
	UserID             string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	FirstName          string     `gorm:"type:varchar(80);not null"                      json:"first_name"`
	MiddleName         string     `gorm:"type:varchar(80)"                               json:"middle_name,omitempty"`
	LastName           string     `gorm:"type:varchar(80);not null"                      json:"last_name"`
	Suffix             string     `gorm:"type:varchar(10)"                               json:"suffix,omitempty"`
	Email              string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Phone              string     `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	PasswordHash       string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string     `gorm:"type:varchar(20);not null"                      json:"role"`
	GradeLevel         *int       `gorm:"type:smallint"                                  json:"grade_level,omitempty"`
	Section            string     `gorm:"type:varchar(50)"                               json:"section,omitempty"`
	Subject            string     `gorm:"type:varchar(20)"                               json:"subject,omitempty"`
	IsActive           bool       `gorm:"not null;default:true"                          json:"is_active"`
	MustChangePassword bool       `gorm:"not null;default:false"                         json:"must_change_password"`
	LastLoginAt        *time.Time `                                                      json:"last_login_at,omitempty"`
	VersionedModel
}

// TableName users
func (User) TableName() string { return "users" }

// FullName "First M. Last Suffix".
func (u *User) FullName() string {
	return joinName(u.FirstName, u.MiddleName, u.LastName, u.Suffix)
}

// Grade returns the grade level or 0.
func (u *User) Grade() int {
	if u.GradeLevel == nil {
		return 0
	}
	return *u.GradeLevel
}

func joinName(first, middle, last, suffix string) string {
	parts := make([]string, 0, 4)
	if first != "" {
		parts = append(parts, first)
	}
	if middle != "" {
		initial := []rune(middle)[0]
		parts = append(parts, string(unicode.ToUpper(initial))+".")
	}
	if last != "" {
		parts = append(parts, last)
	}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, " ")
}
