package dto

import "time"

// ── calendar ──

// SessionRequest create or replace a remedial session. TeacherID defaults to
// the caller; only school-wide roles and coordinators may set another teacher.
type SessionRequest struct {
	Title       string    `json:"title"       binding:"required,max=200"`
	Description string    `json:"description" binding:"omitempty,max=2000"`
	Subject     string    `json:"subject"     binding:"omitempty,subject"`
	TeacherID   string    `json:"teacher_id"  binding:"omitempty,uuid"`
	GradeLevel  int       `json:"grade_level" binding:"omitempty,grade"`
	Location    string    `json:"location"    binding:"omitempty,max=120"`
	StartsAt    time.Time `json:"starts_at"   binding:"required"`
	EndsAt      time.Time `json:"ends_at"     binding:"required"`
}

// SessionListRequest calendar range, dates as YYYY-MM-DD
type SessionListRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// SessionResponse remedial session
type SessionResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Teacher     *UserBrief `json:"teacher,omitempty"`
	TeacherID   string     `json:"teacher_id"`
	GradeLevel  int        `json:"grade_level"`
	Location    string     `json:"location,omitempty"`
	StartsAt    string     `json:"starts_at"`
	EndsAt      string     `json:"ends_at"`
}

// CalendarImportRequest form fields sent alongside the .ics file
type CalendarImportRequest struct {
	GradeLevel int `form:"grade_level" binding:"omitempty,grade"`
}

// CalendarImportResponse .ics import outcome
type CalendarImportResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
