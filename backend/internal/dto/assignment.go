package dto

// ── assignments ──

// AutoAssignRequest balance the unassigned students of a grade
type AutoAssignRequest struct {
	GradeLevel int  `json:"grade_level" binding:"required,grade"`
	DryRun     bool `json:"dry_run"`
}

// TeacherLoadResponse per-teacher totals after balancing
type TeacherLoadResponse struct {
	TeacherID string `json:"teacher_id"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	Existing  int    `json:"existing"`
	Added     int    `json:"added"`
	Total     int    `json:"total"`
}

// AutoAssignResponse auto-assignment outcome
type AutoAssignResponse struct {
	GradeLevel int                   `json:"grade_level"`
	DryRun     bool                  `json:"dry_run"`
	Placed     int                   `json:"placed"`
	Teachers   []TeacherLoadResponse `json:"teachers"`
	Unplaced   []string              `json:"unplaced"`
	// Skipped students got a teacher concurrently and kept it.
	Skipped []string `json:"skipped"`
}

// AssignRequest manual assignment; replaces any current teacher
type AssignRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	TeacherID string `json:"teacher_id" binding:"required,uuid"`
}

// AssignmentListRequest assignment list query
type AssignmentListRequest struct {
	TeacherID  string `form:"teacher_id"  binding:"omitempty,uuid"`
	GradeLevel int    `form:"grade_level" binding:"omitempty,grade"`
}

// AssignmentResponse one assignment
type AssignmentResponse struct {
	AssignmentID string `json:"assignment_id"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name,omitempty"`
	LRN          string `json:"lrn,omitempty"`
	TeacherID    string `json:"teacher_id"`
	TeacherName  string `json:"teacher_name,omitempty"`
	TeacherRole  string `json:"teacher_role"`
	GradeLevel   int    `json:"grade_level"`
	Method       string `json:"method"`
	AssignedAt   string `json:"assigned_at"`
}
