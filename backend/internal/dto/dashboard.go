package dto

// ── dashboard ──

// CoverageResponse assignment coverage
type CoverageResponse struct {
	Assigned int64   `json:"assigned"`
	Total    int64   `json:"total"`
	Percent  float64 `json:"percent"`
}

// ActivityResponse flashcard activity of the last 30 days
type ActivityResponse struct {
	Attempts         int64   `json:"attempts"`
	Students         int64   `json:"students"`
	AvgPronunciation float64 `json:"avg_pronunciation"`
}

// DashboardResponse figures scoped to the caller
type DashboardResponse struct {
	Role             string                      `json:"role"`
	GradeLevel       int                         `json:"grade_level,omitempty"`
	UsersPerRole     map[string]int64            `json:"users_per_role,omitempty"`
	StudentsPerGrade map[int]int64               `json:"students_per_grade"`
	Levels           map[string]map[string]int64 `json:"levels"`
	Coverage         CoverageResponse            `json:"coverage"`
	Quizzes          map[string]int64            `json:"quizzes"`
	Activity         ActivityResponse            `json:"activity"`
}
