package dto

// ── students ──

// StudentListRequest student list query
type StudentListRequest struct {
	PaginationRequest
	GradeLevel int    `form:"grade_level" binding:"omitempty,grade"`
	Section    string `form:"section"     binding:"omitempty,max=50"`
	Subject    string `form:"subject"     binding:"omitempty,subject"`
	Level      string `form:"level"       binding:"omitempty,max=20"`
	Keyword    string `form:"keyword"     binding:"omitempty,max=50"`
	Unassigned bool   `form:"unassigned"`
}

// CreateStudentRequest new learner record
type CreateStudentRequest struct {
	LRN             string `json:"lrn"              binding:"required,lrn"`
	FirstName       string `json:"first_name"       binding:"required,max=80"`
	MiddleName      string `json:"middle_name"      binding:"omitempty,max=80"`
	LastName        string `json:"last_name"        binding:"required,max=80"`
	Suffix          string `json:"suffix"           binding:"omitempty,max=10"`
	Sex             string `json:"sex"              binding:"omitempty,oneof=male female"`
	BirthDate       string `json:"birth_date"       binding:"omitempty,datetime=2006-01-02"`
	GradeLevel      int    `json:"grade_level"      binding:"required,grade"`
	Section         string `json:"section"          binding:"omitempty,max=50"`
	GuardianName    string `json:"guardian_name"    binding:"omitempty,max=160"`
	GuardianContact string `json:"guardian_contact" binding:"omitempty,max=20"`
	Address         string `json:"address"          binding:"omitempty,max=500"`
	EnglishLevel    string `json:"english_level"    binding:"omitempty,max=20"`
	FilipinoLevel   string `json:"filipino_level"   binding:"omitempty,max=20"`
	MathLevel       string `json:"math_level"       binding:"omitempty,max=20"`
}

// UpdateStudentRequest partial update guarded by version
type UpdateStudentRequest struct {
	LRN             *string `json:"lrn"              binding:"omitempty,lrn"`
	FirstName       *string `json:"first_name"       binding:"omitempty,min=1,max=80"`
	MiddleName      *string `json:"middle_name"      binding:"omitempty,max=80"`
	LastName        *string `json:"last_name"        binding:"omitempty,min=1,max=80"`
	Suffix          *string `json:"suffix"           binding:"omitempty,max=10"`
	Sex             *string `json:"sex"              binding:"omitempty,oneof=male female"`
	BirthDate       *string `json:"birth_date"       binding:"omitempty,datetime=2006-01-02"`
	GradeLevel      *int    `json:"grade_level"      binding:"omitempty,grade"`
	Section         *string `json:"section"          binding:"omitempty,max=50"`
	GuardianName    *string `json:"guardian_name"    binding:"omitempty,max=160"`
	GuardianContact *string `json:"guardian_contact" binding:"omitempty,max=20"`
	Address         *string `json:"address"          binding:"omitempty,max=500"`
	EnglishLevel    *string `json:"english_level"    binding:"omitempty,max=20"`
	FilipinoLevel   *string `json:"filipino_level"   binding:"omitempty,max=20"`
	MathLevel       *string `json:"math_level"       binding:"omitempty,max=20"`
	Version         int     `json:"version"          binding:"required,min=1"`
}

// StudentResponse learner record
type StudentResponse struct {
	ID              string     `json:"id"`
	LRN             string     `json:"lrn"`
	FirstName       string     `json:"first_name"`
	MiddleName      string     `json:"middle_name,omitempty"`
	LastName        string     `json:"last_name"`
	Suffix          string     `json:"suffix,omitempty"`
	FullName        string     `json:"full_name"`
	Sex             string     `json:"sex,omitempty"`
	BirthDate       string     `json:"birth_date,omitempty"`
	GradeLevel      int        `json:"grade_level"`
	Section         string     `json:"section,omitempty"`
	GuardianName    string     `json:"guardian_name,omitempty"`
	GuardianContact string     `json:"guardian_contact,omitempty"`
	Address         string     `json:"address,omitempty"`
	EnglishLevel    string     `json:"english_level,omitempty"`
	FilipinoLevel   string     `json:"filipino_level,omitempty"`
	MathLevel       string     `json:"math_level,omitempty"`
	Teacher         *UserBrief `json:"teacher,omitempty"`
	Version         int        `json:"version"`
}

// CoordinatorStudentsRequest query of the master teacher's coordinator view
type CoordinatorStudentsRequest struct {
	CoordinatorID string `form:"coordinator_id" binding:"required,uuid"`
}

// CoordinatorStudentsResponse students of a coordinator's grade grouped by teacher
type CoordinatorStudentsResponse struct {
	Coordinator UserBrief      `json:"coordinator"`
	GradeLevel  int            `json:"grade_level"`
	Total       int            `json:"total"`
	Groups      []TeacherGroup `json:"groups"`
}

// TeacherGroup students sharing a teacher; Teacher is nil for the unassigned group
type TeacherGroup struct {
	Teacher  *UserBrief        `json:"teacher"`
	Students []StudentResponse `json:"students"`
}
