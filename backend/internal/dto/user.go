package dto

// ── users ──

// UserListRequest user list query
type UserListRequest struct {
	PaginationRequest
	Role       string `form:"role"        binding:"omitempty,role"`
	GradeLevel int    `form:"grade_level" binding:"omitempty,grade"`
	Keyword    string `form:"keyword"     binding:"omitempty,max=50"`
}

// CreateUserRequest create a staff account
type CreateUserRequest struct {
	FirstName  string `json:"first_name"  binding:"required,max=80"`
	MiddleName string `json:"middle_name" binding:"omitempty,max=80"`
	LastName   string `json:"last_name"   binding:"required,max=80"`
	Suffix     string `json:"suffix"      binding:"omitempty,max=10"`
	Email      string `json:"email"       binding:"required,email"`
	Phone      string `json:"phone"       binding:"omitempty,max=20"`
	Role       string `json:"role"        binding:"required,role"`
	GradeLevel *int   `json:"grade_level" binding:"omitempty,grade"`
	Section    string `json:"section"     binding:"omitempty,max=50"`
	Subject    string `json:"subject"     binding:"omitempty,subject"`
}

// UpdateUserRequest partial update; nil fields are left alone
type UpdateUserRequest struct {
	FirstName  *string `json:"first_name"  binding:"omitempty,max=80"`
	MiddleName *string `json:"middle_name" binding:"omitempty,max=80"`
	LastName   *string `json:"last_name"   binding:"omitempty,max=80"`
	Suffix     *string `json:"suffix"      binding:"omitempty,max=10"`
	Email      *string `json:"email"       binding:"omitempty,email"`
	Phone      *string `json:"phone"       binding:"omitempty,max=20"`
	Role       *string `json:"role"        binding:"omitempty,role"`
	GradeLevel *int    `json:"grade_level" binding:"omitempty,grade"`
	Section    *string `json:"section"     binding:"omitempty,max=50"`
	Subject    *string `json:"subject"     binding:"omitempty,subject"`
	IsActive   *bool   `json:"is_active"`
	Version    int     `json:"version"     binding:"required,min=1"`
}

// UpdateProfileRequest fields any user may change on themselves
type UpdateProfileRequest struct {
	FirstName  *string `json:"first_name"  binding:"omitempty,min=1,max=80"`
	MiddleName *string `json:"middle_name" binding:"omitempty,max=80"`
	LastName   *string `json:"last_name"   binding:"omitempty,min=1,max=80"`
	Suffix     *string `json:"suffix"      binding:"omitempty,max=10"`
	Phone      *string `json:"phone"       binding:"omitempty,max=20"`
	Section    *string `json:"section"     binding:"omitempty,max=50"`
}

// UserResponse staff account without secrets
type UserResponse struct {
	ID                 string  `json:"id"`
	FirstName          string  `json:"first_name"`
	MiddleName         string  `json:"middle_name,omitempty"`
	LastName           string  `json:"last_name"`
	Suffix             string  `json:"suffix,omitempty"`
	FullName           string  `json:"full_name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone,omitempty"`
	Role               string  `json:"role"`
	GradeLevel         *int    `json:"grade_level,omitempty"`
	Section            string  `json:"section,omitempty"`
	Subject            string  `json:"subject,omitempty"`
	IsActive           bool    `json:"is_active"`
	MustChangePassword bool    `json:"must_change_password"`
	LastLoginAt        *string `json:"last_login_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
	Version            int     `json:"version"`
}

// UserBrief name and role only
type UserBrief struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// CreateUserResponse the temporary password is only ever returned here
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password"`
	Mailed       bool         `json:"mailed"`
}

// ResetPasswordResponse new temporary password
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
	Mailed       bool   `json:"mailed"`
}
