package model

// Roles.
const (
	RoleSuperAdmin      = "super_admin"
	RoleMasterTeacher   = "master_teacher"
	RoleCoordinator     = "coordinator"
	RoleRemedialTeacher = "remedial_teacher"
	RoleTeacher         = "teacher"
)

// Roles lists every role in display order.
var Roles = []string{RoleSuperAdmin, RoleMasterTeacher, RoleCoordinator, RoleRemedialTeacher, RoleTeacher}

// AssignableRoles roles that can receive students.
var AssignableRoles = []string{RoleTeacher, RoleRemedialTeacher, RoleCoordinator}

// IsValidRole reports whether r is a known role.
func IsValidRole(r string) bool {
	for _, role := range Roles {
		if role == r {
			return true
		}
	}
	return false
}

// RequiresGrade reports whether accounts with this role are bound to a grade level.
func RequiresGrade(role string) bool {
	switch role {
	case RoleCoordinator, RoleRemedialTeacher, RoleTeacher:
		return true
	}
	return false
}

// IsSchoolWide roles that see every grade.
func IsSchoolWide(role string) bool {
	return role == RoleSuperAdmin || role == RoleMasterTeacher
}

// Subjects.
const (
	SubjectEnglish  = "english"
	SubjectFilipino = "filipino"
	SubjectMath     = "math"
)

// Subjects lists every subject.
var Subjects = []string{SubjectEnglish, SubjectFilipino, SubjectMath}

// PhonemicLevels reading levels for english and filipino, lowest first.
var PhonemicLevels = []string{"non_reader", "syllable", "word", "phrase", "sentence", "paragraph"}

// MathLevels proficiency levels for math, lowest first.
var MathLevels = []string{"not_proficient", "low_proficient", "nearly_proficient", "proficient", "highly_proficient"}

// LevelsFor returns the level scale of a subject, nil for unknown subjects.
func LevelsFor(subject string) []string {
	switch subject {
	case SubjectEnglish, SubjectFilipino:
		return PhonemicLevels
	case SubjectMath:
		return MathLevels
	}
	return nil
}

// IsValidLevel reports whether level belongs to subject. Empty means "not assessed".
func IsValidLevel(subject, level string) bool {
	if level == "" {
		return true
	}
	for _, l := range LevelsFor(subject) {
		if l == level {
			return true
		}
	}
	return false
}

// Grade bounds.
const (
	MinGrade = 1
	MaxGrade = 6
)

// IsValidSubject reports whether s is a known subject.
func IsValidSubject(s string) bool {
	for _, subject := range Subjects {
		if subject == s {
			return true
		}
	}
	return false
}

// IsValidGrade reports whether g is within the school's grade range.
func IsValidGrade(g int) bool {
	return g >= MinGrade && g <= MaxGrade
}

// IsValidLRN reports whether lrn is a 12-digit learner reference number.
func IsValidLRN(lrn string) bool {
	if len(lrn) != 12 {
		return false
	}
	for _, r := range lrn {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
