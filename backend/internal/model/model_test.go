package model

import "testing"

func TestFullName(t *testing.T) {
	u := &User{FirstName: "Maria", MiddleName: "ñora", LastName: "Santos", Suffix: "Jr."}
	if got := u.FullName(); got != "Maria Ñ. Santos Jr." {
		t.Errorf("unexpected full name %q", got)
	}

	s := &Student{FirstName: "Juan", LastName: "Dela Cruz"}
	if got := s.FullName(); got != "Juan Dela Cruz" {
		t.Errorf("unexpected full name %q", got)
	}
}

func TestIsValidLevel(t *testing.T) {
	tests := []struct {
		subject, level string
		want           bool
	}{
		{SubjectEnglish, "", true},
		{SubjectEnglish, "syllable", true},
		{SubjectFilipino, "paragraph", true},
		{SubjectMath, "proficient", true},
		{SubjectMath, "syllable", false},
		{SubjectEnglish, "proficient", false},
		{"science", "word", false},
	}
	for _, tt := range tests {
		if got := IsValidLevel(tt.subject, tt.level); got != tt.want {
			t.Errorf("IsValidLevel(%s, %s) = %v, want %v", tt.subject, tt.level, got, tt.want)
		}
	}
}

func TestRoleHelpers(t *testing.T) {
	if !IsValidRole(RoleRemedialTeacher) || IsValidRole("principal") {
		t.Error("IsValidRole mismatch")
	}
	if RequiresGrade(RoleSuperAdmin) || RequiresGrade(RoleMasterTeacher) || !RequiresGrade(RoleTeacher) {
		t.Error("RequiresGrade mismatch")
	}
	if !IsSchoolWide(RoleMasterTeacher) || IsSchoolWide(RoleCoordinator) {
		t.Error("IsSchoolWide mismatch")
	}
}

func TestFieldHelpers(t *testing.T) {
	if !IsValidSubject(SubjectMath) || IsValidSubject("science") {
		t.Error("IsValidSubject mismatch")
	}
	if !IsValidGrade(MinGrade) || !IsValidGrade(MaxGrade) || IsValidGrade(0) || IsValidGrade(7) {
		t.Error("IsValidGrade mismatch")
	}
	for lrn, want := range map[string]bool{
		"123456789012":  true,
		"12345678901":   false,
		"1234567890123": false,
		"12345678901a":  false,
	} {
		if got := IsValidLRN(lrn); got != want {
			t.Errorf("IsValidLRN(%q) = %v, want %v", lrn, got, want)
		}
	}
}

func TestQuizMaxScoreAndOwner(t *testing.T) {
	owner := "u-1"
	q := &Quiz{
		SoftDeleteModel: SoftDeleteModel{BaseModel: BaseModel{CreatedBy: &owner}},
		Questions:       []QuizQuestion{{Points: 2}, {Points: 3}},
	}
	if q.MaxScore() != 5 {
		t.Errorf("expected max score 5, got %d", q.MaxScore())
	}
	if !q.OwnedBy("u-1") || q.OwnedBy("u-2") {
		t.Error("OwnedBy mismatch")
	}
}
