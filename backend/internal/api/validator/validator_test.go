package validator

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type sample struct {
	LRN     string `json:"lrn"     binding:"required,lrn"`
	Grade   int    `json:"grade"   binding:"omitempty,grade"`
	Role    string `json:"role"    binding:"omitempty,role"`
	Subject string `json:"subject" binding:"omitempty,subject"`
	Grade2  *int   `json:"grade2"  binding:"omitempty,grade"`
}

func TestRegister_Idempotent(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestCustomTags(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatal(err)
	}
	four := 4
	seven := 7

	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{LRN: "123456789012", Grade: 3, Role: "teacher", Subject: "math", Grade2: &four}, ""},
		{"short lrn", sample{LRN: "12345"}, "lrn: lrn must be exactly 12 digits"},
		{"letters in lrn", sample{LRN: "12345678901x"}, "lrn must be exactly 12 digits"},
		{"grade out of range", sample{LRN: "123456789012", Grade: 9}, "grade: grade must be a grade from 1 to 6"},
		{"pointer grade", sample{LRN: "123456789012", Grade2: &seven}, "grade2"},
		{"unknown role", sample{LRN: "123456789012", Role: "principal"}, "role: role must be a valid role"},
		{"unknown subject", sample{LRN: "123456789012", Subject: "science"}, "subject must be english, filipino or math"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if got := Describe(err); !strings.Contains(got, tt.wantErr) {
				t.Errorf("Describe() = %q, want it to contain %q", got, tt.wantErr)
			}
		})
	}
}

func TestDescribe_Required(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatal(err)
	}
	err := binding.Validator.ValidateStruct(&sample{})
	if got := Describe(err); got != "lrn: lrn is a required field" {
		t.Errorf("Describe() = %q", got)
	}
}
