package service

import (
	"math/rand"
	"sort"
	"testing"
)

func placedTo(placements []Placement) []string {
	out := make([]string, 0, len(placements))
	for _, p := range placements {
		out = append(out, p.TeacherID)
	}
	return out
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name         string
		students     []string
		teachers     []TeacherLoad
		max          int
		wantTeachers []string
		wantUnplaced []string
	}{
		{
			name:         "evens out existing load",
			students:     []string{"s1", "s2", "s3", "s4"},
			teachers:     []TeacherLoad{{"a", 2}, {"b", 0}, {"c", 0}},
			wantTeachers: []string{"b", "c", "b", "c"},
		},
		{
			name:         "tie goes to lower existing count",
			students:     []string{"s1", "s2"},
			teachers:     []TeacherLoad{{"a", 1}, {"b", 0}},
			wantTeachers: []string{"b", "b"},
		},
		{
			name:         "tie on both goes to earlier teacher",
			students:     []string{"s1", "s2", "s3"},
			teachers:     []TeacherLoad{{"a", 0}, {"b", 0}},
			wantTeachers: []string{"a", "b", "a"},
		},
		{
			name:         "cap leaves the rest unplaced",
			students:     []string{"s1", "s2", "s3", "s4"},
			teachers:     []TeacherLoad{{"a", 1}, {"b", 0}},
			max:          2,
			wantTeachers: []string{"b", "b", "a"},
			wantUnplaced: []string{"s4"},
		},
		{
			name:         "no teachers",
			students:     []string{"s1", "s2"},
			wantTeachers: []string{},
			wantUnplaced: []string{"s1", "s2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			placements, unplaced := Balance(tt.students, tt.teachers, nil, tt.max)
			got := placedTo(placements)
			if len(got) != len(tt.wantTeachers) {
				t.Fatalf("placed to %v, want %v", got, tt.wantTeachers)
			}
			for i := range got {
				if got[i] != tt.wantTeachers[i] {
					t.Errorf("placed to %v, want %v", got, tt.wantTeachers)
					break
				}
			}
			if len(unplaced) != len(tt.wantUnplaced) {
				t.Fatalf("unplaced %v, want %v", unplaced, tt.wantUnplaced)
			}
			for i := range unplaced {
				if unplaced[i] != tt.wantUnplaced[i] {
					t.Errorf("unplaced %v, want %v", unplaced, tt.wantUnplaced)
					break
				}
			}
		})
	}
}

func TestBalance_ShuffleIsDeterministicPerSeed(t *testing.T) {
	students := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"}
	teachers := []TeacherLoad{{"a", 0}, {"b", 0}, {"c", 0}}

	first, _ := Balance(students, teachers, rand.New(rand.NewSource(42)), 0)
	second, _ := Balance(students, teachers, rand.New(rand.NewSource(42)), 0)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed gave different placements at %d", i)
		}
	}

	seen := make([]string, 0, len(first))
	for _, p := range first {
		seen = append(seen, p.StudentID)
	}
	sort.Strings(seen)
	for i, id := range students {
		if seen[i] != id {
			t.Fatalf("placements are not a permutation of the input: %v", seen)
		}
	}
	if students[0] != "s1" {
		t.Error("input slice must not be reordered")
	}
}
