package service

import "math/rand"

// TeacherLoad a teacher eligible for auto-assignment and the number of
// students they already hold.
type TeacherLoad struct {
	TeacherID string
	Existing  int
}

// Placement one student handed to one teacher.
type Placement struct {
	StudentID string
	TeacherID string
}

// Balance spreads students over teachers so that totals stay as even as
// possible. Students are shuffled with rng first (nil keeps input order).
// Each student goes to the teacher with the lowest running total; ties go to
// the lower pre-existing count, then to the earlier teacher in the input.
// Teachers holding maxPerTeacher students are skipped (0 means no cap).
// Students that fit nowhere are returned as unplaced.
func Balance(students []string, teachers []TeacherLoad, rng *rand.Rand, maxPerTeacher int) ([]Placement, []string) {
	order := make([]string, len(students))
	copy(order, students)
	if rng != nil {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	totals := make([]int, len(teachers))
	for i, t := range teachers {
		totals[i] = t.Existing
	}

	placements := make([]Placement, 0, len(order))
	var unplaced []string
	for n, studentID := range order {
		best := -1
		for i, t := range teachers {
			if maxPerTeacher > 0 && totals[i] >= maxPerTeacher {
				continue
			}
			if best < 0 ||
				totals[i] < totals[best] ||
				(totals[i] == totals[best] && t.Existing < teachers[best].Existing) {
				best = i
			}
		}
		if best < 0 {
			unplaced = append(unplaced, order[n:]...)
			break
		}
		totals[best]++
		placements = append(placements, Placement{StudentID: studentID, TeacherID: teachers[best].TeacherID})
	}

	return placements, unplaced
}
