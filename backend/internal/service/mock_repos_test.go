package service

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
	pkgerrors "literacy-hub/backend/pkg/errors"
	pkgredis "literacy-hub/backend/pkg/redis"
)

// ── test environment ──

type testEnv struct {
	repo        *repository.Repository
	users       *mockUserRepo
	students    *mockStudentRepo
	assignments *mockAssignmentRepo
	archive     *mockArchiveRepo
	quizzes     *mockQuizRepo
	responses   *mockResponseRepo
	flashcards  *mockFlashcardRepo
	attempts    *mockAttemptRepo
	sessions    *mockSessionRepo
	stats       *mockStatsRepo
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	assignments := newMockAssignmentRepo(users)
	students := newMockStudentRepo(assignments)
	env := &testEnv{
		users:       users,
		students:    students,
		assignments: assignments,
		archive:     newMockArchiveRepo(users, students),
		quizzes:     newMockQuizRepo(),
		responses:   newMockResponseRepo(students),
		flashcards:  newMockFlashcardRepo(),
		attempts:    newMockAttemptRepo(),
		sessions:    newMockSessionRepo(users),
		stats:       &mockStatsRepo{},
	}
	env.repo = &repository.Repository{
		User:       env.users,
		Student:    env.students,
		Assignment: env.assignments,
		Archive:    env.archive,
		Quiz:       env.quizzes,
		Response:   env.responses,
		Flashcard:  env.flashcards,
		Attempt:    env.attempts,
		Session:    env.sessions,
		Stats:      env.stats,
	}
	return env
}

func intPtr(v int) *int { return &v }

// addUser stores an active user whose password is "password123".
func (e *testEnv) addUser(id, email, role string, grade int) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u := &model.User{
		UserID:       id,
		FirstName:    "First" + id,
		LastName:     "Last" + id,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if grade > 0 {
		u.GradeLevel = intPtr(grade)
	}
	u.Version = 1
	e.users.users[id] = u
	return u
}

func (e *testEnv) addStudent(id, lrn string, grade int) *model.Student {
	st := &model.Student{
		StudentID:  id,
		LRN:        lrn,
		FirstName:  "Juan" + id,
		LastName:   "Cruz",
		GradeLevel: grade,
	}
	st.Version = 1
	e.students.students[id] = st
	return st
}

func (e *testEnv) assign(studentID, teacherID string) {
	t := e.users.users[teacherID]
	st := e.students.students[studentID]
	e.assignments.byStudent[studentID] = &model.TeacherAssignment{
		AssignmentID: "as-" + studentID,
		StudentID:    studentID,
		TeacherID:    teacherID,
		TeacherRole:  t.Role,
		GradeLevel:   st.GradeLevel,
		Method:       model.AssignMethodManual,
		AssignedAt:   time.Now(),
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.Version = 1
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for _, u := range m.users {
		if u.UserID != user.UserID && strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	user.Version++
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *mockUserRepo) filter(filters *repository.UserListFilters) []model.User {
	var all []model.User
	for _, u := range m.users {
		if filters != nil {
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if filters.GradeLevel > 0 && u.Grade() != filters.GradeLevel {
				continue
			}
			if filters.Keyword != "" && !containsFold(u.FullName(), filters.Keyword) && !containsFold(u.Email, filters.Keyword) {
				continue
			}
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	return all
}

func (m *mockUserRepo) ListWithFilters(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	all := m.filter(filters)
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockUserRepo) ListAll(_ context.Context, filters *repository.UserListFilters) ([]model.User, error) {
	return m.filter(filters), nil
}

func (m *mockUserRepo) ListEligibleTeachers(_ context.Context, gradeLevel int) ([]model.User, error) {
	var out []model.User
	for _, u := range m.filter(nil) {
		if eligibleFor(&u, gradeLevel) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) HardDelete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students    map[string]*model.Student
	assignments *mockAssignmentRepo
	seq         int
}

func newMockStudentRepo(assignments *mockAssignmentRepo) *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student), assignments: assignments}
}

// withAssignment copies st and attaches its assignment the way Preload does.
func (m *mockStudentRepo) withAssignment(st *model.Student) model.Student {
	cp := *st
	cp.Assignment = nil
	if a, ok := m.assignments.byStudent[st.StudentID]; ok {
		ac := *a
		ac.Teacher = m.assignments.users.users[a.TeacherID]
		cp.Assignment = &ac
	}
	return cp
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, st := range m.students {
		if st.LRN == student.LRN {
			return gorm.ErrDuplicatedKey
		}
	}
	if student.StudentID == "" {
		m.seq++
		student.StudentID = fmt.Sprintf("student-%d", m.seq)
	}
	student.Version = 1
	cp := *student
	m.students[student.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) BatchCreate(ctx context.Context, students []model.Student) error {
	for i := range students {
		if err := m.Create(ctx, &students[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if st, ok := m.students[id]; ok {
		cp := m.withAssignment(st)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByLRN(_ context.Context, lrn string) (*model.Student, error) {
	for _, st := range m.students {
		if st.LRN == lrn {
			cp := m.withAssignment(st)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ExistingLRNs(_ context.Context, lrns []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, lrn := range lrns {
		for _, st := range m.students {
			if st.LRN == lrn {
				out[lrn] = true
			}
		}
	}
	return out, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	stored, ok := m.students[student.StudentID]
	if !ok || stored.Version != student.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for _, st := range m.students {
		if st.StudentID != student.StudentID && st.LRN == student.LRN {
			return gorm.ErrDuplicatedKey
		}
	}
	student.Version++
	cp := *student
	cp.Assignment = nil
	m.students[student.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) filter(filters *repository.StudentListFilters) []model.Student {
	var all []model.Student
	for _, st := range m.students {
		a := m.assignments.byStudent[st.StudentID]
		if filters != nil {
			if filters.GradeLevel > 0 && st.GradeLevel != filters.GradeLevel {
				continue
			}
			if filters.Section != "" && st.Section != filters.Section {
				continue
			}
			if filters.Subject != "" && filters.Level != "" && st.LevelFor(filters.Subject) != filters.Level {
				continue
			}
			if filters.Keyword != "" && !containsFold(st.FullName(), filters.Keyword) && !strings.Contains(st.LRN, filters.Keyword) {
				continue
			}
			if filters.Unassigned && a != nil {
				continue
			}
			if filters.TeacherID != "" && (a == nil || a.TeacherID != filters.TeacherID) {
				continue
			}
		}
		all = append(all, m.withAssignment(st))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LRN < all[j].LRN })
	return all
}

func (m *mockStudentRepo) ListWithFilters(_ context.Context, filters *repository.StudentListFilters, offset, limit int) ([]model.Student, int64, error) {
	all := m.filter(filters)
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockStudentRepo) ListAll(_ context.Context, filters *repository.StudentListFilters) ([]model.Student, error) {
	return m.filter(filters), nil
}

func (m *mockStudentRepo) ListUnassignedIDs(_ context.Context, gradeLevel int) ([]string, error) {
	var ids []string
	for _, st := range m.filter(&repository.StudentListFilters{GradeLevel: gradeLevel, Unassigned: true}) {
		ids = append(ids, st.StudentID)
	}
	return ids, nil
}

func (m *mockStudentRepo) HardDelete(_ context.Context, id string) error {
	delete(m.students, id)
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	byStudent map[string]*model.TeacherAssignment
	users     *mockUserRepo
	upserts   int
	// raced rows appear between the unassigned scan and the batch insert.
	raced map[string]*model.TeacherAssignment
}

func newMockAssignmentRepo(users *mockUserRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{
		byStudent: make(map[string]*model.TeacherAssignment),
		users:     users,
		raced:     make(map[string]*model.TeacherAssignment),
	}
}

func (m *mockAssignmentRepo) Upsert(_ context.Context, a *model.TeacherAssignment) error {
	if a.AssignmentID == "" {
		a.AssignmentID = "as-" + a.StudentID
	}
	cp := *a
	cp.Teacher, cp.Student = nil, nil
	m.byStudent[a.StudentID] = &cp
	m.upserts++
	return nil
}

func (m *mockAssignmentRepo) InsertMissing(ctx context.Context, list []model.TeacherAssignment) ([]string, error) {
	var skipped []string
	for i := range list {
		id := list[i].StudentID
		if r, ok := m.raced[id]; ok {
			m.byStudent[id] = r
		}
		if _, taken := m.byStudent[id]; taken {
			skipped = append(skipped, id)
			continue
		}
		if err := m.Upsert(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return skipped, nil
}

func (m *mockAssignmentRepo) GetByStudent(_ context.Context, studentID string) (*model.TeacherAssignment, error) {
	if a, ok := m.byStudent[studentID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) List(_ context.Context, filters *repository.AssignmentListFilters) ([]model.TeacherAssignment, error) {
	var out []model.TeacherAssignment
	for _, a := range m.byStudent {
		if filters.TeacherID != "" && a.TeacherID != filters.TeacherID {
			continue
		}
		if filters.GradeLevel > 0 && a.GradeLevel != filters.GradeLevel {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (m *mockAssignmentRepo) CountByTeachers(_ context.Context, teacherIDs []string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, id := range teacherIDs {
		for _, a := range m.byStudent {
			if a.TeacherID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (m *mockAssignmentRepo) IsAssigned(_ context.Context, teacherID, studentID string) (bool, error) {
	a, ok := m.byStudent[studentID]
	return ok && a.TeacherID == teacherID, nil
}

func (m *mockAssignmentRepo) DeleteByStudent(_ context.Context, studentID string) error {
	delete(m.byStudent, studentID)
	return nil
}

func (m *mockAssignmentRepo) DeleteByTeacher(_ context.Context, teacherID string) (int64, error) {
	var n int64
	for id, a := range m.byStudent {
		if a.TeacherID == teacherID {
			delete(m.byStudent, id)
			n++
		}
	}
	return n, nil
}

// ── Mock ArchiveRepository ──

type mockArchiveRepo struct {
	users       map[string]*model.ArchivedUser
	students    map[string]*model.ArchivedStudent
	userRepo    *mockUserRepo
	studentRepo *mockStudentRepo
	// columns the live tables still have; other snapshot keys are dropped on restore
	columns map[string]map[string]bool
	// child tables keyed by table name
	rows map[string][]map[string]interface{}
	// parent ids (quiz, flashcard) deleted since archiving; rows pointing at them are skipped
	goneParents map[string]bool
	seq         int
	purged      int64
}

func newMockArchiveRepo(users *mockUserRepo, students *mockStudentRepo) *mockArchiveRepo {
	return &mockArchiveRepo{
		users:       make(map[string]*model.ArchivedUser),
		students:    make(map[string]*model.ArchivedStudent),
		userRepo:    users,
		studentRepo: students,
		rows:        make(map[string][]map[string]interface{}),
		goneParents: make(map[string]bool),
		columns: map[string]map[string]bool{
			"users":    {"user_id": true, "first_name": true, "last_name": true, "email": true, "role": true, "grade_level": true, "version": true},
			"students": {"student_id": true, "lrn": true, "first_name": true, "last_name": true, "grade_level": true, "version": true},
		},
	}
}

func (m *mockArchiveRepo) CreateUser(_ context.Context, a *model.ArchivedUser) error {
	m.seq++
	a.ArchiveID = fmt.Sprintf("arch-%d", m.seq)
	m.users[a.ArchiveID] = a
	return nil
}

func (m *mockArchiveRepo) CreateStudent(_ context.Context, a *model.ArchivedStudent) error {
	m.seq++
	a.ArchiveID = fmt.Sprintf("arch-%d", m.seq)
	m.students[a.ArchiveID] = a
	return nil
}

func (m *mockArchiveRepo) GetUser(_ context.Context, id string) (*model.ArchivedUser, error) {
	if a, ok := m.users[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockArchiveRepo) GetStudent(_ context.Context, id string) (*model.ArchivedStudent, error) {
	if a, ok := m.students[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockArchiveRepo) ListUsers(_ context.Context, keyword string, offset, limit int) ([]model.ArchivedUser, int64, error) {
	var all []model.ArchivedUser
	for _, a := range m.users {
		if keyword == "" || containsFold(a.FullName, keyword) || containsFold(a.Email, keyword) {
			all = append(all, *a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ArchiveID < all[j].ArchiveID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockArchiveRepo) ListStudents(_ context.Context, keyword string, offset, limit int) ([]model.ArchivedStudent, int64, error) {
	var all []model.ArchivedStudent
	for _, a := range m.students {
		if keyword == "" || containsFold(a.FullName, keyword) || strings.Contains(a.LRN, keyword) {
			all = append(all, *a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ArchiveID < all[j].ArchiveID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockArchiveRepo) DeleteUser(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *mockArchiveRepo) DeleteStudent(_ context.Context, id string) error {
	delete(m.students, id)
	return nil
}

func (m *mockArchiveRepo) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, a := range m.users {
		if a.ArchivedAt.Before(cutoff) {
			delete(m.users, id)
			n++
		}
	}
	for id, a := range m.students {
		if a.ArchivedAt.Before(cutoff) {
			delete(m.students, id)
			n++
		}
	}
	m.purged += n
	return n, nil
}

func (m *mockArchiveRepo) Snapshot(_ context.Context, table, _ string, id string) (map[string]interface{}, error) {
	switch table {
	case "users":
		u, ok := m.userRepo.users[id]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		return map[string]interface{}{
			"user_id": u.UserID, "first_name": u.FirstName, "last_name": u.LastName,
			"email": u.Email, "role": u.Role, "version": float64(u.Version),
			"deleted_at": nil, "legacy_column": "x",
		}, nil
	case "students":
		st, ok := m.studentRepo.students[id]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		return map[string]interface{}{
			"student_id": st.StudentID, "lrn": st.LRN, "first_name": st.FirstName,
			"last_name": st.LastName, "grade_level": float64(st.GradeLevel), "version": float64(st.Version),
		}, nil
	}
	return nil, repository.ErrTableMissing
}

func (m *mockArchiveRepo) RestoreRow(_ context.Context, table string, row map[string]interface{}) ([]string, error) {
	var dropped []string
	for k := range row {
		if !m.columns[table][k] {
			dropped = append(dropped, k)
		}
	}
	sort.Strings(dropped)

	str := func(k string) string { s, _ := row[k].(string); return s }
	switch table {
	case "users":
		u := &model.User{UserID: str("user_id"), FirstName: str("first_name"), LastName: str("last_name"),
			Email: str("email"), Role: str("role"), IsActive: true}
		u.Version = 1
		m.userRepo.users[u.UserID] = u
	case "students":
		g, _ := row["grade_level"].(float64)
		st := &model.Student{StudentID: str("student_id"), LRN: str("lrn"), FirstName: str("first_name"),
			LastName: str("last_name"), GradeLevel: int(g)}
		st.Version = 1
		m.studentRepo.students[st.StudentID] = st
	default:
		return nil, repository.ErrTableMissing
	}
	return dropped, nil
}

func (m *mockArchiveRepo) SnapshotRows(_ context.Context, table, keyColumn, id string) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	for _, row := range m.rows[table] {
		if row[keyColumn] == id {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockArchiveRepo) DeleteRows(_ context.Context, table, keyColumn, id string) (int64, error) {
	var kept []map[string]interface{}
	var n int64
	for _, row := range m.rows[table] {
		if row[keyColumn] == id {
			n++
			continue
		}
		kept = append(kept, row)
	}
	m.rows[table] = kept
	return n, nil
}

func (m *mockArchiveRepo) RestoreRows(_ context.Context, table string, rows []map[string]interface{}) (int, int, error) {
	var restored, skipped int
	for _, row := range rows {
		orphan := false
		for _, v := range row {
			if id, ok := v.(string); ok && m.goneParents[id] {
				orphan = true
			}
		}
		if orphan {
			skipped++
			continue
		}
		m.rows[table] = append(m.rows[table], row)
		restored++
	}
	return restored, skipped, nil
}

// ── Mock QuizRepository ──

type mockQuizRepo struct {
	quizzes map[string]*model.Quiz
	seq     int
	// codesExhausted makes CodeExists report every code as used
	codesExhausted bool
}

func newMockQuizRepo() *mockQuizRepo {
	return &mockQuizRepo{quizzes: make(map[string]*model.Quiz)}
}

func copyQuiz(q *model.Quiz) *model.Quiz {
	cp := *q
	cp.Questions = append([]model.QuizQuestion(nil), q.Questions...)
	return &cp
}

func (m *mockQuizRepo) setQuestionIDs(q *model.Quiz) {
	for i := range q.Questions {
		q.Questions[i].QuizID = q.QuizID
		if q.Questions[i].QuestionID == "" {
			q.Questions[i].QuestionID = fmt.Sprintf("%s-q%d", q.QuizID, i+1)
		}
	}
}

func (m *mockQuizRepo) Create(_ context.Context, quiz *model.Quiz) error {
	m.seq++
	quiz.QuizID = fmt.Sprintf("quiz-%d", m.seq)
	quiz.CreatedAt = time.Now()
	m.setQuestionIDs(quiz)
	m.quizzes[quiz.QuizID] = copyQuiz(quiz)
	return nil
}

func (m *mockQuizRepo) GetByID(_ context.Context, id string) (*model.Quiz, error) {
	if q, ok := m.quizzes[id]; ok {
		return copyQuiz(q), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuizRepo) GetByCode(_ context.Context, code string) (*model.Quiz, error) {
	for _, q := range m.quizzes {
		if q.QuizCode != nil && *q.QuizCode == code {
			return copyQuiz(q), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuizRepo) CodeExists(_ context.Context, code string) (bool, error) {
	if m.codesExhausted {
		return true, nil
	}
	_, err := m.GetByCode(context.Background(), code)
	return err == nil, nil
}

func (m *mockQuizRepo) List(_ context.Context, filters *repository.QuizListFilters, offset, limit int) ([]model.Quiz, int64, error) {
	var all []model.Quiz
	for _, q := range m.quizzes {
		if filters.CreatedBy != "" && !q.OwnedBy(filters.CreatedBy) {
			continue
		}
		if filters.Status != "" && q.Status != filters.Status {
			continue
		}
		if filters.Subject != "" && q.Subject != filters.Subject {
			continue
		}
		if filters.GradeLevel > 0 && q.GradeLevel != filters.GradeLevel {
			continue
		}
		all = append(all, *copyQuiz(q))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].QuizID < all[j].QuizID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockQuizRepo) Update(_ context.Context, quiz *model.Quiz) error {
	if _, ok := m.quizzes[quiz.QuizID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.setQuestionIDs(quiz)
	m.quizzes[quiz.QuizID] = copyQuiz(quiz)
	return nil
}

func (m *mockQuizRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	q, ok := m.quizzes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if code, ok := fields["quiz_code"].(string); ok {
		for _, other := range m.quizzes {
			if other.QuizID != id && other.QuizCode != nil && *other.QuizCode == code {
				return gorm.ErrDuplicatedKey
			}
		}
		q.QuizCode = &code
	}
	if status, ok := fields["status"].(string); ok {
		q.Status = status
	}
	if at, ok := fields["published_at"].(time.Time); ok {
		q.PublishedAt = &at
	}
	return nil
}

func (m *mockQuizRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.quizzes, id)
	return nil
}

// ── Mock QuizResponseRepository ──

type mockResponseRepo struct {
	responses []model.QuizResponse
	students  *mockStudentRepo
	seq       int
}

func newMockResponseRepo(students *mockStudentRepo) *mockResponseRepo {
	return &mockResponseRepo{students: students}
}

func (m *mockResponseRepo) Create(_ context.Context, resp *model.QuizResponse) error {
	for _, r := range m.responses {
		if r.QuizID == resp.QuizID && r.StudentID == resp.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	resp.ResponseID = fmt.Sprintf("resp-%d", m.seq)
	m.responses = append(m.responses, *resp)
	return nil
}

func (m *mockResponseRepo) Exists(_ context.Context, quizID, studentID string) (bool, error) {
	for _, r := range m.responses {
		if r.QuizID == quizID && r.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockResponseRepo) ListByQuiz(_ context.Context, quizID string) ([]model.QuizResponse, error) {
	var out []model.QuizResponse
	for _, r := range m.responses {
		if r.QuizID != quizID {
			continue
		}
		if st, ok := m.students.students[r.StudentID]; ok {
			cp := *st
			r.Student = &cp
		}
		out = append(out, r)
	}
	return out, nil
}

// ── Mock FlashcardRepository ──

type mockFlashcardRepo struct {
	cards map[string]*model.Flashcard
	seq   int
}

func newMockFlashcardRepo() *mockFlashcardRepo {
	return &mockFlashcardRepo{cards: make(map[string]*model.Flashcard)}
}

func (m *mockFlashcardRepo) Create(_ context.Context, card *model.Flashcard) error {
	if card.FlashcardID == "" {
		m.seq++
		card.FlashcardID = fmt.Sprintf("card-%d", m.seq)
	}
	cp := *card
	m.cards[card.FlashcardID] = &cp
	return nil
}

func (m *mockFlashcardRepo) GetByID(_ context.Context, id string) (*model.Flashcard, error) {
	if c, ok := m.cards[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFlashcardRepo) List(_ context.Context, language, level string) ([]model.Flashcard, error) {
	var out []model.Flashcard
	for _, c := range m.cards {
		if language != "" && c.Language != language {
			continue
		}
		if level != "" && c.PhonemicLevel != level {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockFlashcardRepo) Update(_ context.Context, card *model.Flashcard) error {
	cp := *card
	m.cards[card.FlashcardID] = &cp
	return nil
}

func (m *mockFlashcardRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.cards, id)
	return nil
}

// ── Mock AttemptRepository ──

type mockAttemptRepo struct {
	attempts []model.FlashcardAttempt
}

func newMockAttemptRepo() *mockAttemptRepo { return &mockAttemptRepo{} }

func (m *mockAttemptRepo) Create(_ context.Context, a *model.FlashcardAttempt) error {
	a.AttemptID = fmt.Sprintf("attempt-%d", len(m.attempts)+1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.attempts = append(m.attempts, *a)
	return nil
}

func (m *mockAttemptRepo) ListByStudent(_ context.Context, studentID string, offset, limit int) ([]model.FlashcardAttempt, int64, error) {
	var all []model.FlashcardAttempt
	for i := len(m.attempts) - 1; i >= 0; i-- {
		if m.attempts[i].StudentID == studentID {
			all = append(all, m.attempts[i])
		}
	}
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockAttemptRepo) AveragesByStudent(_ context.Context, studentID string) ([]repository.LanguageAverage, error) {
	sums := make(map[string]*repository.LanguageAverage)
	var langs []string
	for _, a := range m.attempts {
		if a.StudentID != studentID {
			continue
		}
		avg, ok := sums[a.Language]
		if !ok {
			avg = &repository.LanguageAverage{Language: a.Language}
			sums[a.Language] = avg
			langs = append(langs, a.Language)
		}
		avg.Attempts++
		avg.PronunciationScore += a.PronunciationScore
	}
	sort.Strings(langs)
	out := make([]repository.LanguageAverage, 0, len(langs))
	for _, l := range langs {
		avg := sums[l]
		avg.PronunciationScore /= float64(avg.Attempts)
		out = append(out, *avg)
	}
	return out, nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.RemedialSession
	users    *mockUserRepo
	seq      int
}

func newMockSessionRepo(users *mockUserRepo) *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.RemedialSession), users: users}
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.RemedialSession) error {
	m.seq++
	s.SessionID = fmt.Sprintf("session-%d", m.seq)
	cp := *s
	cp.Teacher = nil
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) BatchCreate(ctx context.Context, list []model.RemedialSession) error {
	for i := range list {
		if err := m.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.RemedialSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		cp.Teacher = m.users.users[s.TeacherID]
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) List(_ context.Context, f *repository.SessionListFilters) ([]model.RemedialSession, error) {
	var out []model.RemedialSession
	for _, s := range m.sessions {
		if f.TeacherID != "" && s.TeacherID != f.TeacherID {
			continue
		}
		if f.GradeLevel > 0 && s.GradeLevel != f.GradeLevel {
			continue
		}
		if !f.From.IsZero() && s.EndsAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !s.StartsAt.Before(f.To) {
			continue
		}
		cp := *s
		cp.Teacher = m.users.users[s.TeacherID]
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *mockSessionRepo) Update(_ context.Context, s *model.RemedialSession) error {
	cp := *s
	cp.Teacher = nil
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.sessions, id)
	return nil
}

// ── Mock StatsRepository ──

type mockStatsRepo struct {
	scopes       []repository.StatsScope
	quizCreators []string
}

func (m *mockStatsRepo) UsersPerRole(_ context.Context) (map[string]int64, error) {
	return map[string]int64{model.RoleTeacher: 4, model.RoleCoordinator: 1}, nil
}

func (m *mockStatsRepo) StudentsPerGrade(_ context.Context, scope repository.StatsScope) (map[int]int64, error) {
	m.scopes = append(m.scopes, scope)
	return map[int]int64{3: 40}, nil
}

func (m *mockStatsRepo) LevelDistribution(_ context.Context, subject string, _ repository.StatsScope) (map[string]int64, error) {
	return map[string]int64{model.LevelsFor(subject)[0]: 5}, nil
}

func (m *mockStatsRepo) AssignmentCoverage(_ context.Context, _ repository.StatsScope) (int64, int64, error) {
	return 30, 40, nil
}

func (m *mockStatsRepo) QuizCountsByStatus(_ context.Context, createdBy string) (map[string]int64, error) {
	m.quizCreators = append(m.quizCreators, createdBy)
	return map[string]int64{model.QuizStatusDraft: 2}, nil
}

func (m *mockStatsRepo) AttemptsSince(_ context.Context, _ time.Time, _ repository.StatsScope) (*repository.AttemptSummary, error) {
	return &repository.AttemptSummary{Attempts: 12, AvgPronunciation: 81.5, DistinctStudents: 3}, nil
}

// ── Mock Cache ──

type mockCache struct {
	mu        sync.Mutex
	data      map[string][]byte
	blacklist map[string]bool
	locks     map[string]bool
	failLock  error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), blacklist: make(map[string]bool), locks: make(map[string]bool)}
}

func (c *mockCache) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blacklist[jti] = true
	return nil
}

func (c *mockCache) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blacklist[jti], nil
}

func (c *mockCache) CheckRateLimit(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return true, nil
}

func (c *mockCache) AcquireLock(_ context.Context, name string, _ time.Duration) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failLock != nil {
		return nil, c.failLock
	}
	if c.locks[name] {
		return nil, pkgredis.ErrLockHeld
	}
	c.locks[name] = true
	return func() {
		c.mu.Lock()
		delete(c.locks, name)
		c.mu.Unlock()
	}, nil
}

func (c *mockCache) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *mockCache) GetBytes(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, pkgredis.ErrNotFound
	}
	return v, nil
}

func (c *mockCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mockCache) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
