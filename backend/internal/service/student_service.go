package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/repository"
)

// ── student errors ──

var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrLRNExists          = errors.New("LRN is already registered")
	ErrInvalidLRN         = errors.New("LRN must be exactly 12 digits")
	ErrInvalidLevel       = errors.New("level is not valid for the subject")
	ErrInvalidBirthDate   = errors.New("birth date must be YYYY-MM-DD")
	ErrNotCoordinator     = errors.New("user is not a coordinator")
	ErrCoordinatorNoGrade = errors.New("coordinator has no grade level")
)

// StudentService learner records, scoped by the caller's role.
type StudentService interface {
	List(ctx context.Context, caller Caller, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	GetByID(ctx context.Context, caller Caller, id string) (*dto.StudentResponse, error)
	Create(ctx context.Context, caller Caller, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Import(ctx context.Context, caller Caller, reader io.Reader) (*dto.ImportResult, error)
	Export(ctx context.Context, caller Caller, req *dto.StudentListRequest) ([]byte, error)
	CoordinatorStudents(ctx context.Context, coordinatorID string) (*dto.CoordinatorStudentsResponse, error)
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService creates a StudentService.
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, caller Caller, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	filters := s.scopedFilters(caller, req)

	students, total, err := s.repo.Student.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list students failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, total, nil
}

// scopedFilters narrows the request to what the caller may see.
func (s *studentService) scopedFilters(caller Caller, req *dto.StudentListRequest) *repository.StudentListFilters {
	filters := &repository.StudentListFilters{
		GradeLevel: req.GradeLevel,
		Section:    req.Section,
		Subject:    req.Subject,
		Level:      req.Level,
		Keyword:    req.Keyword,
		Unassigned: req.Unassigned,
	}
	switch {
	case caller.SchoolWide():
	case caller.Role == model.RoleCoordinator:
		filters.GradeLevel = caller.GradeLevel
	default:
		filters.TeacherID = caller.UserID
		filters.Unassigned = false
	}
	return filters
}

// ────────────────────── GetByID ──────────────────────

func (s *studentService) GetByID(ctx context.Context, caller Caller, id string) (*dto.StudentResponse, error) {
	student, err := s.loadVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toStudentResponse(student), nil
}

// loadVisible loads a student and checks the caller may see it.
func (s *studentService) loadVisible(ctx context.Context, caller Caller, id string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("load student failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !canSeeStudent(caller, student) {
		return nil, ErrForbidden
	}
	return student, nil
}

func canSeeStudent(caller Caller, student *model.Student) bool {
	switch {
	case caller.SchoolWide():
		return true
	case caller.Role == model.RoleCoordinator:
		return student.GradeLevel == caller.GradeLevel
	default:
		return student.Assignment != nil && student.Assignment.TeacherID == caller.UserID
	}
}

// canManageGrade reports whether the caller may write students of grade.
func canManageGrade(caller Caller, grade int) bool {
	if caller.SchoolWide() {
		return true
	}
	return caller.Role == model.RoleCoordinator && caller.GradeLevel == grade
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, caller Caller, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	if !canManageGrade(caller, req.GradeLevel) {
		return nil, ErrForbidden
	}
	if !model.IsValidLRN(req.LRN) {
		return nil, ErrInvalidLRN
	}

	student := &model.Student{
		LRN:             req.LRN,
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		Suffix:          req.Suffix,
		Sex:             req.Sex,
		GradeLevel:      req.GradeLevel,
		Section:         req.Section,
		GuardianName:    req.GuardianName,
		GuardianContact: req.GuardianContact,
		Address:         req.Address,
		EnglishLevel:    req.EnglishLevel,
		FilipinoLevel:   req.FilipinoLevel,
		MathLevel:       req.MathLevel,
		VersionedModel:  model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.Audit(caller.UserID)}},
	}
	if req.BirthDate != "" {
		d, err := time.Parse(dateLayout, req.BirthDate)
		if err != nil {
			return nil, ErrInvalidBirthDate
		}
		student.BirthDate = &d
	}
	if err := validateLevels(student); err != nil {
		return nil, err
	}

	if err := s.ensureLRNFree(ctx, student.LRN, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Student.Create(ctx, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrLRNExists
		}
		s.logger.Error("create student failed", zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	student, err := s.loadVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !canManageGrade(caller, student.GradeLevel) {
		return nil, ErrForbidden
	}

	if req.LRN != nil && *req.LRN != student.LRN {
		if !model.IsValidLRN(*req.LRN) {
			return nil, ErrInvalidLRN
		}
		if err := s.ensureLRNFree(ctx, *req.LRN, id); err != nil {
			return nil, err
		}
		student.LRN = *req.LRN
	}
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.MiddleName != nil {
		student.MiddleName = *req.MiddleName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.Suffix != nil {
		student.Suffix = *req.Suffix
	}
	if req.Sex != nil {
		student.Sex = *req.Sex
	}
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			student.BirthDate = nil
		} else {
			d, err := time.Parse(dateLayout, *req.BirthDate)
			if err != nil {
				return nil, ErrInvalidBirthDate
			}
			student.BirthDate = &d
		}
	}
	gradeChanged := false
	if req.GradeLevel != nil {
		if !canManageGrade(caller, *req.GradeLevel) {
			return nil, ErrForbidden
		}
		gradeChanged = *req.GradeLevel != student.GradeLevel
		student.GradeLevel = *req.GradeLevel
	}
	if req.Section != nil {
		student.Section = *req.Section
	}
	if req.GuardianName != nil {
		student.GuardianName = *req.GuardianName
	}
	if req.GuardianContact != nil {
		student.GuardianContact = *req.GuardianContact
	}
	if req.Address != nil {
		student.Address = *req.Address
	}
	if req.EnglishLevel != nil {
		student.EnglishLevel = *req.EnglishLevel
	}
	if req.FilipinoLevel != nil {
		student.FilipinoLevel = *req.FilipinoLevel
	}
	if req.MathLevel != nil {
		student.MathLevel = *req.MathLevel
	}
	if err := validateLevels(student); err != nil {
		return nil, err
	}

	student.Version = req.Version
	student.UpdatedBy = &caller.UserID

	// a teacher of the old grade keeps no student of another grade
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Student.Update(ctx, student); err != nil {
			return err
		}
		if gradeChanged {
			return tx.Assignment.DeleteByStudent(ctx, id)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrLRNExists
		}
		s.logger.Error("update student failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if gradeChanged {
		student.Assignment = nil
		s.logger.Info("student changed grade, assignment released",
			zap.String("id", id), zap.Int("grade", student.GradeLevel))
	}
	return toStudentResponse(student), nil
}

// ────────────────────── Import ──────────────────────

var studentImportColumns = map[string][]string{
	"lrn":              {"LRN", "Learner Reference Number"},
	"first_name":       {"First Name", "Firstname", "Given Name"},
	"middle_name":      {"Middle Name", "Middlename"},
	"last_name":        {"Last Name", "Lastname", "Surname"},
	"suffix":           {"Suffix"},
	"sex":              {"Sex", "Gender"},
	"birth_date":       {"Birth Date", "Birthdate", "Date of Birth"},
	"grade":            {"Grade", "Grade Level"},
	"section":          {"Section"},
	"guardian_name":    {"Guardian", "Guardian Name", "Parent"},
	"guardian_contact": {"Contact", "Guardian Contact", "Contact Number"},
	"address":          {"Address"},
	"english_level":    {"English", "English Level"},
	"filipino_level":   {"Filipino", "Filipino Level"},
	"math_level":       {"Math", "Math Level", "Mathematics"},
}

var studentImportRequired = []string{"lrn", "first_name", "last_name", "grade"}

func (s *studentService) Import(ctx context.Context, caller Caller, reader io.Reader) (*dto.ImportResult, error) {
	rows, err := readSheet(reader, studentImportColumns, studentImportRequired)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResult{Total: len(rows)}

	lrns := make([]string, 0, len(rows))
	for _, row := range rows {
		lrns = append(lrns, row.get("lrn"))
	}
	existing, err := s.repo.Student.ExistingLRNs(ctx, lrns)
	if err != nil {
		s.logger.Error("lookup existing LRNs failed", zap.Error(err))
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	var valid []model.Student
	for _, row := range rows {
		student, reason := parseStudentRow(row)
		if reason == "" && !canManageGrade(caller, student.GradeLevel) {
			reason = fmt.Sprintf("grade %d is outside your scope", student.GradeLevel)
		}
		if reason == "" && (existing[student.LRN] || seen[student.LRN]) {
			reason = fmt.Sprintf("LRN already registered: %s", student.LRN)
		}
		if reason != "" {
			result.AddError(row.Row, reason)
			continue
		}
		seen[student.LRN] = true
		student.VersionedModel = model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.Audit(caller.UserID)}}
		valid = append(valid, student)
	}

	if len(valid) == 0 {
		return result, nil
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.Student.BatchCreate(ctx, valid)
	})
	if err != nil {
		s.logger.Error("import students rolled back", zap.Int("rows", len(valid)), zap.Error(err))
		return nil, err
	}
	result.Success = len(valid)

	s.logger.Info("students imported",
		zap.Int("total", result.Total), zap.Int("success", result.Success), zap.Int("failed", result.Failed))
	return result, nil
}

// parseStudentRow returns a non-empty reason when the row is rejected.
func parseStudentRow(row sheetRow) (model.Student, string) {
	st := model.Student{
		LRN:             row.get("lrn"),
		FirstName:       row.get("first_name"),
		MiddleName:      row.get("middle_name"),
		LastName:        row.get("last_name"),
		Suffix:          row.get("suffix"),
		Section:         row.get("section"),
		GuardianName:    row.get("guardian_name"),
		GuardianContact: row.get("guardian_contact"),
		Address:         row.get("address"),
		EnglishLevel:    normalizeLevel(row.get("english_level")),
		FilipinoLevel:   normalizeLevel(row.get("filipino_level")),
		MathLevel:       normalizeLevel(row.get("math_level")),
	}

	if st.LRN == "" || st.FirstName == "" || st.LastName == "" {
		return st, "LRN, first name and last name are required"
	}
	if !model.IsValidLRN(st.LRN) {
		return st, fmt.Sprintf("LRN must be 12 digits: %s", st.LRN)
	}
	grade, err := parseGrade(row.get("grade"))
	if err != nil {
		return st, err.Error()
	}
	st.GradeLevel = grade

	if sex := row.get("sex"); sex != "" {
		switch strings.ToLower(sex) {
		case "m", "male":
			st.Sex = "male"
		case "f", "female":
			st.Sex = "female"
		default:
			return st, fmt.Sprintf("invalid sex: %s", sex)
		}
	}
	if bd := row.get("birth_date"); bd != "" {
		d, err := parseSheetDate(bd)
		if err != nil {
			return st, fmt.Sprintf("invalid birth date: %s", bd)
		}
		st.BirthDate = &d
	}
	if err := validateLevels(&st); err != nil {
		return st, err.Error()
	}
	return st, ""
}

// parseSheetDate accepts the date formats spreadsheets commonly render.
func parseSheetDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, "01/02/2006", "1/2/2006", "01-02-06", "1/2/06", "January 2, 2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ────────────────────── Export ──────────────────────

func (s *studentService) Export(ctx context.Context, caller Caller, req *dto.StudentListRequest) ([]byte, error) {
	students, err := s.repo.Student.ListAll(ctx, s.scopedFilters(caller, req))
	if err != nil {
		s.logger.Error("list students for export failed", zap.Error(err))
		return nil, err
	}

	columns := []sheetColumn{
		{"LRN", 16}, {"First Name", 16}, {"Middle Name", 14}, {"Last Name", 16}, {"Suffix", 8},
		{"Sex", 8}, {"Birth Date", 12}, {"Grade", 8}, {"Section", 14},
		{"Guardian", 22}, {"Contact", 16}, {"Address", 30},
		{"English", 14}, {"Filipino", 14}, {"Math", 18}, {"Teacher", 24},
	}
	rows := make([][]interface{}, 0, len(students))
	for _, st := range students {
		birth := ""
		if st.BirthDate != nil {
			birth = st.BirthDate.Format(dateLayout)
		}
		teacher := ""
		if st.Assignment != nil && st.Assignment.Teacher != nil {
			teacher = st.Assignment.Teacher.FullName()
		}
		rows = append(rows, []interface{}{
			st.LRN, st.FirstName, st.MiddleName, st.LastName, st.Suffix,
			st.Sex, birth, st.GradeLevel, st.Section,
			st.GuardianName, st.GuardianContact, st.Address,
			st.EnglishLevel, st.FilipinoLevel, st.MathLevel, teacher,
		})
	}

	return writeSheet("Students", columns, rows)
}

// ────────────────────── CoordinatorStudents ──────────────────────

func (s *studentService) CoordinatorStudents(ctx context.Context, coordinatorID string) (*dto.CoordinatorStudentsResponse, error) {
	coordinator, err := s.repo.User.GetByID(ctx, coordinatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load coordinator failed", zap.String("id", coordinatorID), zap.Error(err))
		return nil, err
	}
	if coordinator.Role != model.RoleCoordinator {
		return nil, ErrNotCoordinator
	}
	grade := coordinator.Grade()
	if grade == 0 {
		return nil, ErrCoordinatorNoGrade
	}

	students, err := s.repo.Student.ListAll(ctx, &repository.StudentListFilters{GradeLevel: grade})
	if err != nil {
		s.logger.Error("list grade students failed", zap.Int("grade", grade), zap.Error(err))
		return nil, err
	}

	resp := &dto.CoordinatorStudentsResponse{
		Coordinator: *toUserBrief(coordinator),
		GradeLevel:  grade,
		Total:       len(students),
		Groups:      []dto.TeacherGroup{},
	}

	// Groups keep the order in which teachers first appear; unassigned go last.
	groupIndex := make(map[string]int)
	var unassigned []dto.StudentResponse
	for i := range students {
		st := &students[i]
		sr := *toStudentResponse(st)
		if st.Assignment == nil {
			unassigned = append(unassigned, sr)
			continue
		}
		idx, ok := groupIndex[st.Assignment.TeacherID]
		if !ok {
			brief := toUserBrief(st.Assignment.Teacher)
			if brief == nil {
				brief = &dto.UserBrief{ID: st.Assignment.TeacherID, Role: st.Assignment.TeacherRole}
			}
			resp.Groups = append(resp.Groups, dto.TeacherGroup{Teacher: brief})
			idx = len(resp.Groups) - 1
			groupIndex[st.Assignment.TeacherID] = idx
		}
		resp.Groups[idx].Students = append(resp.Groups[idx].Students, sr)
	}
	if len(unassigned) > 0 {
		resp.Groups = append(resp.Groups, dto.TeacherGroup{Students: unassigned})
	}

	return resp, nil
}

// ── helpers ──

func (s *studentService) ensureLRNFree(ctx context.Context, lrn, exceptID string) error {
	existing, err := s.repo.Student.GetByLRN(ctx, lrn)
	if err == nil {
		if existing.StudentID != exceptID {
			return ErrLRNExists
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("LRN lookup failed", zap.Error(err))
		return err
	}
	return nil
}

func validateLevels(st *model.Student) error {
	for _, subject := range model.Subjects {
		if level := st.LevelFor(subject); !model.IsValidLevel(subject, level) {
			return fmt.Errorf("%w: %s %q", ErrInvalidLevel, subject, level)
		}
	}
	return nil
}

// normalizeLevel maps "Non Reader" or "non-reader" to "non_reader".
func normalizeLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func toStudentResponse(st *model.Student) *dto.StudentResponse {
	resp := &dto.StudentResponse{
		ID:              st.StudentID,
		LRN:             st.LRN,
		FirstName:       st.FirstName,
		MiddleName:      st.MiddleName,
		LastName:        st.LastName,
		Suffix:          st.Suffix,
		FullName:        st.FullName(),
		Sex:             st.Sex,
		GradeLevel:      st.GradeLevel,
		Section:         st.Section,
		GuardianName:    st.GuardianName,
		GuardianContact: st.GuardianContact,
		Address:         st.Address,
		EnglishLevel:    st.EnglishLevel,
		FilipinoLevel:   st.FilipinoLevel,
		MathLevel:       st.MathLevel,
		Version:         st.Version,
	}
	if st.BirthDate != nil {
		resp.BirthDate = st.BirthDate.Format(dateLayout)
	}
	if st.Assignment != nil {
		resp.Teacher = toUserBrief(st.Assignment.Teacher)
	}
	return resp
}
