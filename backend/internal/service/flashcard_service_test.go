package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/internal/scoring"
)

func setupTestFlashcardService() (FlashcardService, *testEnv) {
	env := newTestEnv()
	env.addUser("teacher-3", "teacher3@school.ph", model.RoleTeacher, 3)
	env.addStudent("s-1", "100000000001", 3)
	env.assign("s-1", "teacher-3")
	return NewFlashcardService(env.repo, zap.NewNop()), env
}

func TestFlashcardCreate(t *testing.T) {
	svc, env := setupTestFlashcardService()
	ctx := context.Background()

	card, err := svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "english", PhonemicLevel: "word", Sentence: " The cat sat. ", Position: 2})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if card.Sentence != "The cat sat." || card.ID == "" {
		t.Errorf("unexpected card %+v", card)
	}
	if env.flashcards.cards[card.ID].CreatedBy == nil {
		t.Error("audit fields not set")
	}

	if _, err := svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "filipino", PhonemicLevel: "proficient", Sentence: "Ang aso."}); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestFlashcardWrite_UnreadableSentence(t *testing.T) {
	svc, env := setupTestFlashcardService()
	ctx := context.Background()

	for _, sentence := range []string{"?!", " ... ", "- -"} {
		if _, err := svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "english", PhonemicLevel: "word", Sentence: sentence}); !errors.Is(err, ErrInvalidSentence) {
			t.Errorf("Create(%q): expected ErrInvalidSentence, got %v", sentence, err)
		}
	}
	if len(env.flashcards.cards) != 0 {
		t.Errorf("no card should be stored, got %d", len(env.flashcards.cards))
	}

	card, err := svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "filipino", PhonemicLevel: "word", Sentence: "Aso!"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Update(ctx, masterCaller, card.ID, &dto.FlashcardRequest{Language: "filipino", PhonemicLevel: "word", Sentence: "?!"}); !errors.Is(err, ErrInvalidSentence) {
		t.Errorf("Update: expected ErrInvalidSentence, got %v", err)
	}
	if env.flashcards.cards[card.ID].Sentence != "Aso!" {
		t.Error("rejected update must not change the card")
	}
}

func TestFlashcardListUpdateDelete(t *testing.T) {
	svc, _ := setupTestFlashcardService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "english", PhonemicLevel: "word", Sentence: "dog", Position: 2})
	svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "english", PhonemicLevel: "word", Sentence: "cat", Position: 1})
	svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "filipino", PhonemicLevel: "word", Sentence: "aso"})

	list, err := svc.List(ctx, &dto.FlashcardListRequest{Language: "english"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].Sentence != "cat" {
		t.Errorf("expected english cards by position, got %+v", list)
	}

	updated, err := svc.Update(ctx, masterCaller, a.ID, &dto.FlashcardRequest{Language: "english", PhonemicLevel: "phrase", Sentence: "big dog"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.PhonemicLevel != "phrase" || updated.Sentence != "big dog" {
		t.Errorf("unexpected update %+v", updated)
	}
	if _, err := svc.Update(ctx, masterCaller, "missing", &dto.FlashcardRequest{Language: "english", Sentence: "x"}); !errors.Is(err, ErrFlashcardNotFound) {
		t.Errorf("expected ErrFlashcardNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, masterCaller, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, masterCaller, a.ID); !errors.Is(err, ErrFlashcardNotFound) {
		t.Errorf("expected ErrFlashcardNotFound, got %v", err)
	}
}

func TestFlashcardAttempt_Scores(t *testing.T) {
	svc, env := setupTestFlashcardService()
	ctx := context.Background()
	card, _ := svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "english", PhonemicLevel: "sentence", Sentence: "The cat sat on the mat."})

	resp, err := svc.Attempt(ctx, teacherCaller, card.ID, &dto.AttemptRequest{StudentID: "s-1", Transcript: "the cat sat on the mat"})
	if err != nil {
		t.Fatalf("Attempt failed: %v", err)
	}
	if resp.WordAccuracy != 100 || resp.Remark != scoring.RemarkExcellent {
		t.Errorf("expected a perfect reading, got accuracy %.1f remark %s", resp.WordAccuracy, resp.Remark)
	}
	if len(resp.Words) != 6 || resp.Sentence != "The cat sat on the mat." {
		t.Errorf("unexpected word results %+v", resp.Words)
	}

	silent, err := svc.Attempt(ctx, teacherCaller, card.ID, &dto.AttemptRequest{StudentID: "s-1", Transcript: ""})
	if err != nil {
		t.Fatalf("Attempt failed: %v", err)
	}
	if silent.WordAccuracy != 0 || silent.Remark != scoring.RemarkNeedsPractice {
		t.Errorf("expected a failed reading, got %+v", silent)
	}

	if len(env.attempts.attempts) != 2 {
		t.Fatalf("expected 2 stored attempts, got %d", len(env.attempts.attempts))
	}
	if env.attempts.attempts[0].RecordedBy != teacherCaller.UserID {
		t.Error("recorder not stored")
	}
}

func TestFlashcardAttempt_Access(t *testing.T) {
	svc, env := setupTestFlashcardService()
	ctx := context.Background()
	card, _ := svc.Create(ctx, masterCaller, &dto.FlashcardRequest{Language: "filipino", PhonemicLevel: "word", Sentence: "aso"})
	env.addStudent("s-2", "100000000002", 3)

	if _, err := svc.Attempt(ctx, teacherCaller, card.ID, &dto.AttemptRequest{StudentID: "s-2", Transcript: "aso"}); !errors.Is(err, ErrStudentNotAssigned) {
		t.Errorf("expected ErrStudentNotAssigned, got %v", err)
	}
	if _, err := svc.Attempt(ctx, masterCaller, card.ID, &dto.AttemptRequest{StudentID: "s-2", Transcript: "aso"}); err != nil {
		t.Errorf("school-wide roles may record for any student: %v", err)
	}
	if _, err := svc.Attempt(ctx, teacherCaller, card.ID, &dto.AttemptRequest{StudentID: "missing"}); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}
	if _, err := svc.Attempt(ctx, teacherCaller, "missing", &dto.AttemptRequest{StudentID: "s-1"}); !errors.Is(err, ErrFlashcardNotFound) {
		t.Errorf("expected ErrFlashcardNotFound, got %v", err)
	}

	env.flashcards.cards["blank"] = &model.Flashcard{FlashcardID: "blank", Language: "english"}
	if _, err := svc.Attempt(ctx, teacherCaller, "blank", &dto.AttemptRequest{StudentID: "s-1"}); !errors.Is(err, scoring.ErrEmptyExpected) {
		t.Errorf("expected ErrEmptyExpected, got %v", err)
	}
}

func TestFlashcardHistory(t *testing.T) {
	svc, env := setupTestFlashcardService()
	ctx := context.Background()
	env.attempts.attempts = []model.FlashcardAttempt{
		{AttemptID: "a-1", StudentID: "s-1", Language: "english", PronunciationScore: 80},
		{AttemptID: "a-2", StudentID: "s-1", Language: "english", PronunciationScore: 90},
		{AttemptID: "a-3", StudentID: "s-1", Language: "filipino", PronunciationScore: 60},
		{AttemptID: "a-4", StudentID: "s-2", Language: "english", PronunciationScore: 10},
	}

	resp, err := svc.History(ctx, teacherCaller, "s-1", &dto.PaginationRequest{})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if resp.Total != 3 || resp.List[0].AttemptID != "a-3" {
		t.Errorf("expected 3 attempts newest first, got %+v", resp.List)
	}
	if len(resp.Averages) != 2 || resp.Averages[0].Language != "english" || resp.Averages[0].PronunciationScore != 85 {
		t.Errorf("unexpected averages %+v", resp.Averages)
	}

	stranger := Caller{UserID: "teacher-9", Role: model.RoleTeacher, GradeLevel: 3}
	if _, err := svc.History(ctx, stranger, "s-1", &dto.PaginationRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.History(ctx, coordCaller, "missing", &dto.PaginationRequest{}); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}
}
