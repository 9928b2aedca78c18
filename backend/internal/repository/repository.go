package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrTableMissing the queried table does not exist in this database.
var ErrTableMissing = errors.New("table does not exist")

// Repository aggregates every repository.
type Repository struct {
	db *gorm.DB

	User       UserRepository
	Student    StudentRepository
	Assignment AssignmentRepository
	Archive    ArchiveRepository
	Quiz       QuizRepository
	Response   QuizResponseRepository
	Flashcard  FlashcardRepository
	Attempt    AttemptRepository
	Session    SessionRepository
	Stats      StatsRepository
}

// NewRepository builds the aggregate on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		Student:    NewStudentRepo(db),
		Assignment: NewAssignmentRepo(db),
		Archive:    NewArchiveRepo(db),
		Quiz:       NewQuizRepo(db),
		Response:   NewQuizResponseRepo(db),
		Flashcard:  NewFlashcardRepo(db),
		Attempt:    NewAttemptRepo(db),
		Session:    NewSessionRepo(db),
		Stats:      NewStatsRepo(db),
	}
}

// BeginTx starts a transaction. Callers commit or roll back the returned handle.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx returns a Repository whose members run on tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction runs fn on a transactional Repository, committing when fn returns
// nil. A Repository assembled without a database runs fn on itself.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
