package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"literacy-hub/backend/internal/dto"
	pkgerrors "literacy-hub/backend/pkg/errors"
	pkgredis "literacy-hub/backend/pkg/redis"
)

// ErrDraftNotFound the draft expired or never existed.
var ErrDraftNotFound = errors.New("draft not found")

// ErrInvalidDraftID draft ids are UUIDs.
var ErrInvalidDraftID = errors.New("invalid draft id")

const defaultDraftTTL = 7 * 24 * time.Hour

func draftKey(userID, draftID string) string {
	return fmt.Sprintf("quiz:draft:%s:%s", userID, draftID)
}

// ────────────────────── Drafts ──────────────────────

// SaveDraft stores builder state per user. An empty draftID starts a new draft.
func (s *quizService) SaveDraft(ctx context.Context, caller Caller, draftID string, req *dto.DraftRequest) (*dto.DraftResponse, error) {
	if s.cache == nil {
		return nil, pkgerrors.ErrRedisUnavailable
	}
	if draftID == "" {
		draftID = uuid.NewString()
	} else if _, err := uuid.Parse(draftID); err != nil {
		return nil, ErrInvalidDraftID
	}

	draft := dto.DraftResponse{
		DraftID:   draftID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		UpdatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.Quiz.DraftTTL
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	if err := s.cache.SetBytes(ctx, draftKey(caller.UserID, draftID), data, ttl); err != nil {
		s.logger.Error("save draft failed", zap.String("draft_id", draftID), zap.Error(err))
		return nil, err
	}
	return &draft, nil
}

func (s *quizService) GetDraft(ctx context.Context, caller Caller, draftID string) (*dto.DraftResponse, error) {
	if s.cache == nil {
		return nil, pkgerrors.ErrRedisUnavailable
	}
	if _, err := uuid.Parse(draftID); err != nil {
		return nil, ErrInvalidDraftID
	}
	return s.readDraft(ctx, draftKey(caller.UserID, draftID))
}

func (s *quizService) readDraft(ctx context.Context, key string) (*dto.DraftResponse, error) {
	data, err := s.cache.GetBytes(ctx, key)
	if err != nil {
		if errors.Is(err, pkgredis.ErrNotFound) {
			return nil, ErrDraftNotFound
		}
		s.logger.Error("read draft failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	var draft dto.DraftResponse
	if err := json.Unmarshal(data, &draft); err != nil {
		s.logger.Warn("corrupt draft", zap.String("key", key), zap.Error(err))
		return nil, ErrDraftNotFound
	}
	return &draft, nil
}

// ListDrafts returns the caller's drafts without content, newest first.
func (s *quizService) ListDrafts(ctx context.Context, caller Caller) ([]dto.DraftResponse, error) {
	if s.cache == nil {
		return nil, pkgerrors.ErrRedisUnavailable
	}
	keys, err := s.cache.ScanKeys(ctx, draftKey(caller.UserID, "*"))
	if err != nil {
		s.logger.Error("scan drafts failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.DraftResponse, 0, len(keys))
	for _, key := range keys {
		draft, err := s.readDraft(ctx, key)
		if errors.Is(err, ErrDraftNotFound) {
			// expired between scan and read
			continue
		}
		if err != nil {
			return nil, err
		}
		draft.Content = nil
		result = append(result, *draft)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (s *quizService) DeleteDraft(ctx context.Context, caller Caller, draftID string) error {
	if s.cache == nil {
		return pkgerrors.ErrRedisUnavailable
	}
	if _, err := uuid.Parse(draftID); err != nil {
		return ErrInvalidDraftID
	}
	if err := s.cache.Delete(ctx, draftKey(caller.UserID, draftID)); err != nil {
		s.logger.Error("delete draft failed", zap.String("draft_id", draftID), zap.Error(err))
		return err
	}
	return nil
}
