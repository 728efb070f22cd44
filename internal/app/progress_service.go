package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/store"
)

// ProgressService records point-earning events and serves teacher-facing
// progress views. Every earned point goes through the stored total; level and
// badges stay derived (see UserService.ProfileOf).
type ProgressService struct {
	store store.DocumentStore
	users *UserService
	feed  *LeaderboardFeed
	now   func() time.Time
}

func NewProgressService(st store.DocumentStore, users *UserService, feed *LeaderboardFeed) *ProgressService {
	return &ProgressService{store: st, users: users, feed: feed, now: time.Now}
}

// RecordStudySession stores one flashcard answer and credits the word's
// points on a correct one. Returns the points earned.
func (s *ProgressService) RecordStudySession(ctx context.Context, ident domain.Identity, wordID string, correct bool) (int, error) {
	docs, err := s.store.Find(ctx, collWords, store.Filter{"id": wordID})
	if err != nil {
		return 0, fmt.Errorf("find word: %w", err)
	}
	if len(docs) == 0 {
		return 0, domain.ErrWordNotFound
	}
	var word domain.WordCard
	if err := store.FromDoc(docs[0], &word); err != nil {
		return 0, fmt.Errorf("decode word: %w", err)
	}

	points := 0
	if correct {
		points = word.Points
		if points == 0 {
			points = 10
		}
	}

	session := domain.StudySession{
		UserID:       ident.UserID,
		WordID:       wordID,
		Correct:      correct,
		Timestamp:    s.now(),
		PointsEarned: points,
	}
	doc, err := store.ToDoc(session)
	if err != nil {
		return 0, fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Insert(ctx, collStudySessions, doc); err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}

	if points > 0 {
		if err := s.creditPoints(ctx, ident.UserID, points); err != nil {
			return 0, err
		}
	}
	return points, nil
}

// RecordQuizResult stores one completed quiz and credits five points per
// correct answer. Returns the points earned.
func (s *ProgressService) RecordQuizResult(ctx context.Context, ident domain.Identity, score, totalQuestions int) (int, error) {
	points := score * 5

	result := domain.QuizResult{
		UserID:         ident.UserID,
		Score:          score,
		TotalQuestions: totalQuestions,
		Timestamp:      s.now(),
		PointsEarned:   points,
	}
	doc, err := store.ToDoc(result)
	if err != nil {
		return 0, fmt.Errorf("encode result: %w", err)
	}
	if err := s.store.Insert(ctx, collQuizResults, doc); err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}

	if points > 0 {
		if err := s.creditPoints(ctx, ident.UserID, points); err != nil {
			return 0, err
		}
	}
	return points, nil
}

// ProgressOf returns a student's full activity history. Teacher only.
func (s *ProgressService) ProgressOf(ctx context.Context, ident domain.Identity, userID string) (domain.ProgressReport, error) {
	if !ident.IsTeacher() {
		return domain.ProgressReport{}, domain.ErrUnauthorized
	}

	sessionDocs, err := s.store.Find(ctx, collStudySessions, store.Filter{"user_id": userID})
	if err != nil {
		return domain.ProgressReport{}, fmt.Errorf("find sessions: %w", err)
	}
	sessions, err := store.FromDocs[domain.StudySession](sessionDocs)
	if err != nil {
		return domain.ProgressReport{}, fmt.Errorf("decode sessions: %w", err)
	}

	resultDocs, err := s.store.Find(ctx, collQuizResults, store.Filter{"user_id": userID})
	if err != nil {
		return domain.ProgressReport{}, fmt.Errorf("find results: %w", err)
	}
	results, err := store.FromDocs[domain.QuizResult](resultDocs)
	if err != nil {
		return domain.ProgressReport{}, fmt.Errorf("decode results: %w", err)
	}

	return domain.ProgressReport{
		UserID:        userID,
		StudySessions: sessions,
		QuizResults:   results,
	}, nil
}

// CreateStudySet stores a teacher-curated word list and returns its id.
func (s *ProgressService) CreateStudySet(ctx context.Context, ident domain.Identity, name, description string, wordIDs []string) (string, error) {
	if !ident.IsTeacher() {
		return "", domain.ErrUnauthorized
	}
	set := domain.StudySet{
		ID:          uuid.NewString(),
		TeacherID:   ident.UserID,
		Name:        name,
		Description: description,
		WordIDs:     wordIDs,
		CreatedAt:   s.now(),
	}
	doc, err := store.ToDoc(set)
	if err != nil {
		return "", fmt.Errorf("encode study set: %w", err)
	}
	if err := s.store.Insert(ctx, collStudySets, doc); err != nil {
		return "", fmt.Errorf("insert study set: %w", err)
	}
	return set.ID, nil
}

// StudySets returns the calling teacher's own study sets.
func (s *ProgressService) StudySets(ctx context.Context, ident domain.Identity) ([]domain.StudySet, error) {
	if !ident.IsTeacher() {
		return nil, domain.ErrUnauthorized
	}
	docs, err := s.store.Find(ctx, collStudySets, store.Filter{"teacher_id": ident.UserID})
	if err != nil {
		return nil, fmt.Errorf("find study sets: %w", err)
	}
	return store.FromDocs[domain.StudySet](docs)
}

// creditPoints atomically adds to the stored point total, then refreshes the
// live leaderboard feed.
func (s *ProgressService) creditPoints(ctx context.Context, userID string, points int) error {
	matched, err := s.store.UpdateOne(ctx, collUsers,
		store.Filter{"id": userID},
		store.Patch{Inc: map[string]int{"total_points": points}},
	)
	if err != nil {
		return fmt.Errorf("credit points: %w", err)
	}
	if matched == 0 {
		return domain.ErrUserNotFound
	}

	if s.feed != nil {
		entries, err := s.users.Leaderboard(ctx)
		if err != nil {
			log.Printf("leaderboard refresh failed: %v", err)
			return nil
		}
		s.feed.Broadcast(entries)
	}
	return nil
}
