package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/store"
)

// PasswordHasher abstracts credential hashing; internal/auth provides the
// bcrypt implementation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// TokenIssuer signs access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(userID string, role domain.Role) (string, error)
}

// UserService handles accounts: registration (optionally through an
// enrollment code), login, and profile materialization.
type UserService struct {
	store      store.DocumentStore
	hasher     PasswordHasher
	tokens     TokenIssuer
	enrollment *EnrollmentService
	now        func() time.Time
}

func NewUserService(st store.DocumentStore, hasher PasswordHasher, tokens TokenIssuer, enrollment *EnrollmentService) *UserService {
	return &UserService{store: st, hasher: hasher, tokens: tokens, enrollment: enrollment, now: time.Now}
}

// RegisterInput is the self-registration payload. ClassCode is optional:
// empty means registration without class enrollment, which is a valid path.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	IsTeacher   bool
	Grade       string
	School      string
	BlockNumber string
	TeacherName string
	ClassCode   string
}

// AuthResponse pairs a signed token with the account's outward view.
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        domain.Profile `json:"user"`
}

// Register creates an account. Email uniqueness is enforced by an atomic
// insert-if-absent; a supplied class code is consumed first and its class
// metadata copied onto the account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Cheap pre-check so an obviously duplicate email does not burn a
	// code use; the InsertUnique below remains the authoritative guard.
	taken, err := s.store.Count(ctx, collUsers, store.Filter{"email": email})
	if err != nil {
		return AuthResponse{}, fmt.Errorf("check email: %w", err)
	}
	if taken > 0 {
		return AuthResponse{}, domain.ErrEmailTaken
	}

	user := domain.User{
		ID:          uuid.NewString(),
		Email:       email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		IsTeacher:   input.IsTeacher,
		CreatedAt:   s.now(),
		Level:       1,
		Badges:      []string{},
		Grade:       input.Grade,
		School:      input.School,
		BlockNumber: input.BlockNumber,
		TeacherName: input.TeacherName,
	}

	if code := strings.TrimSpace(input.ClassCode); code != "" {
		info, err := s.enrollment.ConsumeCode(ctx, code)
		if err != nil {
			return AuthResponse{}, err
		}
		user.ClassName = info.ClassName
		user.Grade = info.Grade
		user.School = info.School
		user.BlockNumber = info.BlockNumber
		user.TeacherName = info.TeacherName
	}

	user.PasswordHash, err = s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	doc, err := store.ToDoc(user)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("encode user: %w", err)
	}
	inserted, err := s.store.InsertUnique(ctx, collUsers, store.Filter{"email": email}, doc)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("insert user: %w", err)
	}
	if !inserted {
		return AuthResponse{}, domain.ErrEmailTaken
	}

	return s.authResponse(user)
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return AuthResponse{}, err
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return AuthResponse{}, domain.ErrInvalidCredentials
	}
	return s.authResponse(user)
}

// ProfileOf materializes the caller's profile. Level and badges are derived
// from the stored point total and streak on every read and written back as a
// cache; they are never taken from external input.
func (s *UserService) ProfileOf(ctx context.Context, ident domain.Identity) (domain.Profile, error) {
	user, err := s.findByID(ctx, ident.UserID)
	if err != nil {
		return domain.Profile{}, err
	}

	level := domain.LevelForPoints(user.TotalPoints)
	badges := domain.BadgesFor(user.TotalPoints, level, user.StreakDays)
	if _, err := s.store.UpdateOne(ctx, collUsers,
		store.Filter{"id": user.ID},
		store.Patch{Set: store.Doc{"level": level, "badges": badges}},
	); err != nil {
		return domain.Profile{}, fmt.Errorf("cache level: %w", err)
	}
	user.Level = level
	user.Badges = badges
	return profileOf(user), nil
}

// ListUsers returns every account without credentials. Teacher only.
func (s *UserService) ListUsers(ctx context.Context, ident domain.Identity) ([]domain.Profile, error) {
	if !ident.IsTeacher() {
		return nil, domain.ErrUnauthorized
	}
	docs, err := s.store.Find(ctx, collUsers, nil)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := store.FromDocs[domain.User](docs)
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	profiles := make([]domain.Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, profileOf(user))
	}
	return profiles, nil
}

// Leaderboard returns the top students by points, recomputing the derived
// level and badges for display.
func (s *UserService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	docs, err := s.store.Find(ctx, collUsers, store.Filter{"is_teacher": false})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	students, err := store.FromDocs[domain.User](docs)
	if err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].TotalPoints != students[j].TotalPoints {
			return students[i].TotalPoints > students[j].TotalPoints
		}
		return students[i].DisplayName() < students[j].DisplayName()
	})
	if len(students) > 10 {
		students = students[:10]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(students))
	for _, student := range students {
		level := domain.LevelForPoints(student.TotalPoints)
		entries = append(entries, domain.LeaderboardEntry{
			FirstName:   student.FirstName,
			LastName:    student.LastName,
			Level:       level,
			TotalPoints: student.TotalPoints,
			Badges:      domain.BadgesFor(student.TotalPoints, level, student.StreakDays),
		})
	}
	return entries, nil
}

// LookupDisplayName implements UserDirectory for the enrollment registry.
func (s *UserService) LookupDisplayName(ctx context.Context, userID string) (string, error) {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.DisplayName(), nil
}

func (s *UserService) authResponse(user domain.User) (AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Role())
	if err != nil {
		return AuthResponse{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResponse{AccessToken: token, TokenType: "bearer", User: profileOf(user)}, nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (domain.User, error) {
	docs, err := s.store.Find(ctx, collUsers, store.Filter{"email": email})
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	if len(docs) == 0 {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	var user domain.User
	if err := store.FromDoc(docs[0], &user); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}

func (s *UserService) findByID(ctx context.Context, userID string) (domain.User, error) {
	docs, err := s.store.Find(ctx, collUsers, store.Filter{"id": userID})
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	if len(docs) == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	var user domain.User
	if err := store.FromDoc(docs[0], &user); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}

func profileOf(user domain.User) domain.Profile {
	badges := user.Badges
	if badges == nil {
		badges = []string{}
	}
	return domain.Profile{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsTeacher:   user.IsTeacher,
		Level:       user.Level,
		TotalPoints: user.TotalPoints,
		StreakDays:  user.StreakDays,
		Badges:      badges,
		ClassName:   user.ClassName,
		Grade:       user.Grade,
		School:      user.School,
		BlockNumber: user.BlockNumber,
		TeacherName: user.TeacherName,
	}
}
