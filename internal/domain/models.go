package domain

import "time"

// Role distinguishes the two kinds of accounts the service knows about.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Identity is the authenticated caller context produced by the auth layer.
// The core services never see credentials, only this.
type Identity struct {
	UserID string
	Role   Role
}

// IsTeacher reports whether the caller may perform teacher-only operations.
func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }

// Word difficulty tiers. Points conventionally track difficulty
// (beginner=10, intermediate=15, advanced=20) but mutation paths do not
// enforce the pairing; callers own it.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// WordCard is one entry of the shared vocabulary catalog: a Greek or Latin
// prefix, root, or suffix with its meaning and example words.
type WordCard struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"` // prefix, root, suffix
	Root       string   `json:"root"`
	Origin     string   `json:"origin"`
	Meaning    string   `json:"meaning"`
	Examples   []string `json:"examples"`
	Definition string   `json:"definition"`
	Difficulty string   `json:"difficulty"`
	Points     int      `json:"points"`
	Category   string   `json:"category"`
}

// User is the stored account shape. PasswordHash never leaves the service;
// Profile is the outward view.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsTeacher    bool      `json:"is_teacher"`
	CreatedAt    time.Time `json:"created_at"`
	Level        int       `json:"level"`
	TotalPoints  int       `json:"total_points"`
	StreakDays   int       `json:"streak_days"`
	Badges       []string  `json:"badges"`

	// Class enrollment fields, populated on self-registration.
	ClassName   string `json:"class_name,omitempty"`
	Grade       string `json:"grade,omitempty"`
	School      string `json:"school,omitempty"`
	BlockNumber string `json:"block_number,omitempty"`
	TeacherName string `json:"teacher,omitempty"`
}

// Role derives the caller role from the stored flag.
func (u User) Role() Role {
	if u.IsTeacher {
		return RoleTeacher
	}
	return RoleStudent
}

// DisplayName is the human-readable name used in class info views.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Profile is the outward account view. Level and badges are derived from
// points and streak on every read, never accepted as input.
type Profile struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	IsTeacher   bool     `json:"is_teacher"`
	Level       int      `json:"level"`
	TotalPoints int      `json:"total_points"`
	StreakDays  int      `json:"streak_days"`
	Badges      []string `json:"badges"`
	ClassName   string   `json:"class_name,omitempty"`
	Grade       string   `json:"grade,omitempty"`
	School      string   `json:"school,omitempty"`
	BlockNumber string   `json:"block_number,omitempty"`
	TeacherName string   `json:"teacher,omitempty"`
}

// EnrollmentCode gates student self-registration into a teacher's class.
type EnrollmentCode struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	IssuerID    string    `json:"issuer_id"`
	ClassName   string    `json:"class_name"`
	MaxUses     int       `json:"max_uses"`
	CurrentUses int       `json:"current_uses"`
	ExpiresAt   time.Time `json:"expires_at"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`

	Grade       string `json:"grade,omitempty"`
	School      string `json:"school,omitempty"`
	BlockNumber string `json:"block_number,omitempty"`
}

// Usable reports whether the code can still admit a student at the given time.
func (c EnrollmentCode) Usable(now time.Time) bool {
	return c.Active && now.Before(c.ExpiresAt) && c.CurrentUses < c.MaxUses
}

// ClassInfo is what a student sees when validating or consuming a code.
type ClassInfo struct {
	ClassName     string `json:"class_name"`
	Grade         string `json:"grade,omitempty"`
	School        string `json:"school,omitempty"`
	BlockNumber   string `json:"block_number,omitempty"`
	TeacherName   string `json:"teacher_name"`
	UsesRemaining int    `json:"uses_remaining"`
}

// SnapshotDescriptor describes one immutable catalog snapshot.
type SnapshotDescriptor struct {
	CollectionName string `json:"collection_name"`
	TimestampKey   string `json:"timestamp"`
	ReadableTime   string `json:"readable_time"`
	WordCount      int    `json:"word_count"`
	PreRestore     bool   `json:"pre_restore,omitempty"`
}

// RestoreResult reports the outcome of rolling the catalog back to a snapshot.
type RestoreResult struct {
	RestoredFrom     string `json:"restored_from"`
	WordCount        int    `json:"word_count"`
	PreRestoreBackup string `json:"pre_restore_backup,omitempty"`
}

// StudySession records one flashcard answer.
type StudySession struct {
	UserID       string    `json:"user_id"`
	WordID       string    `json:"word_id"`
	Correct      bool      `json:"correct"`
	Timestamp    time.Time `json:"timestamp"`
	PointsEarned int       `json:"points_earned"`
}

// QuizResult records one completed quiz.
type QuizResult struct {
	UserID         string    `json:"user_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Timestamp      time.Time `json:"timestamp"`
	PointsEarned   int       `json:"points_earned"`
}

// ProgressReport is the teacher-facing view of one student's activity.
type ProgressReport struct {
	UserID        string         `json:"user_id"`
	StudySessions []StudySession `json:"study_sessions"`
	QuizResults   []QuizResult   `json:"quiz_results"`
}

// StudySet is a teacher-curated subset of the catalog.
type StudySet struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	WordIDs     []string  `json:"word_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaderboardEntry is one row of the student point ranking.
type LeaderboardEntry struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Level       int      `json:"level"`
	TotalPoints int      `json:"total_points"`
	Badges      []string `json:"badges"`
}
