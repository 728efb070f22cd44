package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"word-weaver-service/internal/app"
	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/infra/memory"
	"word-weaver-service/internal/store"
)

var (
	teacherIdent = domain.Identity{UserID: "teacher-1", Role: domain.RoleTeacher}
	studentIdent = domain.Identity{UserID: "student-1", Role: domain.RoleStudent}
)

// fakeHasher keeps app tests independent of bcrypt.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Verify(hash, password string) bool    { return hash == "hashed:"+password }

type fakeTokens struct{}

func (fakeTokens) Issue(userID string, role domain.Role) (string, error) {
	return fmt.Sprintf("token:%s:%s", userID, role), nil
}

func seedWords(t *testing.T, st store.DocumentStore, cards ...domain.WordCard) {
	t.Helper()
	docs, err := store.ToDocs(cards)
	if err != nil {
		t.Fatalf("encode cards: %v", err)
	}
	if err := st.InsertMany(context.Background(), "words", docs); err != nil {
		t.Fatalf("seed words: %v", err)
	}
}

func sampleCards(n int) []domain.WordCard {
	cards := make([]domain.WordCard, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, domain.WordCard{
			ID:         fmt.Sprintf("word-%d", i),
			Type:       "prefix",
			Root:       fmt.Sprintf("root-%d", i),
			Meaning:    "sample",
			Difficulty: domain.DifficultyBeginner,
			Points:     10,
		})
	}
	return cards
}

func insertUser(t *testing.T, st store.DocumentStore, user domain.User) {
	t.Helper()
	doc, err := store.ToDoc(user)
	if err != nil {
		t.Fatalf("encode user: %v", err)
	}
	if err := st.Insert(context.Background(), "users", doc); err != nil {
		t.Fatalf("insert user: %v", err)
	}
}

func newUserService(st store.DocumentStore) (*app.UserService, *app.EnrollmentService) {
	enrollment := app.NewEnrollmentService(st)
	users := app.NewUserService(st, fakeHasher{}, fakeTokens{}, enrollment)
	enrollment.AttachDirectory(users)
	return users, enrollment
}

func fixedClock(raw string) func() time.Time {
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return at }
}

func newMemoryCache(st store.DocumentStore) *memory.CatalogCache {
	return memory.NewCatalogCache(app.NewCatalogLoader(st), time.Minute)
}
