package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/store"
)

// UserDirectory resolves account ids to display names. The registry only
// needs it to show students which teacher's class a code belongs to.
type UserDirectory interface {
	LookupDisplayName(ctx context.Context, userID string) (string, error)
}

// Code generation draws from an unambiguous alphabet: no I, O, 0, or 1.
// Exactly 32 symbols, so random bytes map onto it without modulo bias.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6

	defaultMaxUses = 30
	defaultCodeTTL = 7 * 24 * time.Hour

	issueAttempts = 10
)

// EnrollmentService issues, validates, consumes, and revokes the class codes
// that gate student self-registration.
type EnrollmentService struct {
	store     store.DocumentStore
	directory UserDirectory
	now       func() time.Time
}

func NewEnrollmentService(st store.DocumentStore) *EnrollmentService {
	return &EnrollmentService{store: st, now: time.Now}
}

// NewEnrollmentServiceWithClock is test-only for deterministic expiry.
func NewEnrollmentServiceWithClock(st store.DocumentStore, now func() time.Time) *EnrollmentService {
	return &EnrollmentService{store: st, now: now}
}

// AttachDirectory supplies the user lookup. It is bound after construction
// because the registry and the user service reference each other.
func (s *EnrollmentService) AttachDirectory(directory UserDirectory) {
	s.directory = directory
}

// IssueCodeInput carries the class a new code admits students into.
type IssueCodeInput struct {
	ClassName   string
	MaxUses     int
	TTL         time.Duration
	Grade       string
	School      string
	BlockNumber string
}

// IssueCode mints a new enrollment code for the calling teacher. Candidate
// codes are regenerated until one is not already active; the uniqueness check
// and the insert are a single atomic store operation, so two teachers racing
// on the same candidate cannot both win.
func (s *EnrollmentService) IssueCode(ctx context.Context, ident domain.Identity, input IssueCodeInput) (domain.EnrollmentCode, error) {
	if !ident.IsTeacher() {
		return domain.EnrollmentCode{}, domain.ErrUnauthorized
	}
	if input.MaxUses <= 0 {
		input.MaxUses = defaultMaxUses
	}
	if input.TTL <= 0 {
		input.TTL = defaultCodeTTL
	}

	now := s.now()
	for attempt := 0; attempt < issueAttempts; attempt++ {
		candidate, err := randomCode()
		if err != nil {
			return domain.EnrollmentCode{}, fmt.Errorf("generate code: %w", err)
		}
		code := domain.EnrollmentCode{
			ID:          uuid.NewString(),
			Code:        candidate,
			IssuerID:    ident.UserID,
			ClassName:   input.ClassName,
			MaxUses:     input.MaxUses,
			CurrentUses: 0,
			ExpiresAt:   now.Add(input.TTL),
			Active:      true,
			CreatedAt:   now,
			Grade:       input.Grade,
			School:      input.School,
			BlockNumber: input.BlockNumber,
		}
		doc, err := store.ToDoc(code)
		if err != nil {
			return domain.EnrollmentCode{}, fmt.Errorf("encode code: %w", err)
		}
		// Only active codes reserve their string; an expired or revoked
		// code's string may be reissued.
		inserted, err := s.store.InsertUnique(ctx, collClassCodes, store.Filter{"code": candidate, "active": true}, doc)
		if err != nil {
			return domain.EnrollmentCode{}, fmt.Errorf("insert code: %w", err)
		}
		if inserted {
			return code, nil
		}
	}
	return domain.EnrollmentCode{}, fmt.Errorf("no unique code after %d attempts", issueAttempts)
}

// ValidateCode checks a code without consuming a use. Lookup is
// case-insensitive and whitespace-tolerant, restricted to active codes.
func (s *EnrollmentService) ValidateCode(ctx context.Context, code string) (domain.ClassInfo, error) {
	found, err := s.lookupUsable(ctx, code)
	if err != nil {
		return domain.ClassInfo{}, err
	}
	return s.classInfo(ctx, found, found.MaxUses-found.CurrentUses), nil
}

// ConsumeCode validates a code and spends one use. The increment is a single
// conditional update with the usability predicate as its filter, so
// concurrent registrations can never push a code past its quota.
func (s *EnrollmentService) ConsumeCode(ctx context.Context, code string) (domain.ClassInfo, error) {
	found, err := s.lookupUsable(ctx, code)
	if err != nil {
		return domain.ClassInfo{}, err
	}

	matched, err := s.store.UpdateOne(ctx, collClassCodes,
		store.Filter{
			"id":           found.ID,
			"active":       true,
			"current_uses": store.Lt(found.MaxUses),
			"expires_at":   store.Gt(s.now()),
		},
		store.Patch{Inc: map[string]int{"current_uses": 1}},
	)
	if err != nil {
		return domain.ClassInfo{}, fmt.Errorf("consume code: %w", err)
	}
	if matched == 0 {
		// Lost a race for the last use, or the code flipped underneath
		// us. Re-derive the precise failure.
		if _, err := s.lookupUsable(ctx, code); err != nil {
			return domain.ClassInfo{}, err
		}
		return domain.ClassInfo{}, domain.ErrCodeExhausted
	}

	remaining := found.MaxUses - found.CurrentUses - 1
	if current, err := s.findByID(ctx, found.ID); err == nil {
		remaining = current.MaxUses - current.CurrentUses
	}
	if remaining < 0 {
		remaining = 0
	}
	return s.classInfo(ctx, found, remaining), nil
}

// ToggleActive flips a code between active and revoked. Issuer only.
func (s *EnrollmentService) ToggleActive(ctx context.Context, ident domain.Identity, codeID string) (bool, error) {
	if !ident.IsTeacher() {
		return false, domain.ErrUnauthorized
	}
	code, err := s.findByID(ctx, codeID)
	if err != nil {
		return false, err
	}
	if code.IssuerID != ident.UserID {
		return false, domain.ErrNotOwner
	}
	next := !code.Active
	if _, err := s.store.UpdateOne(ctx, collClassCodes, store.Filter{"id": codeID}, store.Patch{Set: store.Doc{"active": next}}); err != nil {
		return false, fmt.Errorf("toggle code: %w", err)
	}
	return next, nil
}

// DeleteCode removes a code permanently. Issuer only.
func (s *EnrollmentService) DeleteCode(ctx context.Context, ident domain.Identity, codeID string) error {
	if !ident.IsTeacher() {
		return domain.ErrUnauthorized
	}
	code, err := s.findByID(ctx, codeID)
	if err != nil {
		return err
	}
	if code.IssuerID != ident.UserID {
		return domain.ErrNotOwner
	}
	if _, err := s.store.DeleteOne(ctx, collClassCodes, store.Filter{"id": codeID}); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}

// ListCodes returns the calling teacher's codes, newest first.
func (s *EnrollmentService) ListCodes(ctx context.Context, ident domain.Identity) ([]domain.EnrollmentCode, error) {
	if !ident.IsTeacher() {
		return nil, domain.ErrUnauthorized
	}
	docs, err := s.store.Find(ctx, collClassCodes, store.Filter{"issuer_id": ident.UserID})
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	codes, err := store.FromDocs[domain.EnrollmentCode](docs)
	if err != nil {
		return nil, fmt.Errorf("decode codes: %w", err)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].CreatedAt.After(codes[j].CreatedAt) })
	return codes, nil
}

// lookupUsable resolves a raw code string to a currently usable code,
// distinguishing not-found, expired, and exhausted.
func (s *EnrollmentService) lookupUsable(ctx context.Context, code string) (domain.EnrollmentCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	docs, err := s.store.Find(ctx, collClassCodes, store.Filter{"code": normalized, "active": true})
	if err != nil {
		return domain.EnrollmentCode{}, fmt.Errorf("find code: %w", err)
	}
	if len(docs) == 0 {
		return domain.EnrollmentCode{}, domain.ErrCodeNotFound
	}
	var found domain.EnrollmentCode
	if err := store.FromDoc(docs[0], &found); err != nil {
		return domain.EnrollmentCode{}, fmt.Errorf("decode code: %w", err)
	}
	now := s.now()
	if !now.Before(found.ExpiresAt) {
		return domain.EnrollmentCode{}, domain.ErrCodeExpired
	}
	if found.CurrentUses >= found.MaxUses {
		return domain.EnrollmentCode{}, domain.ErrCodeExhausted
	}
	return found, nil
}

func (s *EnrollmentService) findByID(ctx context.Context, codeID string) (domain.EnrollmentCode, error) {
	docs, err := s.store.Find(ctx, collClassCodes, store.Filter{"id": codeID})
	if err != nil {
		return domain.EnrollmentCode{}, fmt.Errorf("find code: %w", err)
	}
	if len(docs) == 0 {
		return domain.EnrollmentCode{}, domain.ErrCodeNotFound
	}
	var code domain.EnrollmentCode
	if err := store.FromDoc(docs[0], &code); err != nil {
		return domain.EnrollmentCode{}, fmt.Errorf("decode code: %w", err)
	}
	return code, nil
}

func (s *EnrollmentService) classInfo(ctx context.Context, code domain.EnrollmentCode, remaining int) domain.ClassInfo {
	teacher := ""
	if s.directory != nil {
		teacher, _ = s.directory.LookupDisplayName(ctx, code.IssuerID)
	}
	if teacher == "" {
		teacher = "Unknown teacher"
	}
	return domain.ClassInfo{
		ClassName:     code.ClassName,
		Grade:         code.Grade,
		School:        code.School,
		BlockNumber:   code.BlockNumber,
		TeacherName:   teacher,
		UsesRemaining: remaining,
	}
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)&31]
	}
	return string(out), nil
}
