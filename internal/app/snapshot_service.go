package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/store"
)

// Collection names. Snapshots are physical collections under a fixed prefix;
// restore-triggered safety snapshots carry a secondary prefix so they remain
// distinguishable from manual and startup ones.
const (
	collWords         = "words"
	collUsers         = "users"
	collClassCodes    = "class_codes"
	collStudySessions = "study_sessions"
	collQuizResults   = "quiz_results"
	collStudySets     = "study_sets"

	snapshotPrefix   = "words_backup_"
	preRestoreMarker = "before_restore_"
	timestampLayout  = "20060102_150405"
	readableLayout   = "2006-01-02 15:04:05"
)

// SnapshotService protects the live catalog against destructive edits by
// keeping a recoverable history of full-copy snapshots.
type SnapshotService struct {
	store store.DocumentStore
	cache CatalogCache
	now   func() time.Time
}

func NewSnapshotService(st store.DocumentStore, cache CatalogCache) *SnapshotService {
	return &SnapshotService{store: st, cache: cache, now: time.Now}
}

// NewSnapshotServiceWithClock is test-only for deterministic snapshot names.
func NewSnapshotServiceWithClock(st store.DocumentStore, cache CatalogCache, now func() time.Time) *SnapshotService {
	return &SnapshotService{store: st, cache: cache, now: now}
}

// CreateSnapshot copies the current catalog into a fresh timestamped
// collection. Teacher only. An empty catalog is an error here: a manual
// snapshot of nothing is never what the operator meant.
func (s *SnapshotService) CreateSnapshot(ctx context.Context, ident domain.Identity) (domain.SnapshotDescriptor, error) {
	if !ident.IsTeacher() {
		return domain.SnapshotDescriptor{}, domain.ErrUnauthorized
	}
	name, count, err := s.snapshotCatalog(ctx, snapshotPrefix)
	if err != nil {
		return domain.SnapshotDescriptor{}, err
	}
	if count == 0 {
		return domain.SnapshotDescriptor{}, domain.ErrEmptyCatalog
	}
	log.Printf("manual backup created: %d words in %s", count, name)
	return s.describe(name, count), nil
}

// ListSnapshots enumerates every snapshot collection, most recent first.
// Teacher only. A malformed timestamp downgrades to a raw label instead of
// failing the listing; it affects display only.
func (s *SnapshotService) ListSnapshots(ctx context.Context, ident domain.Identity) ([]domain.SnapshotDescriptor, error) {
	if !ident.IsTeacher() {
		return nil, domain.ErrUnauthorized
	}
	collections, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	type entry struct {
		desc   domain.SnapshotDescriptor
		at     time.Time
		parsed bool
	}
	entries := make([]entry, 0, len(collections))
	for _, name := range collections {
		if !strings.HasPrefix(name, snapshotPrefix) {
			continue
		}
		count, err := s.store.Count(ctx, name, nil)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		desc := s.describe(name, count)
		at, parseErr := time.Parse(timestampLayout, strings.TrimPrefix(desc.TimestampKey, preRestoreMarker))
		entries = append(entries, entry{desc: desc, at: at, parsed: parseErr == nil})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.parsed && b.parsed && !a.at.Equal(b.at) {
			return a.at.After(b.at)
		}
		if a.parsed != b.parsed {
			return a.parsed
		}
		return a.desc.CollectionName > b.desc.CollectionName
	})

	descs := make([]domain.SnapshotDescriptor, 0, len(entries))
	for _, e := range entries {
		descs = append(descs, e.desc)
	}
	return descs, nil
}

// RestoreSnapshot rolls the live catalog back to the named snapshot. Teacher
// only. The current catalog is itself snapshotted first, so a restore can
// always be undone; only then is the live collection replaced, atomically.
func (s *SnapshotService) RestoreSnapshot(ctx context.Context, ident domain.Identity, collectionName string) (domain.RestoreResult, error) {
	if !ident.IsTeacher() {
		return domain.RestoreResult{}, domain.ErrUnauthorized
	}
	if !strings.HasPrefix(collectionName, snapshotPrefix) {
		return domain.RestoreResult{}, domain.ErrSnapshotNotFound
	}
	collections, err := s.store.ListCollections(ctx)
	if err != nil {
		return domain.RestoreResult{}, fmt.Errorf("list collections: %w", err)
	}
	if !contains(collections, collectionName) {
		return domain.RestoreResult{}, domain.ErrSnapshotNotFound
	}

	// Safety snapshot before anything destructive. Skipped when the live
	// catalog is empty; there is nothing to lose then.
	safetyName, safetyCount, err := s.snapshotCatalog(ctx, snapshotPrefix+preRestoreMarker)
	if err != nil {
		return domain.RestoreResult{}, err
	}
	if safetyCount > 0 {
		log.Printf("pre-restore backup: %d words in %s", safetyCount, safetyName)
	} else {
		safetyName = ""
	}

	docs, err := s.store.Find(ctx, collectionName, nil)
	if err != nil {
		return domain.RestoreResult{}, fmt.Errorf("read snapshot %s: %w", collectionName, err)
	}
	if len(docs) == 0 {
		return domain.RestoreResult{}, domain.ErrEmptySnapshot
	}

	if err := s.store.ReplaceAll(ctx, collWords, docs); err != nil {
		return domain.RestoreResult{}, fmt.Errorf("replace catalog: %w", err)
	}
	s.invalidate(ctx)
	log.Printf("restored %d words from %s", len(docs), collectionName)

	return domain.RestoreResult{
		RestoredFrom:     collectionName,
		WordCount:        len(docs),
		PreRestoreBackup: safetyName,
	}, nil
}

// Startup snapshots whatever catalog exists, then seeds the bundled default
// set only when the catalog is completely empty. An existing catalog, however
// small, is never overwritten: preserve over seed. Failures are logged and do
// not prevent startup.
func (s *SnapshotService) Startup(ctx context.Context) {
	name, count, err := s.snapshotCatalog(ctx, snapshotPrefix)
	if err != nil {
		log.Printf("startup backup failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("startup backup: %d words preserved in %s", count, name)
		return
	}

	// Re-check emptiness right before seeding; seeding is strictly
	// additive-when-empty.
	current, err := s.store.Count(ctx, collWords, nil)
	if err != nil {
		log.Printf("startup seed skipped, count failed: %v", err)
		return
	}
	if current > 0 {
		log.Printf("preserved existing %d word cards", current)
		return
	}
	seed := domain.DefaultCatalog()
	docs, err := store.ToDocs(seed)
	if err != nil {
		log.Printf("startup seed skipped, encode failed: %v", err)
		return
	}
	if err := s.store.InsertMany(ctx, collWords, docs); err != nil {
		log.Printf("startup seed failed: %v", err)
		return
	}
	s.invalidate(ctx)
	log.Printf("initialized %d sample word elements", len(seed))
}

// snapshotCatalog copies the live catalog into a new collection under the
// given prefix. A zero count with nil error means the catalog was empty and
// no collection was created.
func (s *SnapshotService) snapshotCatalog(ctx context.Context, prefix string) (string, int, error) {
	docs, err := s.store.Find(ctx, collWords, nil)
	if err != nil {
		return "", 0, fmt.Errorf("read catalog: %w", err)
	}
	if len(docs) == 0 {
		return "", 0, nil
	}

	key := s.now().UTC().Format(timestampLayout)
	name := prefix + key
	// Same-second snapshots get a numeric suffix rather than merging into
	// an existing collection.
	for bump := 2; ; bump++ {
		count, err := s.store.Count(ctx, name, nil)
		if err != nil {
			return "", 0, fmt.Errorf("probe %s: %w", name, err)
		}
		if count == 0 {
			break
		}
		name = fmt.Sprintf("%s%s_%d", prefix, key, bump)
	}

	if err := s.store.InsertMany(ctx, name, docs); err != nil {
		return "", 0, fmt.Errorf("write snapshot %s: %w", name, err)
	}
	return name, len(docs), nil
}

func (s *SnapshotService) describe(name string, count int) domain.SnapshotDescriptor {
	key := strings.TrimPrefix(name, snapshotPrefix)
	pre := strings.HasPrefix(key, preRestoreMarker)
	readable := key
	if at, err := time.Parse(timestampLayout, strings.TrimPrefix(key, preRestoreMarker)); err == nil {
		readable = at.Format(readableLayout)
	}
	return domain.SnapshotDescriptor{
		CollectionName: name,
		TimestampKey:   key,
		ReadableTime:   readable,
		WordCount:      count,
		PreRestore:     pre,
	}
}

func (s *SnapshotService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func contains(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}
