package app_test

import (
	"context"
	"errors"
	"testing"

	"word-weaver-service/internal/app"
	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/infra/memory"
	"word-weaver-service/internal/store"
)

func TestCreateSnapshotNamesAndCopies(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	seedWords(t, st, sampleCards(3)...)

	svc := app.NewSnapshotServiceWithClock(st, nil, fixedClock("2025-06-01T15:04:05Z"))

	desc, err := svc.CreateSnapshot(ctx, teacherIdent)
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}
	if desc.CollectionName != "words_backup_20250601_150405" {
		t.Fatalf("unexpected snapshot name %q", desc.CollectionName)
	}
	if desc.WordCount != 3 {
		t.Fatalf("expected 3 words, got %d", desc.WordCount)
	}
	if desc.ReadableTime != "2025-06-01 15:04:05" {
		t.Fatalf("unexpected readable time %q", desc.ReadableTime)
	}

	count, _ := st.Count(ctx, desc.CollectionName, nil)
	if count != 3 {
		t.Fatalf("expected snapshot collection with 3 docs, got %d", count)
	}
	live, _ := st.Count(ctx, "words", nil)
	if live != 3 {
		t.Fatalf("snapshot must not touch the live catalog, got %d docs", live)
	}
}

func TestCreateSnapshotSameSecondGetsSuffix(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	seedWords(t, st, sampleCards(1)...)

	svc := app.NewSnapshotServiceWithClock(st, nil, fixedClock("2025-06-01T15:04:05Z"))

	first, err := svc.CreateSnapshot(ctx, teacherIdent)
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	second, err := svc.CreateSnapshot(ctx, teacherIdent)
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if second.CollectionName != first.CollectionName+"_2" {
		t.Fatalf("expected suffixed name, got %q after %q", second.CollectionName, first.CollectionName)
	}
}

func TestCreateSnapshotRequiresTeacherAndContent(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	svc := app.NewSnapshotService(st, nil)

	if _, err := svc.CreateSnapshot(ctx, studentIdent); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for student, got %v", err)
	}
	if _, err := svc.CreateSnapshot(ctx, teacherIdent); !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestRestoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	cache := newMemoryCache(st)
	seedWords(t, st, sampleCards(3)...)

	svc := app.NewSnapshotServiceWithClock(st, cache, fixedClock("2025-06-01T15:04:05Z"))
	desc, err := svc.CreateSnapshot(ctx, teacherIdent)
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}

	// Wreck the live catalog, then roll back.
	if _, err := st.DeleteMany(ctx, "words", store.Filter{}); err != nil {
		t.Fatalf("clear catalog: %v", err)
	}
	seedWords(t, st, domain.WordCard{ID: "intruder", Root: "bad"})

	result, err := svc.RestoreSnapshot(ctx, teacherIdent, desc.CollectionName)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if result.RestoredFrom != desc.CollectionName || result.WordCount != 3 {
		t.Fatalf("unexpected restore result %+v", result)
	}
	if result.PreRestoreBackup != "words_backup_before_restore_20250601_150405" {
		t.Fatalf("unexpected pre-restore backup name %q", result.PreRestoreBackup)
	}

	live, _ := st.Count(ctx, "words", nil)
	if live != 3 {
		t.Fatalf("expected 3 restored words, got %d", live)
	}
	intruders, _ := st.Count(ctx, "words", store.Filter{"id": "intruder"})
	if intruders != 0 {
		t.Fatalf("expected intruder gone after restore")
	}

	// The discarded catalog survives in the safety snapshot.
	saved, _ := st.Count(ctx, result.PreRestoreBackup, store.Filter{"id": "intruder"})
	if saved != 1 {
		t.Fatalf("expected intruder preserved in pre-restore backup")
	}

	words, err := cache.Words(ctx)
	if err != nil {
		t.Fatalf("cached words: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected cache to serve restored catalog, got %d words", len(words))
	}
}

func TestRestoreSnapshotUnknownNameLeavesCatalogUntouched(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	seedWords(t, st, sampleCards(2)...)
	svc := app.NewSnapshotService(st, nil)

	if _, err := svc.RestoreSnapshot(ctx, teacherIdent, "words_backup_20990101_000000"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	// Collections outside the snapshot namespace are never restore sources.
	if _, err := svc.RestoreSnapshot(ctx, teacherIdent, "users"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound for non-snapshot collection, got %v", err)
	}

	count, _ := st.Count(ctx, "words", nil)
	if count != 2 {
		t.Fatalf("failed restore must not touch the catalog, got %d docs", count)
	}
}

func TestRestoreSnapshotRejectsEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	seedWords(t, st, sampleCards(2)...)
	svc := app.NewSnapshotService(st, nil)

	// A snapshot collection that exists but holds nothing.
	name := "words_backup_20250601_150405"
	_ = st.Insert(ctx, name, store.Doc{"id": "tmp"})
	_, _ = st.DeleteMany(ctx, name, nil)

	if _, err := svc.RestoreSnapshot(ctx, teacherIdent, name); !errors.Is(err, domain.ErrEmptySnapshot) {
		t.Fatalf("expected ErrEmptySnapshot, got %v", err)
	}
	count, _ := st.Count(ctx, "words", nil)
	if count != 2 {
		t.Fatalf("catalog must survive a rejected restore, got %d docs", count)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	seedWords(t, st, sampleCards(1)...)

	for _, stamp := range []string{"2025-06-01T10:00:00Z", "2025-06-03T10:00:00Z", "2025-06-02T10:00:00Z"} {
		svc := app.NewSnapshotServiceWithClock(st, nil, fixedClock(stamp))
		if _, err := svc.CreateSnapshot(ctx, teacherIdent); err != nil {
			t.Fatalf("snapshot at %s: %v", stamp, err)
		}
	}

	svc := app.NewSnapshotService(st, nil)
	descs, err := svc.ListSnapshots(ctx, teacherIdent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(descs) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(descs))
	}
	want := []string{
		"words_backup_20250603_100000",
		"words_backup_20250602_100000",
		"words_backup_20250601_100000",
	}
	for i, name := range want {
		if descs[i].CollectionName != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, descs[i].CollectionName)
		}
	}

	if _, err := svc.ListSnapshots(ctx, studentIdent); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for student, got %v", err)
	}
}

func TestListSnapshotsFlagsPreRestore(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	seedWords(t, st, sampleCards(1)...)

	svc := app.NewSnapshotServiceWithClock(st, nil, fixedClock("2025-06-01T10:00:00Z"))
	desc, _ := svc.CreateSnapshot(ctx, teacherIdent)

	later := app.NewSnapshotServiceWithClock(st, nil, fixedClock("2025-06-02T10:00:00Z"))
	if _, err := later.RestoreSnapshot(ctx, teacherIdent, desc.CollectionName); err != nil {
		t.Fatalf("restore: %v", err)
	}

	descs, _ := later.ListSnapshots(ctx, teacherIdent)
	foundPre := false
	for _, d := range descs {
		if d.PreRestore {
			foundPre = true
			if d.CollectionName != "words_backup_before_restore_20250602_100000" {
				t.Fatalf("unexpected pre-restore name %q", d.CollectionName)
			}
		}
	}
	if !foundPre {
		t.Fatalf("expected a pre-restore snapshot in %v", descs)
	}
}

func TestStartupPreservesExistingCatalog(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()
	seedWords(t, st, domain.WordCard{ID: "custom", Root: "custom"})

	svc := app.NewSnapshotServiceWithClock(st, nil, fixedClock("2025-06-01T10:00:00Z"))
	svc.Startup(ctx)

	count, _ := st.Count(ctx, "words", nil)
	if count != 1 {
		t.Fatalf("startup must never overwrite an existing catalog, got %d docs", count)
	}
	backup, _ := st.Count(ctx, "words_backup_20250601_100000", nil)
	if backup != 1 {
		t.Fatalf("expected startup backup of the existing catalog, got %d docs", backup)
	}
}

func TestStartupSeedsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	st := memory.NewDocumentStore()

	svc := app.NewSnapshotService(st, nil)
	svc.Startup(ctx)

	count, _ := st.Count(ctx, "words", nil)
	if count != len(domain.DefaultCatalog()) {
		t.Fatalf("expected %d seeded cards, got %d", len(domain.DefaultCatalog()), count)
	}

	// A second startup sees the seeded catalog and preserves it.
	svc.Startup(ctx)
	after, _ := st.Count(ctx, "words", nil)
	if after != count {
		t.Fatalf("second startup changed the catalog: %d -> %d", count, after)
	}
}
