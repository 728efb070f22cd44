package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"word-weaver-service/internal/app"
	"word-weaver-service/internal/auth"
	"word-weaver-service/internal/domain"
	pgstore "word-weaver-service/internal/infra/postgres"
	pgmigrations "word-weaver-service/internal/infra/postgres/migrations"
	rediscache "word-weaver-service/internal/infra/redis"
)

func TestCatalogLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	st := pgstore.NewDocumentStore(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	cache := rediscache.NewCatalogCache(redisClient, app.NewCatalogLoader(st), 5*time.Minute)

	snapshots := app.NewSnapshotService(st, cache)
	catalog := app.NewCatalogService(st, cache)
	teacher := domain.Identity{UserID: "teacher-1", Role: domain.RoleTeacher}

	// First boot seeds the default catalog.
	snapshots.Startup(ctx)
	words, err := catalog.Words(ctx)
	if err != nil {
		t.Fatalf("words: %v", err)
	}
	seeded := len(words)
	if seeded == 0 {
		t.Fatalf("expected seeded catalog")
	}

	desc, err := snapshots.CreateSnapshot(ctx, teacher)
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}
	if desc.WordCount != seeded {
		t.Fatalf("expected snapshot of %d words, got %d", seeded, desc.WordCount)
	}

	if err := catalog.DeleteWord(ctx, teacher, words[0].ID); err != nil {
		t.Fatalf("delete word: %v", err)
	}
	after, _ := catalog.Words(ctx)
	if len(after) != seeded-1 {
		t.Fatalf("expected %d words after delete, got %d", seeded-1, len(after))
	}

	result, err := snapshots.RestoreSnapshot(ctx, teacher, desc.CollectionName)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if result.WordCount != seeded {
		t.Fatalf("expected %d restored words, got %d", seeded, result.WordCount)
	}
	restored, _ := catalog.Words(ctx)
	if len(restored) != seeded {
		t.Fatalf("expected restored catalog of %d, got %d", seeded, len(restored))
	}

	// A second boot must preserve, not reseed.
	snapshots.Startup(ctx)
	again, _ := catalog.Words(ctx)
	if len(again) != seeded {
		t.Fatalf("second startup changed the catalog: %d -> %d", seeded, len(again))
	}
}

func TestEnrollmentAndAccountsEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	st := pgstore.NewDocumentStore(pool)

	tokens := auth.NewTokenService("it-secret", time.Hour)
	enrollment := app.NewEnrollmentService(st)
	users := app.NewUserService(st, auth.NewHasher(), tokens, enrollment)
	enrollment.AttachDirectory(users)

	teacherResp, err := users.Register(ctx, app.RegisterInput{
		Email:     "teach@example.com",
		Password:  "pw123456",
		FirstName: "Tess",
		LastName:  "Turner",
		IsTeacher: true,
	})
	if err != nil {
		t.Fatalf("register teacher: %v", err)
	}
	if _, err := users.Register(ctx, app.RegisterInput{Email: "teach@example.com", Password: "x"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	teacher := domain.Identity{UserID: teacherResp.User.ID, Role: domain.RoleTeacher}
	code, err := enrollment.IssueCode(ctx, teacher, app.IssueCodeInput{ClassName: "Period 3", MaxUses: 1})
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}

	student, err := users.Register(ctx, app.RegisterInput{
		Email:     "kid@example.com",
		Password:  "pw123456",
		FirstName: "Kim",
		ClassCode: code.Code,
	})
	if err != nil {
		t.Fatalf("register with code: %v", err)
	}
	if student.User.ClassName != "Period 3" || student.User.TeacherName != "Tess Turner" {
		t.Fatalf("expected class metadata, got %+v", student.User)
	}

	// Quota is enforced by the conditional JSONB update.
	if _, err := enrollment.ConsumeCode(ctx, code.Code); !errors.Is(err, domain.ErrCodeExhausted) {
		t.Fatalf("expected ErrCodeExhausted, got %v", err)
	}

	login, err := users.Login(ctx, "kid@example.com", "pw123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	ident, err := tokens.Verify(login.AccessToken)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if ident.UserID != student.User.ID || ident.Role != domain.RoleStudent {
		t.Fatalf("unexpected identity %+v", ident)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "weaver", "POSTGRES_PASSWORD": "weaverpass", "POSTGRES_DB": "weaverdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://weaver:weaverpass@%s:%s/weaverdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
