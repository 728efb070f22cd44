package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"word-weaver-service/internal/app"
	"word-weaver-service/internal/auth"
	"word-weaver-service/internal/config"
	"word-weaver-service/internal/domain"
	"word-weaver-service/internal/infra/memory"
	pgstore "word-weaver-service/internal/infra/postgres"
	"word-weaver-service/internal/store"
)

// NewProvisionAdminCmd creates the teacher account named in the config file.
// Credentials live in configuration only; running the command twice is a
// no-op.
func NewProvisionAdminCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "provision-admin",
		Short: "Create the configured admin teacher account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return provisionAdmin(cmd.Context(), *configPath)
		},
	}
}

func provisionAdmin(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return fmt.Errorf("admin email and password must be set in config")
	}

	var st store.DocumentStore = memory.NewDocumentStore()
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		st = pgstore.NewDocumentStore(pool)
	} else {
		log.Println("no postgres configured; provisioning against the in-memory store is ephemeral")
	}

	tokens := auth.NewTokenService(cfg.Auth.Secret, 24*time.Hour)
	users := app.NewUserService(st, auth.NewHasher(), tokens, app.NewEnrollmentService(st))

	_, err = users.Register(ctx, app.RegisterInput{
		Email:     cfg.Admin.Email,
		Password:  cfg.Admin.Password,
		FirstName: "Admin",
		LastName:  "Teacher",
		IsTeacher: true,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		log.Printf("admin %s already provisioned", cfg.Admin.Email)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("admin %s provisioned", cfg.Admin.Email)
	return nil
}
