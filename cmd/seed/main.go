package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washline/api/internal/auth"
	"github.com/washline/api/internal/config"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/logging"
	"go.uber.org/zap"
)

const (
	outletName      = "Washline Kemang"
	outletLatitude  = -6.2607
	outletLongitude = 106.8137
	outletAddress   = "Jl. Kemang Raya No. 1, Jakarta Selatan"
)

func main() {
	// CLI flags
	email := flag.String("email", "", "Super admin email address")
	password := flag.String("password", "", "Super admin password")
	name := flag.String("name", "", "Super admin full name")
	flag.Parse()

	// Fall back to environment variables
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Fall back to defaults
	if *email == "" {
		*email = "admin@washline.local"
	}
	if *password == "" {
		*password = "password123"
		logger.Warn("using default password 'password123', change it immediately in production")
	}
	if *name == "" {
		*name = "Washline Admin"
	}

	if err := seed(context.Background(), logger, cfg, *email, *password, *name); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

// seed creates the super admin and a default outlet in one transaction.
// Both steps are idempotent.
func seed(ctx context.Context, logger *zap.Logger, cfg *config.Config, email, password, fullName string) error {
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	logger.Info("connected to database")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	outletID, err := seedOutlet(ctx, logger, q)
	if err != nil {
		return fmt.Errorf("seed outlet: %w", err)
	}

	userID, err := seedSuperAdmin(ctx, logger, q, email, password, fullName)
	if err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Info("seed completed",
		zap.String("outlet_id", outletID.String()),
		zap.String("super_admin_id", userID.String()),
	)
	return nil
}

// seedOutlet creates the default outlet if no outlet has its name.
func seedOutlet(ctx context.Context, logger *zap.Logger, q *database.Queries) (uuid.UUID, error) {
	outlets, err := q.ListOutlets(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("list outlets: %w", err)
	}
	for _, o := range outlets {
		if o.Name == outletName {
			logger.Info("outlet already exists, skipping", zap.String("outlet_id", o.ID.String()))
			return o.ID, nil
		}
	}

	outlet, err := q.CreateOutlet(ctx, database.CreateOutletParams{
		Name:       outletName,
		Latitude:   outletLatitude,
		Longitude:  outletLongitude,
		Address:    outletAddress,
		City:       "Jakarta Selatan",
		Region:     "DKI Jakarta",
		Suburb:     "Bangka",
		PostalCode: "12730",
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert outlet: %w", err)
	}

	logger.Info("created outlet", zap.String("name", outlet.Name), zap.String("outlet_id", outlet.ID.String()))
	return outlet.ID, nil
}

// seedSuperAdmin creates the super admin user if the email is unused.
func seedSuperAdmin(ctx context.Context, logger *zap.Logger, q *database.Queries, email, password, fullName string) (uuid.UUID, error) {
	existing, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		logger.Info("user already exists, skipping", zap.String("email", email), zap.String("user_id", existing.ID.String()))
		return existing.ID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check user: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:          email,
		HashedPassword: hashed,
		FullName:       fullName,
		Role:           enum.RoleSuperAdmin,
		OutletID:       pgtype.UUID{},
		ShiftID:        pgtype.UUID{},
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}

	logger.Info("created super admin", zap.String("email", email), zap.String("user_id", user.ID.String()))
	return user.ID, nil
}
