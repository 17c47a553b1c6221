package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

func main() {
	var (
		idFlag    string
		emailFlag string
		tierFlag  string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.StringVar(&tierFlag, "tier", "pro", "tier to assign (free, pro, business)")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	tier := domain.Tier(strings.ToLower(strings.TrimSpace(tierFlag)))

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if !tier.Valid() {
		exitWithError(fmt.Errorf("%w: %q", domain.ErrInvalidTier, tierFlag))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	current, err := loadUser(ctx, runner, userID, email)
	if err != nil {
		exitWithError(fmt.Errorf("failed to load user: %w", err))
	}
	if current.Tier == tier {
		fmt.Printf("User %s (%s) already on tier %s\n", current.ID, current.Email, tier)
		return
	}

	var updated domain.User
	var plan string
	row := runner.QueryRow(ctx, sqlinline.QUpdateUserPlan, current.ID, string(tier))
	if err := row.Scan(&updated.ID, &updated.Email, &plan); err != nil {
		exitWithError(fmt.Errorf("failed to update user tier: %w", err))
	}
	updated.Tier = domain.ParseTier(plan)

	fmt.Printf("User %s (%s) moved from tier %s to %s\n", updated.ID, updated.Email, current.Tier, updated.Tier)
	if updated.IsFree() {
		fmt.Println("downloads will carry the visible FitGen Studio overlay")
	}
}

func loadUser(ctx context.Context, sql infra.SQLExecutor, userID, email string) (*domain.User, error) {
	query, arg := sqlinline.QSelectUserPlanByID, userID
	if userID == "" {
		query, arg = sqlinline.QSelectUserPlanByEmail, email
	}
	var user domain.User
	var plan string
	if err := sql.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &plan); err != nil {
		return nil, err
	}
	user.Tier = domain.ParseTier(plan)
	return &user, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
