package api

import (
	"fmt"
	"log/slog"
	"time"

	authhandler "github.com/FACorreiaa/trackr/internal/domain/auth/handler"
	authrepo "github.com/FACorreiaa/trackr/internal/domain/auth/repository"
	authservice "github.com/FACorreiaa/trackr/internal/domain/auth/service"
	budgethandler "github.com/FACorreiaa/trackr/internal/domain/budget/handler"
	budgetrepo "github.com/FACorreiaa/trackr/internal/domain/budget/repository"
	categoryhandler "github.com/FACorreiaa/trackr/internal/domain/category/handler"
	categoryrepo "github.com/FACorreiaa/trackr/internal/domain/category/repository"
	categoryservice "github.com/FACorreiaa/trackr/internal/domain/category/service"
	expensehandler "github.com/FACorreiaa/trackr/internal/domain/expense/handler"
	expenserepo "github.com/FACorreiaa/trackr/internal/domain/expense/repository"
	expenseservice "github.com/FACorreiaa/trackr/internal/domain/expense/service"
	ingesthandler "github.com/FACorreiaa/trackr/internal/domain/ingest/handler"
	ingestservice "github.com/FACorreiaa/trackr/internal/domain/ingest/service"
	"github.com/FACorreiaa/trackr/internal/domain/user"
	userhandler "github.com/FACorreiaa/trackr/internal/domain/user/handler"

	"github.com/FACorreiaa/trackr/pkg/config"
	"github.com/FACorreiaa/trackr/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	AuthRepo     authrepo.AuthRepository
	CategoryRepo categoryrepo.CategoryRepository
	ExpenseRepo  expenserepo.ExpenseRepository
	BudgetRepo   budgetrepo.BudgetRepository
	UserRepo     user.UserRepo

	// Services
	TokenManager    *authservice.TokenManager
	AuthService     *authservice.AuthService
	CategoryService *categoryservice.Service
	ExpenseService  *expenseservice.Service
	IngestService   *ingestservice.Service
	UserService     user.UserService

	// Handlers
	AuthHandler     *authhandler.AuthHandler
	CategoryHandler *categoryhandler.CategoryHandler
	ExpenseHandler  *expensehandler.ExpenseHandler
	BudgetHandler   *budgethandler.BudgetHandler
	IngestHandler   *ingesthandler.IngestHandler
	UserHandler     *userhandler.UserHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.AuthRepo = authrepo.NewPostgresAuthRepository(d.DB.Pool)
	d.CategoryRepo = categoryrepo.NewPostgresCategoryRepository(d.DB.Pool)
	d.ExpenseRepo = expenserepo.NewPostgresExpenseRepository(d.DB.Pool)
	d.BudgetRepo = budgetrepo.NewPostgresBudgetRepository(d.DB.Pool)
	d.UserRepo = user.NewPostgresUserRepo(d.DB.Pool, d.Logger)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	if d.Config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	accessTokenTTL := 1 * time.Hour
	refreshTokenTTL := 30 * 24 * time.Hour

	d.TokenManager = authservice.NewTokenManager(
		d.Config.Auth.JWTSecret,
		d.Config.Auth.JWTIssuer,
		accessTokenTTL,
		refreshTokenTTL,
	)
	emailService := authservice.NewEmailService()
	d.AuthService = authservice.NewAuthService(
		d.AuthRepo,
		d.TokenManager,
		emailService,
		d.Logger,
	)

	d.CategoryService = categoryservice.New(d.CategoryRepo, d.Logger)
	d.ExpenseService = expenseservice.New(d.ExpenseRepo, d.CategoryRepo, d.Logger)
	d.IngestService = ingestservice.New(d.CategoryRepo, d.Logger)
	d.UserService = user.NewUserService(d.UserRepo, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.AuthHandler = authhandler.NewAuthHandler(d.AuthService)
	d.CategoryHandler = categoryhandler.NewCategoryHandler(d.CategoryService)
	d.ExpenseHandler = expensehandler.NewExpenseHandler(d.ExpenseService)
	d.BudgetHandler = budgethandler.NewBudgetHandler(d.BudgetRepo)
	d.IngestHandler = ingesthandler.NewIngestHandler(d.IngestService)
	d.UserHandler = userhandler.NewUserHandler(d.UserService)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
