package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

// SeedOptions controls what Seed bootstraps.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	// SampleData adds the demo categories and products to an empty store.
	SampleData bool
}

var sampleCategories = []string{"Electronics", "Books", "Clothing", "Home & Kitchen", "Sports"}

// Seeder bootstraps roles, the admin account and sample data. Running it
// again against a seeded store changes nothing.
type Seeder struct {
	users      ports.UserRepository
	categories ports.CategoryRepository
	products   ports.ProductRepository
	hasher     ports.PasswordHasher
	clock      ports.Clock
	opts       SeedOptions
	logger     zerolog.Logger
}

func NewSeeder(
	users ports.UserRepository,
	categories ports.CategoryRepository,
	products ports.ProductRepository,
	hasher ports.PasswordHasher,
	clock ports.Clock,
	opts SeedOptions,
	logger zerolog.Logger,
) *Seeder {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Seeder{
		users:      users,
		categories: categories,
		products:   products,
		hasher:     hasher,
		clock:      clock,
		opts:       opts,
		logger:     logger,
	}
}

func (s *Seeder) Seed(ctx context.Context) error {
	for _, role := range domain.Roles {
		if err := s.users.EnsureRole(ctx, role); err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
	}

	admin, err := s.ensureAdmin(ctx)
	if err != nil {
		return err
	}

	if !s.opts.SampleData {
		return nil
	}

	byName, err := s.ensureCategories(ctx)
	if err != nil {
		return err
	}
	return s.ensureProducts(ctx, admin, byName)
}

func (s *Seeder) ensureAdmin(ctx context.Context) (*domain.User, error) {
	email := normalizeEmail(s.opts.AdminEmail)
	if email == "" {
		return nil, errors.New("seed admin: email is required")
	}

	admin, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		if len(s.opts.AdminPassword) < minPasswordLength {
			return nil, fmt.Errorf("seed admin: password must be at least %d characters", minPasswordLength)
		}
		hash, err := s.hasher.Hash(s.opts.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("seed admin: hash password: %w", err)
		}
		admin = &domain.User{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    s.clock.Now(),
		}
		if err := s.users.Create(ctx, admin); err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		s.logger.Info().Str("email", email).Msg("admin account created")
	default:
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	if !admin.HasRole(domain.RoleAdmin) {
		if err := s.users.AddToRole(ctx, admin.ID, domain.RoleAdmin); err != nil {
			return nil, fmt.Errorf("seed admin role: %w", err)
		}
		admin.Roles = append(admin.Roles, domain.RoleAdmin)
	}
	return admin, nil
}

func (s *Seeder) ensureCategories(ctx context.Context) (map[string]domain.Category, error) {
	n, err := s.categories.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	if n == 0 {
		for _, name := range sampleCategories {
			if err := s.categories.Create(ctx, &domain.Category{Name: name}); err != nil {
				return nil, fmt.Errorf("seed category %s: %w", name, err)
			}
		}
		s.logger.Info().Int("count", len(sampleCategories)).Msg("sample categories created")
	}

	byName := make(map[string]domain.Category, len(sampleCategories))
	for _, name := range sampleCategories {
		c, err := s.categories.FindByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("seed category %s missing: %w", name, err)
		}
		byName[name] = *c
	}
	return byName, nil
}

func (s *Seeder) ensureProducts(ctx context.Context, admin *domain.User, categories map[string]domain.Category) error {
	n, err := s.products.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if n > 0 {
		return nil
	}

	now := s.clock.Now()
	days := func(d int) time.Time { return now.AddDate(0, 0, d) }
	end := func(d int) *time.Time { t := days(d); return &t }

	samples := []domain.Product{
		{
			Name:         "Laptop",
			Price:        decimal.RequireFromString("999.99"),
			StartDate:    days(-10),
			DurationDays: 30,
			CategoryID:   categories["Electronics"].ID,
			CreatedAt:    days(-15),
			EndDate:      end(20),
		},
		{
			Name:         "Book",
			Price:        decimal.RequireFromString("19.99"),
			StartDate:    days(-5),
			DurationDays: 20,
			CategoryID:   categories["Books"].ID,
			CreatedAt:    days(-10),
			EndDate:      end(10),
		},
		{
			Name:         "T-Shirt",
			Price:        decimal.RequireFromString("14.99"),
			StartDate:    days(-2),
			DurationDays: 10,
			CategoryID:   categories["Clothing"].ID,
			CreatedAt:    days(-7),
			EndDate:      end(8),
		},
	}

	for i := range samples {
		samples[i].CreatedByUserID = admin.ID
		if err := s.products.Create(ctx, &samples[i]); err != nil {
			return fmt.Errorf("seed product %s: %w", samples[i].Name, err)
		}
	}

	s.logger.Info().Int("count", len(samples)).Msg("sample products created")
	return nil
}
