package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubCategoryRepo struct {
	byID     map[int64]domain.Category
	nextID   int64
	products *stubProductRepo // cascade target
	listErr  error
}

func newStubCategoryRepo(products *stubProductRepo) *stubCategoryRepo {
	return &stubCategoryRepo{byID: make(map[int64]domain.Category), products: products}
}

func (r *stubCategoryRepo) add(name string) domain.Category {
	r.nextID++
	c := domain.Category{ID: r.nextID, Name: name}
	r.byID[c.ID] = c
	return c
}

func (r *stubCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.Category, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id int64) (*domain.Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}

func (r *stubCategoryRepo) FindByName(_ context.Context, name string) (*domain.Category, error) {
	for _, c := range r.byID {
		if c.Name == name {
			clone := c
			return &clone, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (r *stubCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Name, c.Name) {
			return domain.ErrCategoryExists
		}
	}
	*c = r.add(c.Name)
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.byID, id)
	if r.products != nil {
		for pid, p := range r.products.byID {
			if p.CategoryID == id {
				delete(r.products.byID, pid)
			}
		}
	}
	return nil
}

func (r *stubCategoryRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

type stubProductRepo struct {
	byID       map[int64]domain.Product
	nextID     int64
	lastFilter ports.ProductFilter
	// updateErr, when set, is returned by Update; vanishOnUpdate also deletes
	// the row first to simulate a concurrent delete.
	updateErr      error
	vanishOnUpdate bool
	createErr      error
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{byID: make(map[int64]domain.Product)}
}

func (r *stubProductRepo) List(_ context.Context, f ports.ProductFilter) ([]domain.Product, error) {
	r.lastFilter = f
	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []domain.Product
	for _, id := range ids {
		p := r.byID[id]
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.IncludeCreator {
			p.CreatedBy = &domain.User{ID: p.CreatedByUserID}
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	p.ID = r.nextID
	r.byID[p.ID] = *p
	return nil
}

func (r *stubProductRepo) Update(_ context.Context, p *domain.Product) error {
	if r.vanishOnUpdate {
		delete(r.byID, p.ID)
	}
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ErrConcurrencyConflict
	}
	r.byID[p.ID] = *p
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

func (r *stubProductRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := r.byID[id]
	return ok, nil
}

func (r *stubProductRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

type stubUserRepo struct {
	users map[string]*domain.User // by id
	roles map[string]struct{}
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User), roles: make(map[string]struct{})}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]string(nil), u.Roles...)
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) EnsureRole(_ context.Context, role string) error {
	r.roles[role] = struct{}{}
	return nil
}

func (r *stubUserRepo) AddToRole(_ context.Context, userID, role string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
	return nil
}

type stubRevocations struct {
	revoked map[string]time.Duration
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{revoked: make(map[string]time.Duration)}
}

func (s *stubRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	s.revoked[tokenID] = ttl
	return nil
}

func (s *stubRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.revoked[tokenID]
	return ok, nil
}

// fastHasher keeps tests quick; it is not a real hash.
type fastHasher struct{}

func (fastHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fastHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	discardLogger = zerolog.Nop()
	testNow       = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	anonymousCaller = domain.Anonymous()
	userCaller      = domain.Caller{UserID: "user-1", Email: "user@example.com", Roles: []string{domain.RoleUser}}
	adminCaller     = domain.Caller{UserID: "admin-1", Email: "admin@example.com", Roles: []string{domain.RoleAdmin}}
)
