package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration, login and token verification.
type AuthService struct {
	users       ports.UserRepository
	hasher      ports.PasswordHasher
	revocations ports.TokenRevocations // nil disables sign-out revocation
	jwtSecret   string
	tokenTTL    time.Duration
	logger      zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	revocations ports.TokenRevocations,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		revocations: revocations,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// TokenTTL is the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }

// Register creates an account in the User role.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)

	ve := domain.NewValidationError()
	if email == "" || !strings.Contains(email, "@") {
		ve.Add("email", "email must be a valid email")
	}
	if len(password) < minPasswordLength {
		ve.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if !ve.Empty() {
		return nil, ve
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.AddToRole(ctx, user.ID, domain.RoleUser); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	user.Roles = []string{domain.RoleUser}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if s.hasher.Compare(user.PasswordHash, password) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user signed in")
	return token, user, nil
}

// Verify resolves a token into a caller. Any problem with the token yields
// domain.ErrUnauthenticated.
func (s *AuthService) Verify(ctx context.Context, token string) (domain.Caller, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.Anonymous(), err
	}

	if s.revocations != nil && claims.tokenID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.tokenID)
		if err != nil {
			return domain.Anonymous(), fmt.Errorf("revocation check: %w", err)
		}
		if revoked {
			return domain.Anonymous(), domain.ErrUnauthenticated
		}
	}

	return claims.caller, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		// An invalid token is already unusable.
		return nil
	}
	if s.revocations == nil || claims.tokenID == "" {
		return nil
	}

	ttl := time.Until(claims.expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.tokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	s.logger.Info().Str("user_id", claims.caller.UserID).Msg("user signed out")
	return nil
}

type tokenClaims struct {
	caller    domain.Caller
	tokenID   string
	expiresAt time.Time
}

func (s *AuthService) parse(token string) (*tokenClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthenticated
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrUnauthenticated
	}
	email, _ := claims["email"].(string)
	jti, _ := claims["jti"].(string)

	var roles []string
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if role, ok := r.(string); ok {
				roles = append(roles, role)
			}
		}
	}

	out := &tokenClaims{
		caller:  domain.Caller{UserID: sub, Email: email, Roles: roles},
		tokenID: jti,
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.expiresAt = exp.Time
	}
	return out, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"roles": user.Roles,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
