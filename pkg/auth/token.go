package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// DefaultTokenTTL is the lifetime of an access token when none is configured.
const DefaultTokenTTL = 12 * time.Hour

// TokenConfig holds token signing configuration.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Claims are the claims carried by an access token. The subject is the
// principal's email. Roles are informational; authorization always reads
// memberships from the store.
type Claims struct {
	jwt.RegisteredClaims
	SuperAdmin bool     `json:"super_admin"`
	Roles      []string `json:"roles,omitempty"`
}

// TokenService issues and validates HS256 access tokens.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(config TokenConfig) *TokenService {
	if config.TTL == 0 {
		config.TTL = DefaultTokenTTL
	}
	return &TokenService{config: config, now: time.Now}
}

// TTL returns the access token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs a token for principal carrying roles.
func (s *TokenService) Issue(principal *domain.Principal, roles domain.RoleSet) (*domain.Token, error) {
	now := s.now()
	expiresAt := now.Add(s.config.TTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Email,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
		SuperAdmin: principal.SuperAdmin,
		Roles:      roles.Labels(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return nil, domain.WrapError(err, domain.KindInternal, "could not sign token")
	}

	return &domain.Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.config.TTL.Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

// Validate checks signature, expiry and issuer and returns the claims.
// Every failure yields domain.ErrUnauthenticated.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, domain.ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}

	return claims, nil
}
