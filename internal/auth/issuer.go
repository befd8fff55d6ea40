// Package auth issues and validates stateless session tokens.
//
// Sign-out is a client-side operation: a token stays valid until it expires,
// and role or office changes take effect on the next sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/config"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

// Session is the result of a successful sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

// SignupRequest describes a new technician account.
type SignupRequest struct {
	Username string
	Name     string
	Password string
	Office   string
}

// Issuer authenticates users and issues HS256 session tokens.
type Issuer struct {
	users  store.UserStore
	hasher PasswordHasher
	log    *slog.Logger

	secret []byte
	ttl    time.Duration
	issuer string

	// dummyHash is compared against for unknown users so that both failure
	// paths cost one hash comparison.
	dummyHash string

	now func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the wall clock used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an Issuer from the auth configuration.
func NewIssuer(users store.UserStore, hasher PasswordHasher, cfg config.AuthConfig, log *slog.Logger, opts ...Option) (*Issuer, error) {
	const op = "auth.NewIssuer"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: jwt secret is empty", op)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("%s: token ttl must be positive", op)
	}

	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	i := &Issuer{
		users:     users,
		hasher:    hasher,
		log:       log,
		secret:    []byte(cfg.JWTSecret),
		ttl:       cfg.TokenTTL,
		issuer:    cfg.Issuer,
		dummyHash: dummy,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Authenticate verifies the credentials and issues a session token.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (i *Issuer) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	const op = "auth.Authenticate"

	user, err := i.users.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		_ = i.hasher.Compare(i.dummyHash, password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := i.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	identity := IdentityOf(user)
	token, expiresAt, err := i.issue(identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := i.users.TouchLastLogin(ctx, user.ID, i.now()); err != nil {
		i.log.Warn("failed to record last login", slog.String("op", op), slog.Int64("user_id", user.ID), slog.Any("error", err))
	}

	return &Session{Token: token, ExpiresAt: expiresAt, Identity: identity}, nil
}

// Validate checks the token's signature, issuer and expiry and returns the
// identity it carries. No store lookup is made.
func (i *Issuer) Validate(token string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Identity{}, ErrTokenInvalid
	}
	return claims.identity(), nil
}

// Signup creates a technician account assigned to the requested office.
func (i *Issuer) Signup(ctx context.Context, req SignupRequest) (*model.User, error) {
	const op = "auth.Signup"

	exists, err := i.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := i.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &model.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         model.RoleTechnician,
		Office:       req.Office,
	}
	if err := i.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (i *Issuer) issue(identity Identity) (string, time.Time, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, err
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		UserID: identity.UserID,
		Name:   identity.Name,
		Role:   identity.Role,
		Office: identity.Office,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   identity.Username,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
