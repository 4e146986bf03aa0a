package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/edu-content/pkg/educontent"
)

const (
	DefaultTokenTTL   = 24 * time.Hour
	MinPasswordLength = 6
	minSecretLength   = 16
	tokenAlgorithm    = "HS256"
	claimSubject      = "sub"
	claimRole         = "role"
	claimEmail        = "email"
)

// dummyHash is compared against when the email is unknown so that login
// takes the same time either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

// RegisterRequest holds the fields of a new account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Service registers users, checks credentials and issues tokens.
type Service struct {
	users       UserStore
	tokenAuth   *jwtauth.JWTAuth
	tokenTTL    time.Duration
	adminEmails map[string]struct{}
	bcryptCost  int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithAdminEmails grants the admin role to accounts registered with one of
// the given emails.
func WithAdminEmails(emails ...string) Option {
	return func(s *Service) {
		for _, e := range emails {
			if e = normalizeEmail(e); e != "" {
				s.adminEmails[e] = struct{}{}
			}
		}
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an identity service signing tokens with secret.
func NewService(users UserStore, secret string, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d characters", minSecretLength)
	}

	s := &Service{
		users:       users,
		tokenAuth:   jwtauth.New(tokenAlgorithm, []byte(secret), nil),
		tokenTTL:    DefaultTokenTTL,
		adminEmails: make(map[string]struct{}),
		bcryptCost:  bcrypt.DefaultCost,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TokenAuth exposes the token verifier for HTTP middleware.
func (s *Service) TokenAuth() *jwtauth.JWTAuth {
	return s.tokenAuth
}

// Register creates an account and returns it with a fresh token. The role is
// never taken from the request.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, string, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if name == "" {
		return nil, "", &educontent.ValidationError{Field: "name", Reason: "is required"}
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, "", &educontent.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if len(req.Password) < MinPasswordLength {
		return nil, "", &educontent.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	role := educontent.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = educontent.RoleAdmin
	}

	user := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Me returns the account of userID.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.users.GetUser(ctx, userID)
}

// IssueToken signs a token for user. The role claim is informational;
// requests are authorized with the role currently stored for the subject.
func (s *Service) IssueToken(user *User) (string, error) {
	now := s.now()
	claims := map[string]interface{}{
		claimSubject: user.ID.String(),
		claimRole:    string(user.Role),
		claimEmail:   user.Email,
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, now.Add(s.tokenTTL))

	_, token, err := s.tokenAuth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Authenticate verifies a raw token and resolves it to an actor.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*educontent.Actor, error) {
	token, err := s.tokenAuth.Decode(tokenString)
	if err != nil || token == nil {
		return nil, ErrInvalidToken
	}
	if exp := token.Expiration(); !exp.IsZero() && !s.now().Before(exp) {
		return nil, ErrInvalidToken
	}
	return s.ActorForSubject(ctx, token.Subject())
}

// ActorForSubject resolves the subject claim of a verified token. The role
// comes from the stored user, so demoted or deleted accounts lose access
// immediately.
func (s *Service) ActorForSubject(ctx context.Context, subject string) (*educontent.Actor, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user.Actor(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
