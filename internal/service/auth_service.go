package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymsocial/internal/codec"
	"gymsocial/internal/domain"
	"gymsocial/internal/store"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

const usersCollection = "users"

// password hashes live on the user document but never pass through
// the codec into domain.User.
const fieldPasswordHash = "passwordHash"

// AuthService handles registration, login and token issuance.
type AuthService interface {
	Register(ctx context.Context, displayName, email, password string) (domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user domain.User, err error)
}

type authService struct {
	store         store.Store
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a store-backed auth service.
func NewAuthService(st store.Store, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		store:         st,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register creates the user document with a bcrypt password hash.
func (s *authService) Register(ctx context.Context, displayName, email, password string) (domain.User, error) {
	if displayName == "" || email == "" || password == "" {
		return domain.User{}, errors.New("display name, email and password cannot be empty")
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, ErrHashingFailed
	}

	user := domain.User{DisplayName: displayName, Email: email}
	doc := codec.EncodeUser(user)
	doc[fieldPasswordHash] = string(hashed)

	id, err := s.store.Insert(ctx, usersCollection, doc)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	return user, nil
}

// Login verifies credentials and returns a signed JWT plus the user.
func (s *authService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	if email == "" || password == "" {
		return "", domain.User{}, ErrAuthenticationFailed
	}

	snap, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", domain.User{}, err
	}
	if snap == nil {
		return "", domain.User{}, ErrAuthenticationFailed
	}

	hash, _ := snap.Data[fieldPasswordHash].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", domain.User{}, ErrAuthenticationFailed
	}

	user := codec.DecodeUser(*snap)
	token, err := s.generateJWT(user.ID)
	if err != nil {
		return "", domain.User{}, ErrTokenGeneration
	}
	return token, user, nil
}

func (s *authService) findByEmail(ctx context.Context, email string) (*store.Snapshot, error) {
	snapshots, err := s.store.Query(ctx, store.Query{
		Collection: usersCollection,
		Eq:         map[string]any{"email": email},
		Limit:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	snap := snapshots[0]
	return &snap, nil
}

// Claims carried in the session token.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
