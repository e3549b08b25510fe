package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"animevault/internal/config"
	"animevault/internal/http-api/models"
	"animevault/internal/http-api/repository"
	"animevault/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNameInUse          = errors.New("username already in use")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInactiveUser       = errors.New("user account is inactive")
)

// Claims is the identity a validated token grants.
type Claims struct {
	UserID      string
	IsSuperuser bool
}

type AuthService interface {
	Register(ctx context.Context, email string, username *string, password string) (*models.User, string, error)
	Login(ctx context.Context, identifier, password string) (string, *models.User, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo  repository.UserRepository
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: cfg.JWTSecret,
		jwtExpiry: cfg.JWTExpiry,
	}
}

// Register creates a new user and returns it with a signed token.
func (s *authService) Register(ctx context.Context, email string, username *string, password string) (*models.User, string, error) {
	// Check if email exists
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailInUse
	}

	// Check if username exists
	if username != nil {
		if _, err := s.userRepo.FindByUsername(ctx, *username); err == nil {
			return nil, "", ErrNameInUse
		}
	}

	// Hash password
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:    email,
		Username: username,
		Password: hashedPassword,
		IsActive: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// the unique indexes backstop the lookups above
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailInUse
		}
		return nil, "", err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates by email or username and returns a signed token.
// Unknown identifier and wrong password are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, identifier, password string) (string, *models.User, error) {
	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		// dummy compare to mitigate timing attacks (always take same time)
		auth.VerifyPassword("$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e", password)
		return "", nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", nil, ErrInactiveUser
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		return s.userRepo.FindByEmail(ctx, identifier)
	}
	if user, err := s.userRepo.FindByUsername(ctx, identifier); err == nil {
		return user, nil
	}
	// some users register without a username and log in with their email
	return s.userRepo.FindByEmail(ctx, identifier)
}

func (s *authService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":      user.ID,
		"is_superuser": user.IsSuperuser,
		"exp":          time.Now().Add(s.jwtExpiry).Unix(),
		"iat":          time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken checks signature and expiry on every call; there is no
// revocation list, logout is client-side only.
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, ok := mapClaims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}
	isSuperuser, _ := mapClaims["is_superuser"].(bool)

	return &Claims{UserID: userID, IsSuperuser: isSuperuser}, nil
}
