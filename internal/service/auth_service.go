package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/repository"
)

// Account messages shown to users.
const (
	MsgFillAllFields   = "Please fill in all fields!"
	MsgFillBothFields  = "Please fill in both fields!"
	MsgEmailRegistered = "Email already registered"
	MsgEmailUnknown    = "Email not registered"
	MsgWrongPassword   = "Wrong password"
	MsgLoginRequired   = "Please log in"
)

const defaultSessionTTL = 72 * time.Hour

// AuthService handles accounts and session tokens.
type AuthService struct {
	userRepo   repository.UserRepository
	jwtSecret  []byte
	sessionTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
	}
}

// RegisterReq represents a registration request.
type RegisterReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginReq represents a login request.
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned on successful register/login.
type AuthResponse struct {
	User  *repository.User `json:"user"`
	Token string           `json:"token"`
}

// SessionTTL returns the lifetime of issued tokens.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates a new user account and returns a session token.
func (s *AuthService) Register(ctx context.Context, req RegisterReq) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, errors.Validation(MsgFillAllFields)
	}

	// Check if user already exists
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.InternalWrap("failed to check existing user", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrConflict, MsgEmailRegistered)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, errors.InternalWrap("failed to hash password", err)
	}

	user := &repository.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrAlreadyExists) {
			return nil, errors.New(errors.ErrConflict, MsgEmailRegistered)
		}
		return nil, errors.InternalWrap("failed to create user", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, errors.InternalWrap("failed to generate token", err)
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, req LoginReq) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, errors.Validation(MsgFillBothFields)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.InternalWrap("failed to find user", err)
	}
	if user == nil {
		return nil, errors.Unauthorized(MsgEmailUnknown)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.Unauthorized(MsgWrongPassword)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, errors.InternalWrap("failed to generate token", err)
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// ValidateToken parses and validates a session token, returning the user ID.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("invalid subject claim")
	}

	return userID, nil
}

// CurrentUser resolves a session token to its user.
func (s *AuthService) CurrentUser(ctx context.Context, tokenString string) (*repository.User, error) {
	sub, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, errors.Unauthorized(MsgLoginRequired)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.Unauthorized(MsgLoginRequired)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.InternalWrap("failed to find user", err)
	}
	if user == nil {
		return nil, errors.Unauthorized(MsgLoginRequired)
	}
	return user, nil
}

func (s *AuthService) generateToken(user *repository.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"name": user.Username,
		"iat":  now.Unix(),
		"exp":  now.Add(s.sessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
