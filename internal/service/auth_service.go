package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	AdminID int `json:"admin_id"`
}

// AuthService handles admin authentication, JWT, and session management.
type AuthService struct {
	cfg       *config.Config
	adminRepo *repository.AdminRepository
	rdb       *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, adminRepo *repository.AdminRepository, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, adminRepo: adminRepo, rdb: rdb}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies credentials and issues a token. A successful login
// replaces any previous session for the admin, cutting older tokens off.
func (s *AuthService) Login(ctx context.Context, req model.AdminLoginRequest) (*model.AdminLoginResponse, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up admin: %w", err)
	}
	if err := s.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.generateToken(ctx, admin.ID)
	if err != nil {
		return nil, err
	}
	return &model.AdminLoginResponse{Token: token, Admin: *admin}, nil
}

func (s *AuthService) generateToken(ctx context.Context, adminID int) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(adminID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		AdminID: adminID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	// Session lives exactly as long as the JWT.
	sessionKey := config.CacheKey.AdminSessionKey(adminID)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's JTI matches the active session in
// Redis; logout or a newer login invalidates older tokens.
func (s *AuthService) ValidateSession(ctx context.Context, adminID int, jti string) error {
	sessionKey := config.CacheKey.AdminSessionKey(adminID)
	stored, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout removes an admin's session, invalidating their current token.
func (s *AuthService) Logout(ctx context.Context, adminID int) error {
	return s.rdb.Del(ctx, config.CacheKey.AdminSessionKey(adminID)).Err()
}

// Admin returns an admin's profile by ID.
func (s *AuthService) Admin(ctx context.Context, adminID int) (*model.Admin, error) {
	return s.adminRepo.GetByID(ctx, adminID)
}
