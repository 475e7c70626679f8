package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService authenticates internal reviewer accounts and issues the
// JWTs the admin API consumes.
type AuthService struct {
	db        *gorm.DB
	logger    *zap.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(db *gorm.DB, logger *zap.Logger, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		db:        db,
		logger:    logger.With(zap.String("service", "auth_service")),
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

type AdminClaims struct {
	UserID string          `json:"uid"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Login verifies credentials and returns a signed session token.
func (as *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	if err := as.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, NewError(ErrPermission, "invalid credentials")
		}
		return "", nil, WrapDatabase(err)
	}
	if !user.ActiveStatus {
		return "", nil, NewError(ErrPermission, "account disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, NewError(ErrPermission, "invalid credentials")
	}

	now := time.Now()
	claims := AdminClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.tokenTTL)),
			Subject:   user.ID,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecret)
	if err != nil {
		return "", nil, NewError(ErrInternal, "failed to sign session token")
	}

	if err := as.db.Model(&user).Update("last_login", now).Error; err != nil {
		as.logger.Warn("failed to stamp last login", zap.Error(err))
	}

	as.logger.Info("admin logged in", zap.String("email", email))
	return token, &user, nil
}

// VerifyToken parses and validates an admin session token.
func (as *AuthService) VerifyToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return as.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, NewError(ErrInvalidToken, "invalid session token")
	}
	return claims, nil
}

// HashPassword is used by seeding and account management.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
