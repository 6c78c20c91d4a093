package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/equipviz/backend/internal/logger"
	"github.com/equipviz/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

// ErrInvalidCredentials covers unknown users, wrong passwords and bad tokens alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService checks API credentials against the users table and issues tokens.
type AuthService struct {
	db     *gorm.DB
	secret []byte
}

func NewAuthService(db *gorm.DB, secret string) *AuthService {
	return &AuthService{db: db, secret: []byte(secret)}
}

// EnsureUser creates the user, or resets its password if it already exists.
func (as *AuthService) EnsureUser(ctx context.Context, username, password string) (*models.User, bool, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = as.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Username: username, Password: string(hashed)}
		if err := as.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, false, fmt.Errorf("failed to create user %s: %w", username, err)
		}
		return &user, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to look up user %s: %w", username, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil {
		return &user, false, nil
	}
	user.Password = string(hashed)
	if err := as.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update user %s: %w", username, err)
	}
	return &user, false, nil
}

// Authenticate verifies a username/password pair.
func (as *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := as.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// IssueToken signs an HS256 token for the user.
func (as *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tokenTTL)
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "equipviz",
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a token issued by IssueToken.
func (as *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return as.secret, nil
	})
	if err != nil {
		logger.Debug("Token rejected", map[string]interface{}{"error": err.Error()})
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}
