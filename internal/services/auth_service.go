package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/config"
	"github.com/anishLS3/Placify-sub001/internal/logger"
	"github.com/anishLS3/Placify-sub001/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutWindow   = 15 * time.Minute
	tokenIssuer     = "placify"
)

// Claims are carried by admin access tokens.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService authenticates administrators and issues HS256 tokens.
type AuthService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	audit  *AuditService
	log    *logrus.Entry
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewAuthService(db *gorm.DB, cfg config.Config, audit *AuditService) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		db:      db,
		secret:  []byte(cfg.JWTSecret),
		ttl:     ttl,
		audit:   audit,
		log:     logger.Component("auth"),
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// EnsureAdmin creates the administrator account if no user with email exists.
// It reports whether a user was created.
func (s *AuthService) EnsureAdmin(email, password, name string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, false, &ValidationError{Field: "password", Message: "admin email and a password of at least 8 characters are required"}
	}

	var existing models.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, storeErr("load user", err)
	}

	user := &models.User{
		UUID:    uuid.New().String(),
		Email:   email,
		Name:    name,
		Role:    models.RoleAdmin,
		Enabled: true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, false, storeErr("create user", err)
	}
	return user, true, nil
}

// Login verifies credentials and returns a signed token. Five consecutive
// failures lock the account for fifteen minutes.
func (s *AuthService) Login(ctx context.Context, email, password string, meta Actor) (token string, user *models.User, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	actor := meta
	actor.ID = "anonymous"
	defer func() {
		action := models.ActionLogin
		details := map[string]interface{}{"email": email}
		if err != nil {
			action = action.Failed()
			details["error"] = err.Error()
		}
		if s.audit != nil {
			s.audit.Record(ctx, actor, action, models.ResourceUser, actor.ID, details)
		}
	}()

	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, storeErr("load user", err)
	}
	actor.ID = u.UUID

	now := s.now()
	if u.IsLocked(now) {
		return "", nil, ErrAccountLocked
	}
	if u.LockedUntil != nil {
		// lockout expired, start counting again
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
	}
	if !u.Enabled {
		return "", nil, ErrAccountDisabled
	}
	if !u.CheckPassword(password) {
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= maxFailedLogins {
			until := now.Add(lockoutWindow)
			u.LockedUntil = &until
		}
		if err := s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
			"failed_login_attempts": u.FailedLoginAttempts,
			"locked_until":          u.LockedUntil,
		}).Error; err != nil {
			s.log.WithError(err).Warn("failed to record login failure")
		}
		return "", nil, ErrInvalidCredentials
	}

	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login":            now,
	}).Error; err != nil {
		return "", nil, storeErr("update user", err)
	}

	token, err = s.GenerateToken(&u)
	if err != nil {
		return "", nil, err
	}
	return token, &u, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *Claims, actor Actor) {
	if claims != nil && claims.ID != "" {
		expires := s.now().Add(s.ttl)
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		s.mu.Lock()
		s.revoked[claims.ID] = expires
		s.pruneLocked()
		s.mu.Unlock()
	}
	if s.audit != nil {
		s.audit.Record(ctx, actor, models.ActionLogout, models.ResourceUser, actor.ID, nil)
	}
}

func (s *AuthService) GenerateToken(u *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.UUID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   u.UUID,
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) pruneLocked() {
	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
}
