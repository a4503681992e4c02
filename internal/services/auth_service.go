package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/secure"
)

const (
	sessionTTL = 24 * time.Hour
	stampTTL   = 15 * time.Minute
)

// AuthService handles registration, activation and the session lifecycle.
// Login failures are rate limited per IP; repeated abuse escalates to an IP
// block row.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	Activate(ctx context.Context, token string) error
	Login(ctx context.Context, login, password, ip string) (*LoginResult, error)
	Logout(ctx context.Context, sessionToken string) error
	Verify(ctx context.Context, sessionToken, stamp string) (string, error)
}

// LoginResult carries the session token and its HMAC stamp.
type LoginResult struct {
	UserID       string    `json:"user_id"`
	SessionToken string    `json:"session_token"`
	Stamp        string    `json:"stamp"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type authService struct {
	db      *db.DB
	stamper *secure.Stamper
	limiter *RateLimiter
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(database *db.DB, stamper *secure.Stamper, limiter *RateLimiter, logger *zap.Logger) AuthService {
	return &authService{
		db:      database,
		stamper: stamper,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates an inactive user with a hashed password and an activation
// token. Email and username are unique.
func (s *authService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	if len(password) < 8 {
		return nil, apperrors.Validationf("auth.register", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("auth.register", err)
	}
	token := randomToken()
	user := &models.User{
		Email:           email,
		Username:        username,
		PasswordHash:    string(hash),
		Active:          false,
		ActivationToken: &token,
	}
	if err := user.Validate(); err != nil {
		return nil, apperrors.Validationf("auth.register", "%s", err.Error())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("email = ? OR username = ?", email, username).
			Count(&count).Error; err != nil {
			return apperrors.Internal("auth.register", err)
		}
		if count > 0 {
			return apperrors.Conflictf("auth.register", "email or username already taken")
		}
		if err := tx.Create(user).Error; err != nil {
			return apperrors.Internal("auth.register", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Activate flips the user active by activation token. Tokens are single use.
func (s *authService) Activate(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Validationf("auth.activate", "token is required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.First(&user, "activation_token = ?", token).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("auth.activate", "activation token not found")
		}
		if err != nil {
			return apperrors.Internal("auth.activate", err)
		}
		return tx.Model(&user).Updates(map[string]interface{}{
			"active":           true,
			"activation_token": nil,
		}).Error
	})
}

// Login checks the rate limit and IP block list, verifies credentials and
// opens a session. The same generic auth error covers unknown user, wrong
// password and inactive account.
func (s *authService) Login(ctx context.Context, login, password, ip string) (*LoginResult, error) {
	blocked, err := s.ipBlocked(ctx, ip)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperrors.Forbiddenf("auth.login", "access denied")
	}
	if !s.limiter.Allow(ip) {
		s.escalate(ctx, ip)
		return nil, apperrors.Transientf("auth.login", "too many attempts, try again later")
	}

	var user models.User
	err = s.db.WithContext(ctx).
		Where("email = ? OR username = ?", login, login).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Authf("auth.login", "invalid credentials")
	}
	if err != nil {
		return nil, apperrors.Internal("auth.login", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Authf("auth.login", "invalid credentials")
	}
	if !user.Active {
		return nil, apperrors.Authf("auth.login", "invalid credentials")
	}

	now := s.now()
	session := models.Session{
		Token:     randomToken(),
		UserID:    user.ID,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, apperrors.Internal("auth.login", err)
	}
	s.limiter.Reset(ip)

	return &LoginResult{
		UserID:       user.ID,
		SessionToken: session.Token,
		Stamp:        s.stamper.Sign(session.Token, now),
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Logout drops the session. Unknown tokens are a no-op.
func (s *authService) Logout(ctx context.Context, sessionToken string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Session{}, "token = ?", sessionToken).Error; err != nil {
		return apperrors.Internal("auth.logout", err)
	}
	return nil
}

// Verify resolves a session token plus stamp to a user id. Both the session
// expiry and the stamp signature must hold.
func (s *authService) Verify(ctx context.Context, sessionToken, stamp string) (string, error) {
	if sessionToken == "" || stamp == "" {
		return "", apperrors.Authf("auth.verify", "missing session")
	}
	if err := s.stamper.Verify(sessionToken, stamp, s.now()); err != nil {
		return "", apperrors.Authf("auth.verify", "invalid session stamp")
	}
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "token = ?", sessionToken).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.Authf("auth.verify", "session not found")
	}
	if err != nil {
		return "", apperrors.Internal("auth.verify", err)
	}
	if s.now().After(session.ExpiresAt) {
		return "", apperrors.Authf("auth.verify", "session expired")
	}
	return session.UserID, nil
}

func (s *authService) ipBlocked(ctx context.Context, ip string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.IPBlock{}).
		Where("ip = ? AND (expires_at IS NULL OR expires_at > ?)", ip, s.now()).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Internal("auth.login", err)
	}
	return count > 0, nil
}

// escalate records a temporary block when the limiter keeps tripping.
func (s *authService) escalate(ctx context.Context, ip string) {
	expires := s.now().Add(1 * time.Hour)
	block := models.IPBlock{
		IP:        ip,
		Reason:    "login rate limit exceeded",
		ExpiresAt: &expires,
	}
	if err := s.db.WithContext(ctx).Create(&block).Error; err != nil {
		s.logger.Error("failed to record ip block", zap.String("ip", ip), zap.Error(err))
	}
}

func randomToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
