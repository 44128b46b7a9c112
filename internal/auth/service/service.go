package service

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/auth/token"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/identity/directory"
	"leadflow_backend/platform/cache"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserInactive = errors.New("user is inactive")
var ErrTokenExpired = errors.New("token expired")
var ErrTokenInvalid = errors.New("token invalid")

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"

	refreshTokenBytes = 48
	userCacheKey      = "user:"
)

// RefreshTokenStore persists refresh token rotation state.
type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	tokens    RefreshTokenStore
	directory directory.Directory
	userCache cache.Cache
	cfg       config.AuthServiceConfig
	log       *logger.Logger
}

func New(tokens RefreshTokenStore, dir directory.Directory, userCache cache.Cache, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{tokens: tokens, directory: dir, userCache: userCache, cfg: cfg, log: log}
}

// Login verifies credentials and issues an access/refresh token pair.
// Inactive users are rejected even with valid credentials.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (string, string, error) {
	account, err := s.directory.GetAccountByEmail(ctx, email)
	if err != nil {
		if s.log != nil {
			s.log.AuthEvent("login_failed", email, false, "unknown email")
		}
		return "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(plainPassword)); err != nil {
		if s.log != nil {
			s.log.AuthEvent("login_failed", email, false, "password mismatch")
		}
		return "", "", ErrInvalidCredentials
	}

	if account.Status != "active" {
		if s.log != nil {
			s.log.AuthEvent("login_failed", email, false, "user inactive")
		}
		return "", "", ErrUserInactive
	}

	if s.log != nil {
		s.log.AuthEvent("login", email, true, "")
	}
	return s.issueTokens(ctx, account)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued. Expired or unknown tokens yield ErrTokenInvalid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.tokens.GetRefreshToken(ctx, hash)
	if err != nil {
		return "", "", ErrTokenInvalid
	}

	if time.Now().After(expiresAt) {
		_ = s.tokens.RevokeRefreshToken(ctx, hash)
		return "", "", ErrTokenExpired
	}

	account, err := s.GetAccount(ctx, userID)
	if err != nil {
		return "", "", ErrTokenInvalid
	}
	if account.Status != "active" {
		_ = s.tokens.RevokeAllRefreshTokens(ctx, userID)
		return "", "", ErrUserInactive
	}

	_ = s.tokens.RevokeRefreshToken(ctx, hash)
	return s.issueTokens(ctx, account)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	hash := token.HashSHA256(refreshToken)
	return s.tokens.RevokeRefreshToken(ctx, hash)
}

// GetAccount returns the account for a user ID, consulting the user cache
// before the directory. Cache entries expire on their TTL and are deleted
// eagerly when a UserStatusChanged or UserRolesChanged event arrives.
func (s *Service) GetAccount(ctx context.Context, userID uuid.UUID) (directory.Account, error) {
	if s.userCache != nil {
		var cached directory.Account
		if err := s.userCache.Get(ctx, userCacheKey+userID.String(), &cached); err == nil {
			return cached, nil
		}
	}

	account, err := s.directory.GetAccountByID(ctx, userID)
	if err != nil {
		return directory.Account{}, err
	}

	if s.userCache != nil {
		if err := s.userCache.Set(ctx, userCacheKey+userID.String(), account); err != nil && s.log != nil {
			s.log.Warn("user cache set failed", "userId", userID, "error", err)
		}
	}

	return account, nil
}

// RegisterHandlers subscribes cache invalidation to identity events.
func (s *Service) RegisterHandlers(bus events.Bus) {
	invalidate := events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		var userID uuid.UUID
		switch typed := event.(type) {
		case events.UserStatusChanged:
			userID = typed.UserID
		case events.UserRolesChanged:
			userID = typed.UserID
		default:
			return nil
		}
		if s.userCache == nil {
			return nil
		}
		return s.userCache.Delete(ctx, userCacheKey+userID.String())
	})

	bus.Subscribe(events.UserStatusChanged{}.EventName(), invalidate)
	bus.Subscribe(events.UserRolesChanged{}.EventName(), invalidate)
}

func (s *Service) issueTokens(ctx context.Context, account directory.Account) (string, string, error) {
	accessToken, err := s.signJWT(account, s.cfg.GetAccessTokenTTL(), accessTokenType, s.cfg.GetJWTAccessSecret())
	if err != nil {
		return "", "", err
	}

	refreshToken, err := token.GenerateRandomToken(refreshTokenBytes)
	if err != nil {
		return "", "", err
	}

	hash := token.HashSHA256(refreshToken)
	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.tokens.CreateRefreshToken(ctx, account.ID, hash, expiresAt); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *Service) signJWT(account directory.Account, ttl time.Duration, tokenType, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":         account.ID.String(),
		"type":        tokenType,
		"tenant_id":   account.TenantID.String(),
		"roles":       account.Roles,
		"permissions": account.Permissions,
		"exp":         time.Now().Add(ttl).Unix(),
		"iat":         time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}
