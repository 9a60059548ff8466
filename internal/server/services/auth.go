package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/server/auth"
	"github.com/dmitrijs2005/chatvault/internal/server/config"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/repomanager"
)

// AuthService registers local accounts and exchanges credentials for a
// session token. The key cookie is handled by the HTTP layer, which needs
// the plain password and the email returned here.
type AuthService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	jwtSecret        []byte
	validityDuration time.Duration
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AuthService {
	return &AuthService{
		db:               db,
		repomanager:      m,
		jwtSecret:        []byte(cfg.SecretKey),
		validityDuration: cfg.SessionValidityDuration,
	}
}

// Register creates the user and an empty public profile in one transaction.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || username == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, Username: username, PasswordHash: hash})
		if err != nil {
			return err
		}
		user = u
		return s.repomanager.Profiles(tx).Upsert(ctx, &models.Profile{UserID: u.ID, Username: username})
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Login checks the password and returns a signed session token. Unknown
// emails and wrong passwords both yield common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, auth.Identity, error) {
	email = normalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", auth.Identity{}, common.ErrorUnauthorized
		}
		return "", auth.Identity{}, common.ErrorInternal
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return "", auth.Identity{}, common.ErrorInternal
	}
	if !ok {
		return "", auth.Identity{}, common.ErrorUnauthorized
	}

	id := auth.Identity{UserID: user.ID, Email: user.Email}
	token, err := auth.GenerateToken(id, s.jwtSecret, s.validityDuration)
	if err != nil {
		return "", auth.Identity{}, common.ErrorInternal
	}
	return token, id, nil
}

// Authenticate resolves a session token.
func (s *AuthService) Authenticate(token string) (auth.Identity, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

// The email salts the encryption key, so it must be stable across logins.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
