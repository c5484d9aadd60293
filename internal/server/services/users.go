// Package services contains the server's business logic: issuing and
// checking SMS verification codes, login with find-or-create user accounts,
// token revocation, and the text-to-animation work lifecycle.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/dbx"
	"github.com/aidolab/mgstudio/internal/logging"
	"github.com/aidolab/mgstudio/internal/server/auth"
	"github.com/aidolab/mgstudio/internal/server/config"
	"github.com/aidolab/mgstudio/internal/server/models"
	"github.com/aidolab/mgstudio/internal/server/repositories/repomanager"
	"github.com/aidolab/mgstudio/internal/server/sms"
	"golang.org/x/crypto/sha3"
)

// codeLength is the number of digits in an SMS verification code.
const codeLength = 6

// LoginResult is the payload of a successful login.
type LoginResult struct {
	User  *models.User
	Token string
}

type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	sender                sms.Sender
	logger                logging.Logger
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	codeValidityDuration  time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sender sms.Sender, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		sender:                sender,
		logger:                logger,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		codeValidityDuration:  cfg.CodeValidityDuration,
	}
}

// codeDigest binds the code to the phone it was issued for, so a code
// intercepted for one number cannot be replayed against another.
func codeDigest(phone, code string) []byte {
	sum := sha3.Sum256([]byte(phone + ":" + code))
	return sum[:]
}

// SendCode issues a fresh verification code for phone, invalidating any
// previous codes, and hands it to the SMS sender. Only a digest of the code
// is stored.
func (s *UserService) SendCode(ctx context.Context, phone string) error {
	if phone == "" {
		return common.ErrorCodeInvalid
	}

	code, err := common.RandomDigits(codeLength)
	if err != nil {
		return common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Codes(tx)
		if err := repo.DeleteForPhone(ctx, phone); err != nil {
			return err
		}
		return repo.Create(ctx, phone, codeDigest(phone, code), s.codeValidityDuration)
	})
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return fmt.Errorf("error sending sms: %w", err)
	}

	return nil
}

func (s *UserService) checkCode(stored *models.VerificationCode, phone, candidate string) bool {
	if stored.Expires.Before(time.Now()) {
		return false
	}
	return subtle.ConstantTimeCompare(stored.CodeDigest, codeDigest(phone, candidate)) == 1
}

// Login verifies phone+code and returns the account with a fresh access
// token. Unknown phone numbers get an account created on the fly. The code
// is single use: a successful login consumes it.
func (s *UserService) Login(ctx context.Context, phone, code string) (*LoginResult, error) {
	codeRepo := s.repomanager.Codes(s.db)

	stored, err := codeRepo.FindLatest(ctx, phone)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorCodeInvalid
		}
		return nil, common.ErrorInternal
	}

	if !s.checkCode(stored, phone, code) {
		return nil, common.ErrorCodeInvalid
	}

	var result *LoginResult

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Codes(tx).DeleteForPhone(ctx, phone); err != nil {
			return err
		}

		user, err := s.findOrCreateUser(ctx, tx, phone)
		if err != nil {
			return err
		}

		token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
		if err != nil {
			return err
		}

		if err := s.repomanager.Tokens(tx).Create(ctx, user.ID, token, s.tokenValidityDuration); err != nil {
			return err
		}

		result = &LoginResult{User: user, Token: token}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "login failed", "error", err)
		return nil, common.ErrorInternal
	}

	return result, nil
}

func (s *UserService) findOrCreateUser(ctx context.Context, tx dbx.DBTX, phone string) (*models.User, error) {
	repo := s.repomanager.Users(tx)

	user, err := repo.GetByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	return repo.Create(ctx, &models.User{Phone: phone})
}

// Authenticate validates an access token and returns the user ID it belongs
// to. A token that parses but has no issued-token row was revoked by logout
// and is rejected.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", err
	}

	issued, err := s.repomanager.Tokens(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrTokenRevoked
		}
		return "", common.ErrorInternal
	}
	if issued.UserID != userID {
		return "", common.ErrInvalidToken
	}

	return userID, nil
}

// Logout revokes every token issued to userID. Logging out an already
// logged-out user is not an error.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repomanager.Tokens(s.db).DeleteForUser(ctx, userID); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// PurgeExpired removes verification codes and issued tokens whose expiry has
// passed. Reads already reject expired rows; this keeps the tables from
// growing without bound.
func (s *UserService) PurgeExpired(ctx context.Context) error {
	if err := s.repomanager.Codes(s.db).DeleteExpired(ctx); err != nil {
		return err
	}
	return s.repomanager.Tokens(s.db).DeleteExpired(ctx)
}
