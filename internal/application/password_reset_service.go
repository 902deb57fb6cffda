package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nordveldt/userbase/internal/domain/entity"
	repo "github.com/nordveldt/userbase/internal/domain/repository"
	"github.com/nordveldt/userbase/pkg/helpers"
	"github.com/nordveldt/userbase/pkg/mailer"
	mailtpl "github.com/nordveldt/userbase/pkg/mailer/templates"
)

var (
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// DefaultResetTokenTTL bounds token validity when no TTL is configured.
const DefaultResetTokenTTL = 30 * time.Minute

// EmailQueue is the outbound mail transport. The rabbit publisher satisfies
// it; tests use an in-memory recorder.
type EmailQueue interface {
	PublishJSON(ctx context.Context, body any) error
}

// PasswordResetService owns the reset token lifecycle: issued, then valid or
// expired, then consumed or deleted. Expiry is lazy; nothing sweeps tokens
// unless DeleteExpired is invoked.
type PasswordResetService struct {
	Tokens   repo.ResetTokenRepository
	Users    repo.UserRepository
	Hasher   repo.PasswordHasher
	Emails   EmailQueue
	Logger   *logrus.Logger
	TTL      time.Duration
	ResetURL string

	now func() time.Time
}

func NewPasswordResetService(
	tokens repo.ResetTokenRepository,
	users repo.UserRepository,
	hasher repo.PasswordHasher,
	emails EmailQueue,
	logger *logrus.Logger,
	ttl time.Duration,
	resetURL string,
) *PasswordResetService {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &PasswordResetService{
		Tokens:   tokens,
		Users:    users,
		Hasher:   hasher,
		Emails:   emails,
		Logger:   logger,
		TTL:      ttl,
		ResetURL: resetURL,
		now:      time.Now,
	}
}

// Issue creates a reset token bound to the user and returns it. Out-of-band
// delivery is the caller's concern.
func (s *PasswordResetService) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := helpers.NewResetToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	t := &entity.ResetToken{Token: token, UserID: userID, Created: s.now().UTC()}
	if err := s.Tokens.Insert(ctx, t); err != nil {
		return "", err
	}
	return token, nil
}

// IsValid reports whether the token exists and is inside its TTL window.
// Unknown and expired tokens are indistinguishable on this channel.
func (s *PasswordResetService) IsValid(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.Tokens.Exists(ctx, token, s.cutoff())
}

// SetPassword hashes the new password and writes it to the user owning the
// token, resolved in-store. It checks no validity and consumes no token;
// callers sequence IsValid, SetPassword, Delete.
func (s *PasswordResetService) SetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	n, err := s.Tokens.UpdateOwnerPassword(ctx, token, hash)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidResetToken
	}
	return nil
}

// Delete consumes the token. Deleting an unknown token succeeds.
func (s *PasswordResetService) Delete(ctx context.Context, token string) error {
	return s.Tokens.Delete(ctx, token)
}

// DeleteExpired sweeps tokens past their TTL and reports how many went.
// Maintenance path only, never part of validation.
func (s *PasswordResetService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.Tokens.DeleteExpired(ctx, s.cutoff())
}

// RequestReset issues a token for the account behind the email and queues
// the reset mail. Unknown addresses are absorbed, so the endpoint never
// reveals which emails exist.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if s.Logger != nil {
				s.Logger.WithField("email", email).Info("password reset requested for unknown email")
			}
			return nil
		}
		return err
	}

	token, err := s.Issue(ctx, u.ID)
	if err != nil {
		return err
	}
	return s.enqueueResetMail(ctx, u, email, token)
}

// Confirm finishes the recovery flow: validate, set the password, consume
// the token.
func (s *PasswordResetService) Confirm(ctx context.Context, token, newPassword string) error {
	ok, err := s.IsValid(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidResetToken
	}
	if err := s.SetPassword(ctx, token, newPassword); err != nil {
		return err
	}
	return s.Delete(ctx, token)
}

func (s *PasswordResetService) cutoff() time.Time {
	return s.now().UTC().Add(-s.TTL)
}

func (s *PasswordResetService) enqueueResetMail(ctx context.Context, u *entity.User, to, token string) error {
	if s.Emails == nil {
		return nil
	}
	expires := s.now().UTC().Add(s.TTL)
	job := mailer.EmailJob{
		To:       to,
		Template: mailtpl.PasswordReset,
		Data: mailtpl.ToMap(mailtpl.EmailData{
			Name:           u.Realname,
			Email:          to,
			RecipientEmail: to,
			ResetURL:       s.ResetURL + "?token=" + token,
			ExpiresAtText:  expires.Format(time.RFC1123),
		}),
	}
	if err := s.Emails.PublishJSON(ctx, job); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("failed to publish reset email job")
		}
		return err
	}
	return nil
}
