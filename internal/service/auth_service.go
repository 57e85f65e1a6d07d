package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/sandeepkv93/shortlink-backend/internal/domain"
	"github.com/sandeepkv93/shortlink-backend/internal/mail"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"
	"github.com/sandeepkv93/shortlink-backend/internal/repository"
	"github.com/sandeepkv93/shortlink-backend/internal/security"
)

type AuthOptions struct {
	ResetLocation      *time.Location
	PersistenceTimeout time.Duration
	MailTimeout        time.Duration
}

type LoginResult struct {
	SessionKey string       `json:"sessionKey"`
	User       *domain.User `json:"user"`
}

type AuthService struct {
	users    repository.UserRepository
	vault    *security.Vault
	sessions SessionStore
	mailer   mail.Sender
	composer *mail.Composer
	opts     AuthOptions
	now      func() time.Time
	logger   *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	vault *security.Vault,
	sessions SessionStore,
	mailer mail.Sender,
	composer *mail.Composer,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthService {
	if opts.ResetLocation == nil {
		opts.ResetLocation = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    users,
		vault:    vault,
		sessions: sessions,
		mailer:   mailer,
		composer: composer,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *AuthService) observe(ctx context.Context, op string, err error) {
	observability.RecordAuthOperation(ctx, op, outcomeOf(err))
	if err != nil && ErrorCode(err) == CodeInternal {
		s.logger.ErrorContext(ctx, "auth operation failed", "operation", op, "error", err)
	}
}

func (s *AuthService) persistCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.opts.PersistenceTimeout)
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	if isTimeout(err) {
		observability.RecordPersistenceTimeout(ctx, op)
	}
	return oops.Code(CodeInternal).With("operation", op).Wrap(err)
}

// Signup creates an unverified user and mails a verification link. When the
// mail cannot be sent (including timeouts) the user row is deleted again.
func (s *AuthService) Signup(ctx context.Context, email, password string) (user *domain.User, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.signup")
	defer span.End()
	defer func() { s.observe(ctx, "signup", err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, oops.Code(CodeValidation).Errorf("email and password are required")
	}

	pctx, cancel := s.persistCtx(ctx)
	defer cancel()
	if _, err := s.users.FindByEmail(pctx, email); err == nil {
		return nil, oops.Code(CodeConflict).Errorf("user already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, s.internal(ctx, "signup", err)
	}

	blob, err := s.vault.Encrypt(password)
	if err != nil {
		return nil, s.internal(ctx, "signup", err)
	}
	token, err := security.NewVerificationToken()
	if err != nil {
		return nil, s.internal(ctx, "signup", err)
	}
	expiry := security.VerificationExpiry(s.now())
	user = &domain.User{
		Email:             email,
		Password:          blob,
		VerificationToken: &token,
		TokenExpiry:       &expiry,
	}
	if err := s.users.Create(pctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, oops.Code(CodeConflict).Errorf("user already exists")
		}
		return nil, s.internal(ctx, "signup", err)
	}

	if err := s.dispatch(ctx, s.composer.Verification(email, token)); err != nil {
		s.rollbackSignup(ctx, user.ID)
		return nil, oops.Code(CodeDispatchFailed).With("kind", mail.KindVerification).Wrap(err)
	}
	return user, nil
}

func (s *AuthService) rollbackSignup(ctx context.Context, userID uint) {
	// The request context may already be done; the compensating delete must still run.
	dctx, cancel := withTimeout(context.WithoutCancel(ctx), s.opts.PersistenceTimeout)
	defer cancel()
	if err := s.users.Delete(dctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "signup rollback failed", "user_id", userID, "error", err)
	}
}

func (s *AuthService) dispatch(ctx context.Context, msg mail.Message) error {
	mctx, cancel := withTimeout(ctx, s.opts.MailTimeout)
	defer cancel()
	err := s.mailer.Send(mctx, msg)
	if err == nil {
		err = mctx.Err()
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		s.logger.WarnContext(ctx, "mail dispatch failed", "kind", msg.Kind, "error", err)
	}
	observability.RecordMailDispatch(ctx, msg.Kind, outcome)
	return err
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (err error) {
	ctx, span := observability.StartSpan(ctx, "auth.verify_email")
	defer span.End()
	defer func() { s.observe(ctx, "verify_email", err) }()

	if token == "" {
		return oops.Code(CodeValidation).Errorf("token is required")
	}
	pctx, cancel := s.persistCtx(ctx)
	defer cancel()
	user, err := s.users.FindByVerificationToken(pctx, token)
	if errors.Is(err, repository.ErrUserNotFound) {
		return oops.Code(CodeNotFound).Errorf("invalid verification token")
	}
	if err != nil {
		return s.internal(ctx, "verify_email", err)
	}
	if user.TokenExpiry == nil || security.IsExpired(*user.TokenExpiry, s.now()) {
		return oops.Code(CodeExpired).Errorf("verification token has expired")
	}
	if err := s.users.MarkVerified(pctx, user.ID, token); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return oops.Code(CodeNotFound).Errorf("invalid verification token")
		}
		return s.internal(ctx, "verify_email", err)
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.login")
	defer span.End()
	defer func() { s.observe(ctx, "login", err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, oops.Code(CodeValidation).Errorf("email and password are required")
	}
	pctx, cancel := s.persistCtx(ctx)
	defer cancel()
	user, err := s.users.FindByEmail(pctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, oops.Code(CodeUnauthorized).Errorf("invalid credentials")
	}
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}
	ok, err := s.vault.Matches(user.Password, password)
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}
	if !ok {
		return nil, oops.Code(CodeUnauthorized).Errorf("invalid credentials")
	}
	if !user.IsVerified {
		return nil, oops.Code(CodeForbidden).Errorf("please verify your email before logging in")
	}
	token, err := s.sessions.Create(pctx, user.ID)
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}
	return &LoginResult{SessionKey: token, User: user}, nil
}

// ForgotPassword never reveals whether email belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	ctx, span := observability.StartSpan(ctx, "auth.forgot_password")
	defer span.End()
	defer func() { s.observe(ctx, "forgot_password", err) }()

	email = normalizeEmail(email)
	if email == "" {
		return oops.Code(CodeValidation).Errorf("email is required")
	}
	pctx, cancel := s.persistCtx(ctx)
	defer cancel()
	user, err := s.users.FindByEmail(pctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return s.internal(ctx, "forgot_password", err)
	}
	token, err := security.NewResetToken()
	if err != nil {
		return s.internal(ctx, "forgot_password", err)
	}
	expiry := security.ResetExpiry(s.now(), s.opts.ResetLocation)
	if err := s.users.SetResetToken(pctx, user.ID, token, expiry); err != nil {
		return s.internal(ctx, "forgot_password", err)
	}
	if err := s.dispatch(ctx, s.composer.PasswordReset(email, token)); err != nil {
		return oops.Code(CodeDispatchFailed).With("kind", mail.KindPasswordReset).Wrap(err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	ctx, span := observability.StartSpan(ctx, "auth.reset_password")
	defer span.End()
	defer func() { s.observe(ctx, "reset_password", err) }()

	if token == "" || newPassword == "" {
		return oops.Code(CodeValidation).Errorf("token and new password are required")
	}
	pctx, cancel := s.persistCtx(ctx)
	defer cancel()
	user, err := s.users.FindByResetToken(pctx, token)
	if errors.Is(err, repository.ErrUserNotFound) {
		return oops.Code(CodeNotFound).Errorf("invalid reset token")
	}
	if err != nil {
		return s.internal(ctx, "reset_password", err)
	}
	if user.ResetTokenExpiry == nil || security.IsExpired(*user.ResetTokenExpiry, s.now()) {
		return oops.Code(CodeExpired).Errorf("reset token has expired")
	}
	blob, err := s.vault.Encrypt(newPassword)
	if err != nil {
		return s.internal(ctx, "reset_password", err)
	}
	if err := s.users.ResetPassword(pctx, user.ID, token, blob); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return oops.Code(CodeNotFound).Errorf("invalid reset token")
		}
		return s.internal(ctx, "reset_password", err)
	}
	return nil
}

// Authenticate validates a session token and slides its expiry.
func (s *AuthService) Authenticate(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, oops.Code(CodeUnauthorized).Errorf("session token is required")
	}
	userID, err := s.sessions.Validate(ctx, token)
	if errors.Is(err, ErrInvalidSession) {
		return 0, oops.Code(CodeUnauthorized).Errorf("invalid or expired session")
	}
	if err != nil {
		return 0, s.internal(ctx, "authenticate", err)
	}
	return userID, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) (err error) {
	defer func() { s.observe(ctx, "logout", err) }()
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return s.internal(ctx, "logout", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
