package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tienda/config"
	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/domain/entity"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/domain/repository"
	"tienda/internal/domain/service"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	tokens       service.OpaqueTokenIssuer
	mailer       service.Mailer
	admin        *config.AdminConfig
	now          func() time.Time
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Tokens       service.OpaqueTokenIssuer
	Mailer       service.Mailer
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		tokens:       params.Tokens,
		mailer:       params.Mailer,
		admin:        params.Config.Admin,
		now:          time.Now,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates an unverified customer holding a fresh verification token.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" {
		return nil, domainerrors.NewValidationError("nombre y email son obligatorios")
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	var (
		user  *entity.User
		token string
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByEmail(ctx, email)
		if err == nil {
			return domainerrors.ErrUserAlreadyExists
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check email")
		}

		hash, err := srv.hasher.Hash(input.Password)
		if err != nil {
			return err
		}

		var grant *entity.TokenGrant
		token, grant, err = srv.issue(entity.VerificationTokenTTL)
		if err != nil {
			return err
		}

		user = &entity.User{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         entity.RoleCustomer,
			Verification: grant,
		}

		return errors.Wrap(userRepo.Create(ctx, user), "failed to create user")
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User registered", slog.String("user_id", user.ID.String()))
	srv.mail(ctx, "verification", func() error {
		return srv.mailer.SendVerification(ctx, user.Email, user.Name, token)
	})

	return user, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (srv *authService) VerifyEmail(ctx context.Context, token string) (*entity.User, error) {
	user, err := srv.consume(ctx, repository.TokenPurposeVerification, token, func(user *entity.User) error {
		user.Verified = true
		user.Verification = nil

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Email verified", slog.String("user_id", user.ID.String()))
	srv.mail(ctx, "welcome", func() error {
		return srv.mailer.SendWelcome(ctx, user.Email, user.Name)
	})

	return user, nil
}

// ResendVerification replaces any pending verification token with a new one.
func (srv *authService) ResendVerification(ctx context.Context, email string) error {
	var (
		user  *entity.User
		token string
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		var err error
		user, err = findUserByEmail(ctx, userRepo, normalizeEmail(email))
		if err != nil {
			return err
		}
		if user.Verified {
			return domainerrors.ErrAlreadyVerified
		}

		token, user.Verification, err = srv.issue(entity.VerificationTokenTTL)
		if err != nil {
			return err
		}

		return errors.Wrap(userRepo.Update(ctx, user), "failed to store verification token")
	})
	if err != nil {
		return err
	}

	srv.mail(ctx, "verification", func() error {
		return srv.mailer.SendVerification(ctx, user.Email, user.Name, token)
	})

	return nil
}

// Login checks the password first and only then the verified flag, so the
// requiresVerification answer is never given for a wrong password.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Info("Login rejected", slog.String("user_id", user.ID.String()), slog.String("reason", "password"))

		return nil, domainerrors.ErrInvalidCredentials
	}
	if !user.Verified {
		srv.log(ctx).Info("Login rejected", slog.String("user_id", user.ID.String()), slog.String("reason", "unverified"))

		return nil, domainerrors.ErrUnverified
	}

	accessToken, expiresAt, err := srv.tokenService.GenerateAccessToken(user.ID, user.Roles().ToStrings())
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}

	srv.log(ctx).Info("User logged in", slog.String("user_id", user.ID.String()))

	return &usecase.LoginOutput{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// ForgotPassword gives the same answer whether or not the email is known.
func (srv *authService) ForgotPassword(ctx context.Context, email string) error {
	var (
		user  *entity.User
		token string
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		var err error
		user, err = userRepo.FindByEmail(ctx, normalizeEmail(email))
		if errors.Is(err, repository.ErrUserNotFound) {
			user = nil

			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to find user")
		}

		token, user.Reset, err = srv.issue(entity.ResetTokenTTL)
		if err != nil {
			return err
		}

		return errors.Wrap(userRepo.Update(ctx, user), "failed to store reset token")
	})
	if err != nil {
		return err
	}
	if user == nil {
		srv.log(ctx).Debug("Password reset requested for unknown email")

		return nil
	}

	srv.mail(ctx, "password reset", func() error {
		return srv.mailer.SendPasswordReset(ctx, user.Email, user.Name, token)
	})

	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (srv *authService) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error {
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return err
	}

	user, err := srv.consume(ctx, repository.TokenPurposeReset, input.Token, func(user *entity.User) error {
		hash, err := srv.hasher.Hash(input.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.Reset = nil

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Password reset", slog.String("user_id", user.ID.String()))

	return nil
}

// Profile returns the authenticated user.
func (srv *authService) Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// EnsureAdmin creates the configured administrator if the email is free.
// An existing account with that email is left untouched.
func (srv *authService) EnsureAdmin(ctx context.Context) error {
	if srv.admin == nil || srv.admin.Email == "" {
		return nil
	}
	email := normalizeEmail(srv.admin.Email)

	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		existing, err := userRepo.FindByEmail(ctx, email)
		if err == nil {
			if existing.Role != entity.RoleAdmin {
				srv.log(ctx).Warn("Configured admin email belongs to a non admin account", slog.String("email", email))
			}

			return nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to look up admin")
		}

		hash, err := srv.hasher.Hash(srv.admin.Password)
		if err != nil {
			return err
		}
		name := srv.admin.Name
		if name == "" {
			name = "Administrador"
		}

		admin := &entity.User{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         entity.RoleAdmin,
			Verified:     true,
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			return errors.Wrap(err, "failed to create admin")
		}

		srv.log(ctx).Info("Admin account created", slog.String("user_id", admin.ID.String()), slog.String("email", email))

		return nil
	})
}

// PurgeExpiredTokens clears tokens whose expiry has passed.
func (srv *authService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	purged, err := srv.userRepo.PurgeExpiredTokens(ctx, srv.now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge expired tokens")
	}

	return purged, nil
}

// consume looks up the holder of an unexpired token, applies apply and saves
// the user. Unknown and expired tokens give the same error.
func (srv *authService) consume(
	ctx context.Context,
	purpose repository.TokenPurpose,
	token string,
	apply func(user *entity.User) error,
) (*entity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainerrors.ErrInvalidOrExpiredToken
	}

	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		var err error
		user, err = userRepo.FindByTokenHash(ctx, purpose, srv.tokens.Hash(token), srv.now())
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrInvalidOrExpiredToken
		}
		if err != nil {
			return errors.Wrap(err, "failed to find token")
		}

		if err := apply(user); err != nil {
			return err
		}

		return errors.Wrap(userRepo.Update(ctx, user), "failed to consume token")
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (srv *authService) issue(ttl time.Duration) (string, *entity.TokenGrant, error) {
	token, hash, err := srv.tokens.Issue()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to issue token")
	}

	return token, entity.NewTokenGrant(hash, srv.now(), ttl), nil
}

// mail hands a message to the mailer. Delivery problems never fail the
// request that triggered them.
func (srv *authService) mail(ctx context.Context, kind string, send func() error) {
	if srv.mailer == nil {
		return
	}
	if err := send(); err != nil {
		srv.log(ctx).Warn("Failed to send mail", slog.String("kind", kind), slog.Any("error", err))
	}
}

func findUserByEmail(ctx context.Context, userRepo repository.UserRepository, email string) (*entity.User, error) {
	user, err := userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
