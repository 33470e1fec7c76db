package postgres

import (
	"context"
	"time"

	"tienda/internal/domain/entity"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/domain/repository"
	"tienda/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.first(ctx, "find user by id", "id = ?", id)
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.first(ctx, "find user by email", "email = ?", email)
}

// FindByTokenHash finds the user holding an unexpired token of the given purpose.
func (repo *userRepository) FindByTokenHash(ctx context.Context, purpose repository.TokenPurpose, hash string, now time.Time) (*entity.User, error) {
	switch purpose {
	case repository.TokenPurposeVerification:
		return repo.first(ctx, "find user by verification token",
			"verification_token_hash = ? AND verification_expires_at > ?", hash, now)
	case repository.TokenPurposeReset:
		return repo.first(ctx, "find user by reset token",
			"reset_token_hash = ? AND reset_expires_at > ?", hash, now)
	default:
		return nil, errors.Errorf("unknown token purpose %q", purpose)
	}
}

func (repo *userRepository) first(ctx context.Context, op string, query string, args ...any) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to "+op)
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.Must(uuid.NewV7())
	}
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update saves every column of the user, including cleared token grants.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Select("*").Omit("id", "created_at").
		Updates(userM)
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// PurgeExpiredTokens clears token hashes whose expiry has passed and reports how many users were touched.
func (repo *userRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var purged int64

	verification := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("verification_expires_at IS NOT NULL AND verification_expires_at <= ?", now).
		Updates(map[string]any{"verification_token_hash": nil, "verification_expires_at": nil})
	if verification.Error != nil {
		return 0, errors.Wrap(verification.Error, "failed to purge verification tokens")
	}
	purged += verification.RowsAffected

	reset := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("reset_expires_at IS NOT NULL AND reset_expires_at <= ?", now).
		Updates(map[string]any{"reset_token_hash": nil, "reset_expires_at": nil})
	if reset.Error != nil {
		return purged, errors.Wrap(reset.Error, "failed to purge reset tokens")
	}
	purged += reset.RowsAffected

	return purged, nil
}

// --- Mapper Functions ---

func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:           data.ID,
		Name:         data.Name,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Role:         entity.Role(data.Role),
		Verified:     data.Verified,
		Verification: toTokenGrant(data.VerificationTokenHash, data.VerificationExpiresAt),
		Reset:        toTokenGrant(data.ResetTokenHash, data.ResetExpiresAt),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	userM := &model.UserModel{
		ID:           data.ID,
		Name:         data.Name,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Role:         string(data.Role),
		Verified:     data.Verified,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	if userM.Role == "" {
		userM.Role = string(entity.RoleCustomer)
	}
	userM.VerificationTokenHash, userM.VerificationExpiresAt = fromTokenGrant(data.Verification)
	userM.ResetTokenHash, userM.ResetExpiresAt = fromTokenGrant(data.Reset)

	return userM
}

func toTokenGrant(hash *string, expiresAt *time.Time) *entity.TokenGrant {
	if hash == nil || expiresAt == nil {
		return nil
	}

	return &entity.TokenGrant{Hash: *hash, ExpiresAt: *expiresAt}
}

func fromTokenGrant(grant *entity.TokenGrant) (*string, *time.Time) {
	if grant == nil {
		return nil, nil
	}
	hash, expiresAt := grant.Hash, grant.ExpiresAt

	return &hash, &expiresAt
}
