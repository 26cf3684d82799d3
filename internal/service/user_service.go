package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-suite/attendance-api/internal/models"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	ExistsByLogin(ctx context.Context, login string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// RegisterUserInput is one account in a registration batch.
type RegisterUserInput struct {
	FIO       string          `json:"fio" validate:"required"`
	Login     string          `json:"login" validate:"required,min=3"`
	Password  string          `json:"password" validate:"required"`
	Mail      string          `json:"mail" validate:"required,email"`
	BirthDate time.Time       `json:"birth_date" validate:"required"`
	Role      models.UserRole `json:"role" validate:"required"`
}

// RegisterResult reports the outcome of one batch entry.
type RegisterResult struct {
	Login   string `json:"login"`
	UserID  string `json:"user_id,omitempty"`
	Created bool   `json:"created"`
	Reason  string `json:"reason,omitempty"`
}

// UserService manages application accounts.
type UserService struct {
	users     userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{users: users, validator: validate, logger: logger}
}

// List returns users matching the filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Register creates accounts for a whole batch. Entries that fail validation
// or collide on login are reported individually, the rest still land. New
// accounts start with first_start set so the owner must change the seeded
// password on first login.
func (s *UserService) Register(ctx context.Context, batch []RegisterUserInput) ([]RegisterResult, error) {
	if len(batch) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty registration batch")
	}

	results := make([]RegisterResult, 0, len(batch))
	for _, input := range batch {
		results = append(results, s.registerOne(ctx, input))
	}
	return results, nil
}

func (s *UserService) registerOne(ctx context.Context, input RegisterUserInput) RegisterResult {
	result := RegisterResult{Login: input.Login}

	if err := s.validator.Struct(input); err != nil {
		result.Reason = "invalid payload"
		return result
	}
	if !input.Role.Valid() {
		result.Reason = "unknown role"
		return result
	}
	if err := CheckPasswordStrength(input.Password); err != nil {
		result.Reason = err.Error()
		return result
	}

	exists, err := s.users.ExistsByLogin(ctx, input.Login)
	if err != nil {
		s.logger.Error("failed to check login", zap.String("login", input.Login), zap.Error(err))
		result.Reason = "internal error"
		return result
	}
	if exists {
		result.Reason = "login already taken"
		return result
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		result.Reason = "internal error"
		return result
	}

	user := &models.User{
		FIO:          input.FIO,
		Login:        input.Login,
		PasswordHash: string(hash),
		Mail:         input.Mail,
		BirthDate:    input.BirthDate,
		FirstStart:   true,
		Role:         input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.String("login", input.Login), zap.Error(err))
		result.Reason = "internal error"
		return result
	}

	result.UserID = user.ID
	result.Created = true
	return result
}

// Delete removes an account. An admin cannot delete themselves, so the last
// admin cannot lock everyone out mid-session.
func (s *UserService) Delete(ctx context.Context, callerID, targetID string) error {
	if callerID == targetID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return nil
}
