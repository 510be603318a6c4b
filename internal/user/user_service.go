package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
	"thriftstore/internal/logger"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type UserService interface {
	Signup(ctx context.Context, req SignupRequest) (*dbmysql.User, string, error)
	Login(ctx context.Context, email, password string) (*dbmysql.User, string, error)
	Profile(ctx context.Context, userID uint) (*dbmysql.User, error)
	UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*dbmysql.User, error)
	UpdateLocation(ctx context.Context, callerID, userID uint, location string) (*dbmysql.User, error)
}

type userService struct {
	userRepo UserRepository
	tokens   *common.TokenManager
}

func NewUserService(userRepo UserRepository, tokens *common.TokenManager) UserService {
	return &userService{userRepo: userRepo, tokens: tokens}
}

func (s *userService) Signup(ctx context.Context, req SignupRequest) (*dbmysql.User, string, error) {
	req.Email = common.NormalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := common.ValidateName(req.Name); err != nil {
		return nil, "", err
	}
	if err := common.ValidateEmail(req.Email); err != nil {
		return nil, "", err
	}
	if err := common.ValidatePhone(req.Phone); err != nil {
		return nil, "", err
	}
	if err := common.ValidatePassword(req.Password); err != nil {
		return nil, "", err
	}

	taken, err := s.userRepo.TakenField(ctx, req.Email, req.Phone, 0)
	if err != nil {
		return nil, "", err
	}
	if taken != "" {
		return nil, "", fmt.Errorf("%s already registered: %w", taken, common.ErrConflict)
	}

	hashed, err := common.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &dbmysql.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hashed,
		AccessLevel:  common.AccessLevelBuyer,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("user signed up")
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*dbmysql.User, string, error) {
	email = common.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", common.NewValidationError("", "email and password required")
	}

	user, err := s.userRepo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ErrBadCredentials
		}
		return nil, "", err
	}

	if err := common.CheckPassword(password, user.PasswordHash); err != nil {
		return nil, "", common.ErrBadCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

func (s *userService) Profile(ctx context.Context, userID uint) (*dbmysql.User, error) {
	return s.userRepo.UserByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*dbmysql.User, error) {
	user, err := s.userRepo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		if err := common.ValidateName(update.Name); err != nil {
			return nil, err
		}
		user.Name = strings.TrimSpace(update.Name)
	}
	if update.Email != "" {
		email := common.NormalizeEmail(update.Email)
		if err := common.ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if update.Phone != "" {
		phone := strings.TrimSpace(update.Phone)
		if err := common.ValidatePhone(phone); err != nil {
			return nil, err
		}
		user.Phone = phone
	}

	taken, err := s.userRepo.TakenField(ctx, user.Email, user.Phone, user.ID)
	if err != nil {
		return nil, err
	}
	if taken != "" {
		return nil, fmt.Errorf("%s already registered: %w", taken, common.ErrConflict)
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateLocation is only allowed on the caller's own account.
func (s *userService) UpdateLocation(ctx context.Context, callerID, userID uint, location string) (*dbmysql.User, error) {
	if callerID != userID {
		return nil, fmt.Errorf("cannot update another user's location: %w", common.ErrForbidden)
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, common.NewValidationError("location", "location is required")
	}

	if err := s.userRepo.UpdateLocation(ctx, userID, location); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", userID).Info("location updated, promoted to seller")
	return s.userRepo.UserByID(ctx, userID)
}
