package account

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"thriftstore/internal/client/api"
	"thriftstore/internal/client/session"
	"thriftstore/internal/common"
	"thriftstore/internal/logger"
)

// API is the part of api.Client the account flows use.
type API interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Signup(ctx context.Context, form api.SignupForm) (*api.AuthResult, error)
	UpdateLocation(ctx context.Context, userID uint, location string) (*api.User, error)
}

type SignupForm struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// Validate runs the form checks that must pass before any request is made.
func (f SignupForm) Validate() error {
	required := []struct{ field, value string }{
		{"name", f.Name},
		{"email", f.Email},
		{"phone", f.Phone},
		{"password", f.Password},
		{"confirm_password", f.ConfirmPassword},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return common.NewValidationError(r.field, "all fields are required")
		}
	}
	if err := common.ValidateEmail(f.Email); err != nil {
		return err
	}
	if f.Password != f.ConfirmPassword {
		return common.NewValidationError("confirm_password", "passwords do not match")
	}
	if err := common.ValidatePassword(f.Password); err != nil {
		return err
	}
	return common.ValidatePhone(f.Phone)
}

type Service struct {
	api   API
	store session.Store
}

func NewService(client API, store session.Store) *Service {
	return &Service{api: client, store: store}
}

func (s *Service) Signup(ctx context.Context, form SignupForm) (*session.Session, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	res, err := s.api.Signup(ctx, api.SignupForm{
		Name:     strings.TrimSpace(form.Name),
		Email:    common.NormalizeEmail(form.Email),
		Phone:    strings.TrimSpace(form.Phone),
		Password: form.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "signup")
	}
	return s.persist(ctx, res)
}

func (s *Service) Login(ctx context.Context, email, password string) (*session.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, common.NewValidationError("", "email and password are required")
	}

	res, err := s.api.Login(ctx, common.NormalizeEmail(email), password)
	if err != nil {
		return nil, errors.Wrap(err, "login")
	}
	return s.persist(ctx, res)
}

// UpdateLocation registers the user's address with the server. Location and
// access level are stored together only after the server accepts the change.
func (s *Service) UpdateLocation(ctx context.Context, location string) (*session.Session, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, common.NewValidationError("location", "location is required")
	}

	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.api.UpdateLocation(ctx, current.UserID, location)
	if err != nil {
		return nil, s.checkAuth(ctx, errors.Wrap(err, "update location"))
	}

	level := user.AccessLevel
	if level < common.AccessLevelSeller {
		level = common.AccessLevelSeller
	}
	err = s.store.Update(ctx, func(sess *session.Session) error {
		sess.Location = location
		sess.AccessLevel = level
		sess.Role = common.RoleForAccessLevel(level)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "store location")
	}

	logger.Log.WithFields(logrus.Fields{"user_id": current.UserID, "access_level": level}).Info("location registered")
	return s.store.Load(ctx)
}

// Current returns the stored session or ErrAuthExpired when there is no
// usable token.
func (s *Service) Current(ctx context.Context) (*session.Session, error) {
	sess, err := s.store.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, common.ErrAuthExpired
	}
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, common.ErrAuthExpired
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// CheckAuth clears the stored token when err reports an expired session so
// the next command asks the user to log in again. err is returned unchanged.
func (s *Service) CheckAuth(ctx context.Context, err error) error {
	return s.checkAuth(ctx, err)
}

func (s *Service) checkAuth(ctx context.Context, err error) error {
	if !errors.Is(err, common.ErrAuthExpired) {
		return err
	}
	clearErr := s.store.Update(ctx, func(sess *session.Session) error {
		sess.Token = ""
		return nil
	})
	if clearErr != nil && !errors.Is(clearErr, session.ErrNoSession) {
		logger.Log.WithError(clearErr).Warn("failed to clear expired token")
	}
	return err
}

func (s *Service) persist(ctx context.Context, res *api.AuthResult) (*session.Session, error) {
	sess := &session.Session{
		Token:       res.Token,
		UserID:      res.User.ID,
		Email:       res.User.Email,
		Phone:       res.User.Phone,
		Location:    res.User.Location,
		AccessLevel: res.User.AccessLevel,
		Name:        res.User.Name,
		Role:        common.RoleForAccessLevel(res.User.AccessLevel),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "store session")
	}
	logger.Log.WithFields(logrus.Fields{"user_id": sess.UserID, "role": sess.Role}).Info("session stored")
	return sess, nil
}
