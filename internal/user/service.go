package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/badoux/checkmail"
	database "github.com/sebuszqo/FinanceDashboard/internal/db"
	financeErrors "github.com/sebuszqo/FinanceDashboard/internal/finance/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxEmailLength    = 255
	maxNameLength     = 100
	maxPasswordBytes  = 72 // bcrypt input limit
	defaultBcryptCost = 12

	RegistrationSuccessMessage = "Registration successful! You can now log in."
)

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Service interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	Register(ctx context.Context, firstName, lastName, email, password string) (string, error)
}

type Options struct {
	BcryptCost int
	// CheckEmailHost adds a DNS lookup of the email domain on registration.
	CheckEmailHost bool
	Now            func() time.Time
}

type service struct {
	repo       Repository
	tx         database.Transactor
	logger     *slog.Logger
	bcryptCost int
	checkHost  bool
	now        func() time.Time
}

func NewUserService(repo Repository, tx database.Transactor, logger *slog.Logger, opts Options) Service {
	s := &service{
		repo:       repo,
		tx:         tx,
		logger:     logger.With("component", "user_service"),
		bcryptCost: opts.BcryptCost,
		checkHost:  opts.CheckEmailHost,
		now:        opts.Now,
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = defaultBcryptCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func hashPassword(password string, cost int) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hashedPasswordBytes), err
}

// doPasswordsMatch compares in constant time through bcrypt.
func doPasswordsMatch(hashedPassword, currPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword))
	return err == nil
}

func (s *service) validateEmailAddress(email string) error {
	if len(email) == 0 || len(email) > maxEmailLength {
		return financeErrors.NewBadRequestError("Invalid email format")
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return financeErrors.NewBadRequestError("Invalid email format")
	}
	if !s.checkHost {
		return nil
	}
	if err := checkmail.ValidateHost(email); err != nil {
		if strings.Contains(err.Error(), "timeout") {
			s.logger.Warn("email host check timed out, continuing without it", "email", email)
			return nil
		}
		return financeErrors.NewBadRequestError("Invalid email format")
	}
	return nil
}

func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var found *User
	err := s.tx.WithinTx(ctx, true, func(ctx context.Context) error {
		u, err := s.repo.GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return financeErrors.NewNotFoundError("User not found with provided email")
			}
			return financeErrors.NewInternalError("Could not fetch user", err)
		}
		found = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	existingUser, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !doPasswordsMatch(existingUser.PasswordHash, password) {
		s.logger.Warn("login rejected, password mismatch", "user_id", existingUser.ID)
		return nil, financeErrors.NewUnauthorizedError("Invalid email or password")
	}

	s.logger.Info("user logged in", "user_id", existingUser.ID)
	return existingUser, nil
}

func (s *service) Register(ctx context.Context, firstName, lastName, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if err := s.validateEmailAddress(email); err != nil {
		return "", err
	}

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	validationErrors := &financeErrors.ValidationErrors{}
	if firstName == "" || utf8.RuneCountInString(firstName) > maxNameLength {
		validationErrors.Add("First name is required and must be at most 100 characters")
	}
	if lastName == "" || utf8.RuneCountInString(lastName) > maxNameLength {
		validationErrors.Add("Last name is required and must be at most 100 characters")
	}
	if password == "" {
		validationErrors.Add("Password is required")
	}
	if len(password) > maxPasswordBytes {
		validationErrors.Add("Password must be at most 72 bytes")
	}
	if err := validationErrors.OrNil(); err != nil {
		return "", err
	}

	passwordHash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		return "", financeErrors.NewInternalError("Could not register user", err)
	}

	err = s.tx.WithinTx(ctx, false, func(ctx context.Context) error {
		_, err := s.repo.GetUserByEmail(ctx, email)
		if err == nil {
			return financeErrors.NewConflictError("User with this email already exists")
		}
		if !errors.Is(err, ErrUserNotFound) {
			return financeErrors.NewInternalError("Could not register user", err)
		}

		newUser := &User{
			FirstName:    firstName,
			LastName:     lastName,
			Email:        email,
			PasswordHash: passwordHash,
			CreatedAt:    s.now().UTC(),
		}
		if err := s.repo.CreateUser(ctx, newUser); err != nil {
			if errors.Is(err, ErrEmailAlreadyExists) {
				return financeErrors.NewConflictError("User with this email already exists")
			}
			return financeErrors.NewInternalError("Could not register user", err)
		}
		s.logger.Info("user registered", "user_id", newUser.ID)
		return nil
	})
	if err != nil {
		return "", err
	}

	return RegistrationSuccessMessage, nil
}
