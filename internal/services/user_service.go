package services

import (
	"database/sql"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/avelar/taskboard-be/internal/database"
	"github.com/avelar/taskboard-be/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// ProfileUpdate carries the mutable profile fields. Password and AvatarURL
// are optional; the zero value leaves the stored value untouched.
type ProfileUpdate struct {
	Name      string
	Email     string
	Password  string
	AvatarURL *string
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	CreateUser(name, email, password string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	UpdateProfile(id string, update ProfileUpdate) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT id, name, email, avatar_url, created_at FROM users WHERE id = ?", id)

	var user models.User
	var createdAt string
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.AvatarURL, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	if user.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the
// password hash.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	row := s.db.QueryRow("SELECT id, name, email, password_hash, avatar_url, created_at FROM users WHERE email = ?", email)

	var user models.User
	var createdAt string
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.AvatarURL, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	if user.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// CreateUser registers a new user, hashing their password.
func (s *UserService) CreateUser(name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, &ValidationError{Field: "name", Message: "Name is required"}
	}
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	if len(password) < MinPasswordLength {
		return models.User{}, &ValidationError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.Exec(
		"INSERT INTO users(id, name, email, password_hash, created_at) VALUES(?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, string(hashedPassword), database.FormatTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	return user, nil
}

// AuthenticateUser verifies a user's credentials. Any failure collapses into
// ErrInvalidCredentials so a caller cannot probe which emails exist.
func (s *UserService) AuthenticateUser(email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if err == ErrNotFound {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't hand the password hash back to callers.
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile updates a user's name and email, and optionally their
// password and avatar reference.
func (s *UserService) UpdateProfile(id string, update ProfileUpdate) (models.User, error) {
	update.Name = strings.TrimSpace(update.Name)
	if update.Name == "" {
		return models.User{}, &ValidationError{Field: "name", Message: "Name is required"}
	}
	if err := validateEmail(update.Email); err != nil {
		return models.User{}, err
	}
	if update.Password != "" && len(update.Password) < MinPasswordLength {
		return models.User{}, &ValidationError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
	}

	if _, err := s.GetUserByID(id); err != nil {
		return models.User{}, err
	}

	_, err := s.db.Exec("UPDATE users SET name = ?, email = ? WHERE id = ?", update.Name, update.Email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	if update.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(update.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to hash new password: %w", err)
		}
		if _, err := s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), id); err != nil {
			return models.User{}, err
		}
	}

	if update.AvatarURL != nil {
		if _, err := s.db.Exec("UPDATE users SET avatar_url = ? WHERE id = ?", *update.AvatarURL, id); err != nil {
			return models.User{}, err
		}
	}

	return s.GetUserByID(id)
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	return nil
}

// isUniqueViolation reports whether err is the sqlite unique-constraint
// error. The driver does not export a typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
