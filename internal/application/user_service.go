package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/persistence"
)

// PasswordHasher derives a stored hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for the
// user directory.
type UserService struct {
	users        persistence.UserRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hashPassword: hashPassword, idGenerator: idGenerator, now: now}
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin() {
		return persistence.User{}, ErrUnauthorized
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, true)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hash, err := s.hashPassword(normalized.Password)
	if err != nil {
		return persistence.User{}, err
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        normalized.Email,
		DisplayName:  normalized.DisplayName,
		PasswordHash: hash,
		Role:         normalized.Role,
		Department:   normalized.Department,
		Phone:        normalized.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return persistence.User{}, mapUserRepoError(err)
	}
	return user, nil
}

// UpdateUser validates input and updates an existing user for administrators.
// The password is only rehashed when a new one is supplied.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin() {
		return persistence.User{}, ErrUnauthorized
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return persistence.User{}, mapUserRepoError(err)
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, false)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	updated := existing
	updated.Email = normalized.Email
	updated.DisplayName = normalized.DisplayName
	updated.Role = normalized.Role
	updated.Department = normalized.Department
	updated.Phone = normalized.Phone
	updated.UpdatedAt = s.now()

	if normalized.Password != "" {
		hash, err := s.hashPassword(normalized.Password)
		if err != nil {
			return persistence.User{}, err
		}
		updated.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		return persistence.User{}, mapUserRepoError(err)
	}
	return updated, nil
}

// UpdateProfile lets an authenticated user change their own display name,
// department, phone, and optionally their password.
func (s *UserService) UpdateProfile(ctx context.Context, principal Principal, input ProfileInput) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	existing, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		return persistence.User{}, mapUserRepoError(err)
	}

	displayName := strings.TrimSpace(input.DisplayName)
	vErr := &ValidationError{}
	if displayName == "" {
		vErr.add("display_name", "display name is required")
	}
	if input.Password != "" && len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	updated := existing
	updated.DisplayName = displayName
	updated.Department = normalizeOptionalString(input.Department)
	updated.Phone = normalizeOptionalString(input.Phone)
	updated.UpdatedAt = s.now()

	if input.Password != "" {
		hash, err := s.hashPassword(input.Password)
		if err != nil {
			return persistence.User{}, err
		}
		updated.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		return persistence.User{}, mapUserRepoError(err)
	}
	return updated, nil
}

// GetUser returns one user. Admins may look up anyone; others only themselves.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() && principal.UserID != userID {
		return persistence.User{}, ErrUnauthorized
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return persistence.User{}, mapUserRepoError(err)
	}
	return user, nil
}

// DeleteUser removes a user when requested by an administrator. Admins cannot
// delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if principal.UserID == userID {
		vErr := &ValidationError{}
		vErr.add("user_id", "cannot delete own account")
		return vErr
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return mapUserRepoError(err)
	}
	return nil
}

// ListUsers returns the directory for administrators, ordered by email.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]persistence.User, len(users))
	copy(out, users)

	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Email, out[j].Email) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Email) < strings.ToLower(out[j].Email)
	})

	return out, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Password:    input.Password,
		Role:        strings.ToLower(strings.TrimSpace(input.Role)),
		Department:  normalizeOptionalString(input.Department),
		Phone:       normalizeOptionalString(input.Phone),
	}
}

func validateUserInput(input UserInput, passwordRequired bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if !booking.Role(input.Role).IsValid() {
		vErr.add("role", "role must be admin, lecturer, or student")
	}

	if passwordRequired && input.Password == "" {
		vErr.add("password", "password is required")
	}
	if input.Password != "" && len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}

	return vErr
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
