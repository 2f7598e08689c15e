package application

import (
	"context"
	"errors"
	"testing"

	"github.com/channasilva/crms-server/internal/booking"
)

func plainHasher(password string) (string, error) {
	return "hash:" + password, nil
}

var adminPrincipal = Principal{UserID: "admin-1", Role: booking.RoleAdmin}
var studentPrincipal = Principal{UserID: "student-1", Role: booking.RoleStudent}

func TestUserService_CreateUser(t *testing.T) {
	t.Run("requires administrator role", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(), plainHasher, nil, fixedClock())

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: studentPrincipal,
			Input:     UserInput{Email: "a@campus.edu", DisplayName: "A", Password: "password1", Role: "student"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(), plainHasher, nil, fixedClock())

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{Email: "not-an-email", DisplayName: " ", Password: "short", Role: "professor"},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "display_name", "password", "role"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("hashes the password and normalizes the email", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := NewUserService(repo, plainHasher, testIDGenerator("user"), fixedClock())

		created, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{Email: "  New.Lecturer@Campus.EDU ", DisplayName: "New Lecturer", Password: "password1", Role: "Lecturer"},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if created.Email != "new.lecturer@campus.edu" {
			t.Fatalf("expected normalized email, got %q", created.Email)
		}
		if created.PasswordHash != "hash:password1" {
			t.Fatalf("expected hashed password, got %q", created.PasswordHash)
		}
		if created.Role != "lecturer" {
			t.Fatalf("expected normalized role, got %q", created.Role)
		}
	})

	t.Run("reports duplicate emails", func(t *testing.T) {
		repo := newFakeUserRepo(testUser("user-1", "taken@campus.edu", "student"))
		svc := NewUserService(repo, plainHasher, testIDGenerator("user"), fixedClock())

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{Email: "taken@campus.edu", DisplayName: "Dup", Password: "password1", Role: "student"},
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Run("keeps the stored hash when no password is supplied", func(t *testing.T) {
		repo := newFakeUserRepo(testUser("user-1", "old@campus.edu", "student"))
		svc := NewUserService(repo, plainHasher, nil, fixedClock())

		updated, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: adminPrincipal,
			UserID:    "user-1",
			Input:     UserInput{Email: "old@campus.edu", DisplayName: "Renamed", Role: "lecturer"},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if updated.PasswordHash != "hash:secret123" {
			t.Fatalf("expected stored hash to survive, got %q", updated.PasswordHash)
		}
		if updated.Role != "lecturer" || updated.DisplayName != "Renamed" {
			t.Fatalf("unexpected update result: %+v", updated)
		}
	})

	t.Run("reports missing users", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(), plainHasher, nil, fixedClock())

		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: adminPrincipal,
			UserID:    "missing",
			Input:     UserInput{Email: "x@campus.edu", DisplayName: "X", Role: "student"},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Run("updates own display name and contact details", func(t *testing.T) {
		repo := newFakeUserRepo(testUser("student-1", "s@campus.edu", "student"))
		svc := NewUserService(repo, plainHasher, nil, fixedClock())

		dept := " Computer Science "
		updated, err := svc.UpdateProfile(context.Background(), studentPrincipal, ProfileInput{
			DisplayName: "Self Service",
			Department:  &dept,
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if updated.DisplayName != "Self Service" {
			t.Fatalf("unexpected display name: %q", updated.DisplayName)
		}
		if updated.Department == nil || *updated.Department != "Computer Science" {
			t.Fatalf("expected trimmed department, got %v", updated.Department)
		}
		if updated.Role != "student" {
			t.Fatalf("profile update must not change the role, got %q", updated.Role)
		}
	})

	t.Run("rejects a short replacement password", func(t *testing.T) {
		repo := newFakeUserRepo(testUser("student-1", "s@campus.edu", "student"))
		svc := NewUserService(repo, plainHasher, nil, fixedClock())

		_, err := svc.UpdateProfile(context.Background(), studentPrincipal, ProfileInput{
			DisplayName: "Self Service",
			Password:    "short",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["password"]; !ok {
			t.Fatalf("expected password validation error, got %v", vErr.FieldErrors)
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Run("refuses self deletion", func(t *testing.T) {
		repo := newFakeUserRepo(testUser("admin-1", "admin@campus.edu", "admin"))
		svc := NewUserService(repo, plainHasher, nil, fixedClock())

		err := svc.DeleteUser(context.Background(), adminPrincipal, "admin-1")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("deletes another account", func(t *testing.T) {
		repo := newFakeUserRepo(testUser("user-2", "u2@campus.edu", "student"))
		svc := NewUserService(repo, plainHasher, nil, fixedClock())

		if err := svc.DeleteUser(context.Background(), adminPrincipal, "user-2"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if _, ok := repo.users["user-2"]; ok {
			t.Fatalf("expected user to be removed")
		}
	})
}

func TestUserService_ListUsers(t *testing.T) {
	repo := newFakeUserRepo(
		testUser("user-b", "beta@campus.edu", "student"),
		testUser("user-a", "alpha@campus.edu", "lecturer"),
	)
	svc := NewUserService(repo, plainHasher, nil, fixedClock())

	t.Run("requires administrator role", func(t *testing.T) {
		if _, err := svc.ListUsers(context.Background(), studentPrincipal); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("orders the directory by email", func(t *testing.T) {
		users, err := svc.ListUsers(context.Background(), adminPrincipal)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(users) != 2 || users[0].Email != "alpha@campus.edu" {
			t.Fatalf("unexpected ordering: %+v", users)
		}
	})
}
