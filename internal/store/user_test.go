// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"refto/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-create@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, email, "testpass123", "Test User", models.RoleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.Email != email {
		t.Errorf("email: got %q, want %q", user.Email, email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("role: got %q, want %q", user.Role, models.RoleUser)
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password must be stored hashed")
	}
}

func TestUserStoreFindByEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-findbyemail@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for non-existent user")
	}

	created, err := s.Create(ctx, email, "pass", "Find Me", models.RoleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user, err = s.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user == nil || user.ID != created.ID {
		t.Fatalf("expected user %s, got %+v", created.ID, user)
	}
}

func TestUserStoreFindByID(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-findbyid@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.FindByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("FindByID (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for random UUID")
	}

	created, _ := s.Create(ctx, email, "pass", "By ID", models.RoleAdmin)
	user, err = s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if user == nil || !user.IsAdmin() {
		t.Fatalf("expected admin user, got %+v", user)
	}
}

func TestUserStoreCheckPassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-checkpass@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, _ := s.Create(context.Background(), email, "correct-password", "PW Check", models.RoleUser)

	if !s.CheckPassword(user, "correct-password") {
		t.Error("expected CheckPassword to return true for correct password")
	}
	if s.CheckPassword(user, "wrong-password") {
		t.Error("expected CheckPassword to return false for wrong password")
	}
	if s.CheckPassword(user, "") {
		t.Error("expected CheckPassword to return false for empty password")
	}
}

func TestUserStoreDelete(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	user, _ := s.Create(ctx, "test-delete@store-test.local", "pass", "Delete Me", models.RoleUser)

	if err := s.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	found, _ := s.FindByID(ctx, user.ID)
	if found != nil {
		t.Error("expected nil after delete")
	}
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-dup@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	if _, err := s.Create(ctx, email, "pass", "First", models.RoleUser); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := s.Create(ctx, email, "pass", "Second", models.RoleUser)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}
}
