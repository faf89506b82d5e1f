//go:build db
// +build db

package memberships

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("ORTHODESK_DB_DSN")
	if dsn == "" {
		t.Skip("ORTHODESK_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func TestRepositoryMembershipFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("od_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "Member",
		IsActive:     true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	practice := &models.Practice{
		ID:   uuid.New(),
		Name: "Repo Orthodontics",
	}
	if err := tx.Create(practice).Error; err != nil {
		t.Fatalf("create practice: %v", err)
	}

	membership, err := repo.CreateMembership(ctx, practice.ID, user.ID, enums.MemberRoleOwner, enums.MembershipStatusActive)
	if err != nil {
		t.Fatalf("create membership: %v", err)
	}

	list, err := repo.ListUserPractices(ctx, user.ID)
	if err != nil {
		t.Fatalf("list user practices: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 practice, got %d", len(list))
	}
	if list[0].PracticeName != practice.Name {
		t.Fatalf("expected practice name %s, got %s", practice.Name, list[0].PracticeName)
	}
	if list[0].Role != enums.MemberRoleOwner {
		t.Fatalf("unexpected role %s", list[0].Role)
	}

	exists, err := repo.UserHasRole(ctx, user.ID, practice.ID, enums.MemberRoleOwner)
	if err != nil {
		t.Fatalf("check role: %v", err)
	}
	if !exists {
		t.Fatalf("expected user to have role owner")
	}

	other, err := repo.UserHasRole(ctx, user.ID, practice.ID, enums.MemberRoleAdmin)
	if err != nil {
		t.Fatalf("check other role: %v", err)
	}
	if other {
		t.Fatal("expected user to not have admin role")
	}

	fetched, err := repo.GetMembership(ctx, user.ID, practice.ID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if fetched.ID != membership.ID {
		t.Fatalf("expected membership id %s, got %s", membership.ID, fetched.ID)
	}

	if _, err := repo.CreateMembership(ctx, practice.ID, user.ID, enums.MemberRoleAdmin, enums.MembershipStatusActive); err == nil {
		t.Fatal("expected duplicate membership to fail")
	}
}
