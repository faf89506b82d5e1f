package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
)

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListUserPractices returns the practices a user belongs to along with
// membership metadata.
func (r *Repository) ListUserPractices(ctx context.Context, userID uuid.UUID) ([]MembershipWithPractice, error) {
	var rows []membershipWithPracticeRow

	err := r.db.WithContext(ctx).
		Model(&models.PracticeMembership{}).
		Select("practice_memberships.*, practices.name AS practice_name").
		Joins("JOIN practices ON practices.id = practice_memberships.practice_id").
		Where("practice_memberships.user_id = ? AND practices.deleted_at IS NULL", userID).
		Order("practices.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return membershipRowsToDTO(rows), nil
}

// GetMembership retrieves a membership by user and practice.
func (r *Repository) GetMembership(ctx context.Context, userID, practiceID uuid.UUID) (*models.PracticeMembership, error) {
	var membership models.PracticeMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND practice_id = ?", userID, practiceID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// CreateMembership persists a new membership record.
func (r *Repository) CreateMembership(ctx context.Context, practiceID, userID uuid.UUID, role enums.MemberRole, status enums.MembershipStatus) (*models.PracticeMembership, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid member role %q", role)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid membership status %q", status)
	}

	membership := &models.PracticeMembership{
		PracticeID: practiceID,
		UserID:     userID,
		Role:       role,
		Status:     status,
	}

	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// UserHasRole reports whether the user holds one of the provided roles for
// the practice.
func (r *Repository) UserHasRole(ctx context.Context, userID, practiceID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PracticeMembership{}).
		Where("user_id = ? AND practice_id = ? AND role IN ?", userID, practiceID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteMembership removes a user's membership in the practice.
func (r *Repository) DeleteMembership(ctx context.Context, practiceID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&models.PracticeMembership{}, "practice_id = ? AND user_id = ?", practiceID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountMembersWithRoles counts practice members holding any of the roles.
func (r *Repository) CountMembersWithRoles(ctx context.Context, practiceID uuid.UUID, roles ...enums.MemberRole) (int64, error) {
	if len(roles) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PracticeMembership{}).
		Where("practice_id = ? AND role IN ?", practiceID, roles).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetMembershipWithPractice returns membership details joined with practice
// metadata.
func (r *Repository) GetMembershipWithPractice(ctx context.Context, userID, practiceID uuid.UUID) (*MembershipWithPractice, error) {
	var row membershipWithPracticeRow
	err := r.db.WithContext(ctx).
		Model(&models.PracticeMembership{}).
		Select("practice_memberships.*, practices.name AS practice_name").
		Joins("JOIN practices ON practices.id = practice_memberships.practice_id").
		Where("practice_memberships.user_id = ? AND practice_memberships.practice_id = ?", userID, practiceID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	dto := membershipWithPracticeFromRow(row)
	return &dto, nil
}

// ListPracticeUsers returns memberships for the practice along with user
// metadata.
func (r *Repository) ListPracticeUsers(ctx context.Context, practiceID uuid.UUID) ([]PracticeUserDTO, error) {
	var rows []practiceUserRow
	err := r.db.WithContext(ctx).
		Model(&models.PracticeMembership{}).
		Select("practice_memberships.*, users.email, users.first_name, users.last_name, users.last_login_at").
		Joins("JOIN users ON users.id = practice_memberships.user_id").
		Where("practice_memberships.practice_id = ?", practiceID).
		Order("practice_memberships.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return practiceUsersFromRows(rows), nil
}
