package memberships

import (
	"time"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
)

type membershipWithPracticeRow struct {
	models.PracticeMembership
	PracticeName string `gorm:"column:practice_name"`
}

func membershipWithPracticeFromRow(row membershipWithPracticeRow) MembershipWithPractice {
	return MembershipWithPractice{
		MembershipID: row.ID,
		PracticeID:   row.PracticeID,
		UserID:       row.UserID,
		PracticeName: row.PracticeName,
		Role:         row.Role,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func membershipRowsToDTO(rows []membershipWithPracticeRow) []MembershipWithPractice {
	out := make([]MembershipWithPractice, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipWithPracticeFromRow(row))
	}
	return out
}

type practiceUserRow struct {
	models.PracticeMembership
	Email       string     `gorm:"column:email"`
	FirstName   string     `gorm:"column:first_name"`
	LastName    string     `gorm:"column:last_name"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

func practiceUsersFromRows(rows []practiceUserRow) []PracticeUserDTO {
	out := make([]PracticeUserDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, PracticeUserDTO{
			MembershipID: row.ID,
			PracticeID:   row.PracticeID,
			UserID:       row.UserID,
			Email:        row.Email,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			Role:         row.Role,
			Status:       row.Status,
			CreatedAt:    row.CreatedAt,
			LastLoginAt:  row.LastLoginAt,
		})
	}
	return out
}
