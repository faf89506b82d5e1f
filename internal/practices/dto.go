package practices

import (
	"time"

	"github.com/google/uuid"

	"github.com/orthodeskhq/orthodesk-backend/pkg/db/models"
)

// PracticeDTO exposes safe tenant data in API responses.
type PracticeDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Website   *string   `json:"website,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePracticeDTO holds creation-time data for a new practice.
type CreatePracticeDTO struct {
	Name    string
	Phone   *string
	Email   *string
	Website *string
	Address *string
}

// FromModel maps the persisted practice into a DTO.
func FromModel(m *models.Practice) *PracticeDTO {
	if m == nil {
		return nil
	}

	return &PracticeDTO{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		Website:   m.Website,
		Address:   m.Address,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
