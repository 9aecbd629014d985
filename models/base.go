package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is the base for entities that are not tenant-owned (the tenant itself).
type Model struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TenantModel is the base for every entity owned by an escritório.
// All queries on these entities must filter by EscritorioID.
type TenantModel struct {
	ID           string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	EscritorioID string    `gorm:"type:uuid;not null;index" json:"escritorio_id"`
}

// BeforeCreate hook to generate UUID
func (m *TenantModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// SetEscritorioID stamps the owning tenant. The repository calls this on
// every create, overriding whatever the caller supplied.
func (m *TenantModel) SetEscritorioID(id string) {
	m.EscritorioID = id
}

// GetEscritorioID returns the owning tenant id.
func (m *TenantModel) GetEscritorioID() string {
	return m.EscritorioID
}
