package models

// User role constants
const (
	RoleAdmin      = "admin"
	RoleAdvogado   = "advogado"
	RoleSecretaria = "secretaria"
	RoleEstagiario = "estagiario"
)

// Usuario is a member of an escritório (lawyer, secretary, intern or admin).
type Usuario struct {
	TenantModel

	Email          string  `gorm:"size:255;not null;uniqueIndex" json:"email"`
	HashedPassword string  `gorm:"size:255;not null" json:"-"`
	Nome           string  `gorm:"size:255;not null" json:"nome"`
	CPF            *string `gorm:"size:14" json:"cpf,omitempty"`
	Telefone       *string `gorm:"size:20" json:"telefone,omitempty"`

	// Registro OAB (advogados)
	OABNumero *string `gorm:"size:20" json:"oab_numero,omitempty"`
	OABEstado *string `gorm:"size:2" json:"oab_estado,omitempty"`

	Role     string `gorm:"size:20;not null;default:advogado" json:"role"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	Escritorio Escritorio `gorm:"foreignKey:EscritorioID" json:"escritorio,omitempty"`
}

// TableName specifies the table name for Usuario model
func (Usuario) TableName() string {
	return "usuarios"
}

// IsValidRole checks if the role is valid
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAdvogado, RoleSecretaria, RoleEstagiario:
		return true
	}
	return false
}

// IsAdmin checks if the user has the admin role
func (u *Usuario) IsAdmin() bool {
	return u.Role == RoleAdmin
}
