package models

// Escritorio is a law office: the unit of data isolation. Every business
// entity references one escritório.
type Escritorio struct {
	Model

	Nome        string  `gorm:"size:255;not null" json:"nome"`
	RazaoSocial *string `gorm:"size:255" json:"razao_social,omitempty"`
	CNPJ        *string `gorm:"size:18;uniqueIndex" json:"cnpj,omitempty"`
	OABSociedade *string `gorm:"size:20" json:"oab_sociedade,omitempty"`

	// Contato
	Email    string  `gorm:"size:255;not null" json:"email"`
	Telefone *string `gorm:"size:20" json:"telefone,omitempty"`

	// Endereço
	Endereco *string `gorm:"type:text" json:"endereco,omitempty"`
	Cidade   *string `gorm:"size:100" json:"cidade,omitempty"`
	Estado   *string `gorm:"size:2" json:"estado,omitempty"`
	CEP      *string `gorm:"size:10" json:"cep,omitempty"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	// Relationships
	Usuarios []Usuario `gorm:"foreignKey:EscritorioID" json:"usuarios,omitempty"`
	Clientes []Cliente `gorm:"foreignKey:EscritorioID" json:"clientes,omitempty"`
}

// TableName specifies the table name for Escritorio model
func (Escritorio) TableName() string {
	return "escritorios"
}
