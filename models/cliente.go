package models

import "time"

// Cliente is a client of the escritório, usually an individual seeking an
// INSS benefit. Soft-deleted via IsActive for regulatory retention (LGPD).
type Cliente struct {
	TenantModel

	// Identificação
	Nome            string  `gorm:"size:255;not null;index" json:"nome"`
	CPF             *string `gorm:"size:14;index" json:"cpf,omitempty"`
	RG              *string `gorm:"size:20" json:"rg,omitempty"`
	RGOrgaoEmissor  *string `gorm:"size:20" json:"rg_orgao_emissor,omitempty"`
	DataNascimento  *time.Time `json:"data_nascimento,omitempty"`
	Sexo            *string `gorm:"size:1" json:"sexo,omitempty"` // M/F
	NomeMae         *string `gorm:"size:255" json:"nome_mae,omitempty"`
	NomePai         *string `gorm:"size:255" json:"nome_pai,omitempty"`
	Naturalidade    *string `gorm:"size:100" json:"naturalidade,omitempty"`
	Profissao       *string `gorm:"size:100" json:"profissao,omitempty"`

	// Contato
	Email              *string `gorm:"size:255" json:"email,omitempty"`
	Telefone           *string `gorm:"size:20" json:"telefone,omitempty"`
	TelefoneSecundario *string `gorm:"size:20" json:"telefone_secundario,omitempty"`

	// Endereço
	CEP        *string `gorm:"size:10" json:"cep,omitempty"`
	Logradouro *string `gorm:"size:255" json:"logradouro,omitempty"`
	Numero     *string `gorm:"size:20" json:"numero,omitempty"`
	Bairro     *string `gorm:"size:100" json:"bairro,omitempty"`
	Cidade     *string `gorm:"size:100" json:"cidade,omitempty"`
	Estado     *string `gorm:"size:2" json:"estado,omitempty"`

	// Dados previdenciários
	NITPisPasep *string `gorm:"size:20" json:"nit_pis_pasep,omitempty"`
	CTPSNumero  *string `gorm:"size:20" json:"ctps_numero,omitempty"`
	CTPSSerie   *string `gorm:"size:10" json:"ctps_serie,omitempty"`

	Observacoes *string `gorm:"type:text" json:"observacoes,omitempty"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	// LGPD
	ConsentimentoLGPD bool       `gorm:"not null;default:false" json:"consentimento_lgpd"`
	DataConsentimento *time.Time `json:"data_consentimento,omitempty"`

	// Relationships
	Processos  []Processo  `gorm:"foreignKey:ClienteID" json:"processos,omitempty"`
	Documentos []Documento `gorm:"foreignKey:ClienteID" json:"documentos,omitempty"`
}

// TableName specifies the table name for Cliente model
func (Cliente) TableName() string {
	return "clientes"
}

// Idade returns the client's age in full years, or -1 when the birth date
// is unknown.
func (c *Cliente) Idade() int {
	if c.DataNascimento == nil {
		return -1
	}
	now := time.Now()
	idade := now.Year() - c.DataNascimento.Year()
	if now.Month() < c.DataNascimento.Month() ||
		(now.Month() == c.DataNascimento.Month() && now.Day() < c.DataNascimento.Day()) {
		idade--
	}
	return idade
}
