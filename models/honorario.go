package models

import "time"

// Fee contract type constants
const (
	ContratoFixo  = "fixo"
	ContratoExito = "exito"
	ContratoMisto = "misto"
)

// Installment status constants
const (
	ParcelaPendente  = "pendente"
	ParcelaPaga      = "paga"
	ParcelaAtrasada  = "atrasada"
	ParcelaCancelada = "cancelada"
)

// ContratoHonorario is a fee agreement with a client. All money values are
// stored in centavos to keep installment math exact.
type ContratoHonorario struct {
	TenantModel

	ClienteID string  `gorm:"type:uuid;not null;index" json:"cliente_id"`
	Cliente   Cliente `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`

	ProcessoID *string   `gorm:"type:uuid;index" json:"processo_id,omitempty"`
	Processo   *Processo `gorm:"foreignKey:ProcessoID" json:"processo,omitempty"`

	Tipo string `gorm:"size:20;not null" json:"tipo"`

	// Fixed component, in centavos. Required for fixo and misto.
	ValorFixoCentavos *int64 `json:"valor_fixo_centavos,omitempty"`

	// Success fee as a percentage of the award. Required for exito and misto.
	PercentualExito *float64 `json:"percentual_exito,omitempty"`

	NumeroParcelas int        `gorm:"not null;default:1" json:"numero_parcelas"`
	DataAssinatura time.Time  `gorm:"not null" json:"data_assinatura"`
	DataEncerramento *time.Time `json:"data_encerramento,omitempty"`

	IsActive    bool    `gorm:"not null;default:true" json:"is_active"`
	Observacoes *string `gorm:"type:text" json:"observacoes,omitempty"`

	Parcelas []ParcelaHonorario `gorm:"foreignKey:ContratoID" json:"parcelas,omitempty"`
}

// TableName specifies the table name for ContratoHonorario model
func (ContratoHonorario) TableName() string {
	return "contratos_honorarios"
}

// IsValidTipoContrato checks if the fee contract type is valid
func IsValidTipoContrato(tipo string) bool {
	switch tipo {
	case ContratoFixo, ContratoExito, ContratoMisto:
		return true
	}
	return false
}

// ParcelaHonorario is one installment of a fee contract.
type ParcelaHonorario struct {
	TenantModel

	ContratoID string            `gorm:"type:uuid;not null;index" json:"contrato_id"`
	Contrato   ContratoHonorario `gorm:"foreignKey:ContratoID" json:"contrato,omitempty"`

	Numero        int       `gorm:"not null" json:"numero"`
	ValorCentavos int64     `gorm:"not null" json:"valor_centavos"`
	DataVencimento time.Time `gorm:"not null;index" json:"data_vencimento"`

	Status        string     `gorm:"size:20;not null;default:pendente;index" json:"status"`
	DataPagamento *time.Time `json:"data_pagamento,omitempty"`
	// ValorPagoCentavos may differ from ValorCentavos on partial or
	// negotiated payments.
	ValorPagoCentavos *int64  `json:"valor_pago_centavos,omitempty"`
	FormaPagamento    *string `gorm:"size:30" json:"forma_pagamento,omitempty"`

	Observacoes *string `gorm:"type:text" json:"observacoes,omitempty"`
}

// TableName specifies the table name for ParcelaHonorario model
func (ParcelaHonorario) TableName() string {
	return "parcelas_honorarios"
}

// Vencida reports whether an unpaid installment is past its due date.
func (p *ParcelaHonorario) Vencida(agora time.Time) bool {
	return p.Status == ParcelaPendente && agora.After(p.DataVencimento)
}
