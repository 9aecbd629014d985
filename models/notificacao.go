package models

import "time"

// Notification type constants
const (
	NotificacaoPrazoProximo  = "prazo_proximo"
	NotificacaoPrazoPerdido  = "prazo_perdido"
	NotificacaoNovoAndamento = "novo_andamento"
	NotificacaoDocumentoPronto = "documento_pronto"
	NotificacaoParcelaVencida  = "parcela_vencida"
	NotificacaoSistema         = "sistema"
)

// Notification channel constants
const (
	CanalEmail   = "email"
	CanalSistema = "sistema"
)

// Notificacao is a pending or delivered alert for a user. Rows with
// Enviada=false are picked up by the periodic dispatch job.
type Notificacao struct {
	TenantModel

	UsuarioID string  `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Usuario   Usuario `gorm:"foreignKey:UsuarioID" json:"usuario,omitempty"`

	Tipo     string `gorm:"size:30;not null" json:"tipo"`
	Canal    string `gorm:"size:20;not null;default:email" json:"canal"`
	Titulo   string `gorm:"size:200;not null" json:"titulo"`
	Mensagem string `gorm:"type:text;not null" json:"mensagem"`

	// Optional link back to the entity that triggered the alert.
	ProcessoID *string `gorm:"type:uuid" json:"processo_id,omitempty"`
	PrazoID    *string `gorm:"type:uuid" json:"prazo_id,omitempty"`

	Enviada   bool       `gorm:"not null;default:false;index" json:"enviada"`
	DataEnvio *time.Time `json:"data_envio,omitempty"`
	ErroEnvio *string    `gorm:"type:text" json:"erro_envio,omitempty"`

	Lida        bool       `gorm:"not null;default:false" json:"lida"`
	DataLeitura *time.Time `json:"data_leitura,omitempty"`
}

// TableName specifies the table name for Notificacao model
func (Notificacao) TableName() string {
	return "notificacoes"
}
