package models

import "time"

// Document category constants
const (
	CategoriaIdentificacao = "identificacao"
	CategoriaPrevidenciario = "previdenciario"
	CategoriaMedico         = "medico"
	CategoriaTrabalhista    = "trabalhista"
	CategoriaJudicial       = "judicial"
	CategoriaContratual     = "contratual"
	CategoriaOutros         = "outros"
)

// Document type constants
const (
	DocumentoRG               = "rg"
	DocumentoCPF              = "cpf"
	DocumentoCNH              = "cnh"
	DocumentoCNIS             = "cnis"
	DocumentoPPP              = "ppp"
	DocumentoCTPS             = "ctps"
	DocumentoLaudoMedico      = "laudo_medico"
	DocumentoCartaConcessao   = "carta_concessao"
	DocumentoCartaIndeferimento = "carta_indeferimento"
	DocumentoSentenca         = "sentenca"
	DocumentoProcuracao       = "procuracao"
	DocumentoContrato         = "contrato"
	DocumentoComprovanteResidencia = "comprovante_residencia"
	DocumentoOutros           = "outros"
)

// AI processing status constants
const (
	StatusIAPendente    = "pendente"
	StatusIAProcessando = "processando"
	StatusIAConcluido   = "concluido"
	StatusIAErro        = "erro"
)

// Documento is an uploaded file plus its AI processing state. The binary
// lives in object storage under StorageKey; only metadata and extraction
// results live in the database.
type Documento struct {
	TenantModel

	Nome         string `gorm:"size:255;not null" json:"nome"`
	NomeOriginal string `gorm:"size:255;not null" json:"nome_original"`
	Tipo         string `gorm:"size:50;not null;default:outros" json:"tipo"`
	Categoria    string `gorm:"size:30;not null;default:outros" json:"categoria"`

	StorageKey  string `gorm:"size:500;not null" json:"-"`
	ContentType string `gorm:"size:100;not null" json:"content_type"`
	TamanhoBytes int64 `gorm:"not null" json:"tamanho_bytes"`

	// HashSHA256 deduplicates uploads within a tenant.
	HashSHA256 string `gorm:"size:64;not null;index" json:"hash_sha256"`

	// AI pipeline
	StatusIA          string     `gorm:"size:20;not null;default:pendente;index" json:"status_ia"`
	ProcessadoIA      bool       `gorm:"not null;default:false" json:"processado_ia"`
	DadosExtraidos    *string    `gorm:"type:text" json:"dados_extraidos,omitempty"`
	Resumo            *string    `gorm:"type:text" json:"resumo,omitempty"`
	ErroProcessamento *string    `gorm:"type:text" json:"erro_processamento,omitempty"`
	DataProcessamento *time.Time `json:"data_processamento,omitempty"`

	// Embedding holds the JSON-encoded semantic search vector.
	Embedding *string `gorm:"type:text" json:"-"`

	ClienteID *string  `gorm:"type:uuid;index" json:"cliente_id,omitempty"`
	Cliente   *Cliente `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`

	ProcessoID *string   `gorm:"type:uuid;index" json:"processo_id,omitempty"`
	Processo   *Processo `gorm:"foreignKey:ProcessoID" json:"processo,omitempty"`

	EnviadoPorID *string `gorm:"type:uuid" json:"enviado_por_id,omitempty"`
}

// TableName specifies the table name for Documento model
func (Documento) TableName() string {
	return "documentos"
}

// TemEmbedding reports whether the document already has a search vector.
func (d *Documento) TemEmbedding() bool {
	return d.Embedding != nil && *d.Embedding != ""
}

// IsValidStatusIA checks if the AI processing status is valid
func IsValidStatusIA(status string) bool {
	switch status {
	case StatusIAPendente, StatusIAProcessando, StatusIAConcluido, StatusIAErro:
		return true
	}
	return false
}

// IsValidCategoria checks if the document category is valid
func IsValidCategoria(categoria string) bool {
	switch categoria {
	case CategoriaIdentificacao, CategoriaPrevidenciario, CategoriaMedico,
		CategoriaTrabalhista, CategoriaJudicial, CategoriaContratual,
		CategoriaOutros:
		return true
	}
	return false
}
