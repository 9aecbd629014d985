package models

import "time"

// Benefit type constants (tipos de benefício previdenciário)
const (
	BeneficioAposentadoriaIdade             = "aposentadoria_idade"
	BeneficioAposentadoriaTempoContribuicao = "aposentadoria_tempo_contribuicao"
	BeneficioAposentadoriaEspecial          = "aposentadoria_especial"
	BeneficioAposentadoriaRural             = "aposentadoria_rural"
	BeneficioAposentadoriaInvalidez         = "aposentadoria_invalidez"
	BeneficioAuxilioDoenca                  = "auxilio_doenca"
	BeneficioAuxilioAcidente                = "auxilio_acidente"
	BeneficioBPCLoas                        = "bpc_loas"
	BeneficioPensaoMorte                    = "pensao_morte"
	BeneficioSalarioMaternidade             = "salario_maternidade"
	BeneficioRevisao                        = "revisao_beneficio"
)

// Procedural phase constants, in order
const (
	FaseAdministrativo    = "administrativo"
	FasePrimeiraInstancia = "primeira_instancia"
	FaseSegundaInstancia  = "segunda_instancia"
	FaseTribunalSuperior  = "tribunal_superior"
	FaseExecucao          = "execucao"
	FaseEncerrado         = "encerrado"
)

// faseOrdem maps each phase to its position in the procedural ladder.
var faseOrdem = map[string]int{
	FaseAdministrativo:    0,
	FasePrimeiraInstancia: 1,
	FaseSegundaInstancia:  2,
	FaseTribunalSuperior:  3,
	FaseExecucao:          4,
	FaseEncerrado:         5,
}

// Deadline status constants
const (
	PrazoPendente  = "pendente"
	PrazoCumprido  = "cumprido"
	PrazoCancelado = "cancelado"
	PrazoPerdido   = "perdido"
)

// Deadline type constants
const (
	TipoPrazoContestacao  = "contestacao"
	TipoPrazoRecurso      = "recurso"
	TipoPrazoManifestacao = "manifestacao"
	TipoPrazoPericia      = "pericia"
	TipoPrazoAudiencia    = "audiencia"
	TipoPrazoJuntada      = "juntada_documentos"
	TipoPrazoOutros       = "outros"
)

// Processo is a judicial or administrative INSS benefit case.
type Processo struct {
	TenantModel

	// Identificação
	NumeroCNJ            *string `gorm:"size:25;uniqueIndex" json:"numero_cnj,omitempty"`
	NumeroAdministrativo *string `gorm:"size:30;index" json:"numero_administrativo,omitempty"`

	TipoBeneficio string `gorm:"size:50;not null" json:"tipo_beneficio"`
	Fase          string `gorm:"size:30;not null;default:administrativo;index" json:"fase"`

	// Localização
	Tribunal    *string `gorm:"size:20" json:"tribunal,omitempty"`
	Vara        *string `gorm:"size:100" json:"vara,omitempty"`
	AgenciaINSS *string `gorm:"size:100" json:"agencia_inss,omitempty"`

	// Datas
	DataEntrada  time.Time  `gorm:"not null" json:"data_entrada"`
	DataSentenca *time.Time `json:"data_sentenca,omitempty"`

	// Valores em centavos
	ValorCausaCentavos      *int64 `json:"valor_causa_centavos,omitempty"`
	ValorCondenacaoCentavos *int64 `json:"valor_condenacao_centavos,omitempty"`

	Objeto      *string `gorm:"type:text" json:"objeto,omitempty"`
	Observacoes *string `gorm:"type:text" json:"observacoes,omitempty"`

	IsActive   bool    `gorm:"not null;default:true" json:"is_active"`
	IsArchived bool    `gorm:"not null;default:false" json:"is_archived"`
	Resultado  *string `gorm:"size:50" json:"resultado,omitempty"`

	// Cliente (autor/requerente)
	ClienteID string  `gorm:"type:uuid;not null;index" json:"cliente_id"`
	Cliente   Cliente `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`

	// Advogado responsável
	AdvogadoResponsavelID *string  `gorm:"type:uuid" json:"advogado_responsavel_id,omitempty"`
	AdvogadoResponsavel   *Usuario `gorm:"foreignKey:AdvogadoResponsavelID" json:"advogado_responsavel,omitempty"`

	// Relationships
	Prazos     []Prazo     `gorm:"foreignKey:ProcessoID" json:"prazos,omitempty"`
	Andamentos []Andamento `gorm:"foreignKey:ProcessoID" json:"andamentos,omitempty"`
	Documentos []Documento `gorm:"foreignKey:ProcessoID" json:"documentos,omitempty"`
}

// TableName specifies the table name for Processo model
func (Processo) TableName() string {
	return "processos"
}

// NumeroPrincipal returns the CNJ number, falling back to the INSS
// administrative number.
func (p *Processo) NumeroPrincipal() string {
	if p.NumeroCNJ != nil && *p.NumeroCNJ != "" {
		return *p.NumeroCNJ
	}
	if p.NumeroAdministrativo != nil && *p.NumeroAdministrativo != "" {
		return *p.NumeroAdministrativo
	}
	return "sem número"
}

// IsValidTipoBeneficio checks if the benefit type is valid
func IsValidTipoBeneficio(tipo string) bool {
	switch tipo {
	case BeneficioAposentadoriaIdade, BeneficioAposentadoriaTempoContribuicao,
		BeneficioAposentadoriaEspecial, BeneficioAposentadoriaRural,
		BeneficioAposentadoriaInvalidez, BeneficioAuxilioDoenca,
		BeneficioAuxilioAcidente, BeneficioBPCLoas, BeneficioPensaoMorte,
		BeneficioSalarioMaternidade, BeneficioRevisao:
		return true
	}
	return false
}

// IsValidFase checks if the procedural phase is valid
func IsValidFase(fase string) bool {
	_, ok := faseOrdem[fase]
	return ok
}

// FasePosterior reports whether nova comes after atual in the procedural
// ladder. Equal phases are not posterior.
func FasePosterior(atual, nova string) bool {
	return faseOrdem[nova] > faseOrdem[atual]
}

// Prazo is a procedural deadline. Missing one can cause irreparable harm to
// the client, so deadlines drive the notification pipeline.
type Prazo struct {
	TenantModel

	ProcessoID string   `gorm:"type:uuid;not null;index" json:"processo_id"`
	Processo   Processo `gorm:"foreignKey:ProcessoID" json:"processo,omitempty"`

	Tipo      string `gorm:"size:30;not null" json:"tipo"`
	Descricao string `gorm:"size:500;not null" json:"descricao"`

	// DataFatal is the hard due date; DataAlerta is when the responsible
	// user should start being warned.
	DataFatal  time.Time  `gorm:"not null;index" json:"data_fatal"`
	DataAlerta *time.Time `json:"data_alerta,omitempty"`

	Status string `gorm:"size:20;not null;default:pendente;index" json:"status"`

	DataCumprimento *time.Time `json:"data_cumprimento,omitempty"`
	CumpridoPorID   *string    `gorm:"type:uuid" json:"cumprido_por_id,omitempty"`

	ResponsavelID *string  `gorm:"type:uuid" json:"responsavel_id,omitempty"`
	Responsavel   *Usuario `gorm:"foreignKey:ResponsavelID" json:"responsavel,omitempty"`

	NotificacaoEnviada bool `gorm:"not null;default:false" json:"notificacao_enviada"`

	Observacoes *string `gorm:"type:text" json:"observacoes,omitempty"`
}

// TableName specifies the table name for Prazo model
func (Prazo) TableName() string {
	return "prazos"
}

// IsTerminal reports whether the deadline reached a final status.
func (p *Prazo) IsTerminal() bool {
	return p.Status != PrazoPendente
}

// DiasRestantes returns days until the due date. Zero for terminal deadlines.
func (p *Prazo) DiasRestantes() int {
	if p.IsTerminal() {
		return 0
	}
	return int(time.Until(p.DataFatal).Hours() / 24)
}

// IsValidStatusPrazo checks if the deadline status is valid
func IsValidStatusPrazo(status string) bool {
	switch status {
	case PrazoPendente, PrazoCumprido, PrazoCancelado, PrazoPerdido:
		return true
	}
	return false
}

// Andamento is a case event. IsPublic controls client visibility.
type Andamento struct {
	TenantModel

	ProcessoID string   `gorm:"type:uuid;not null;index" json:"processo_id"`
	Processo   Processo `gorm:"foreignKey:ProcessoID" json:"processo,omitempty"`

	Data      time.Time `gorm:"not null;index" json:"data"`
	Descricao string    `gorm:"type:text;not null" json:"descricao"`

	// Fonte: manual, sistema
	Fonte    string `gorm:"size:50;not null;default:manual" json:"fonte"`
	IsPublic bool   `gorm:"not null;default:true" json:"is_public"`

	RegistradoPorID *string `gorm:"type:uuid" json:"registrado_por_id,omitempty"`
}

// TableName specifies the table name for Andamento model
func (Andamento) TableName() string {
	return "andamentos"
}
