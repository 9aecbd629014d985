package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
	"inss_crm_go/repository"
)

// ClienteService implements client lifecycle rules: CPF validation,
// duplicate detection within the tenant and LGPD consent tracking.
type ClienteService struct {
	repo *repository.Repository[models.Cliente, *models.Cliente]
}

// NewClienteService creates a client service.
func NewClienteService(db *gorm.DB) *ClienteService {
	return &ClienteService{repo: repository.New[models.Cliente](db)}
}

// CreateClienteRequest carries the fields accepted on client creation.
type CreateClienteRequest struct {
	Nome           string     `json:"nome"`
	CPF            *string    `json:"cpf,omitempty"`
	RG             *string    `json:"rg,omitempty"`
	DataNascimento *time.Time `json:"data_nascimento,omitempty"`
	Sexo           *string    `json:"sexo,omitempty"`
	NomeMae        *string    `json:"nome_mae,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Telefone       *string    `json:"telefone,omitempty"`
	CEP            *string    `json:"cep,omitempty"`
	Logradouro     *string    `json:"logradouro,omitempty"`
	Numero         *string    `json:"numero,omitempty"`
	Bairro         *string    `json:"bairro,omitempty"`
	Cidade         *string    `json:"cidade,omitempty"`
	Estado         *string    `json:"estado,omitempty"`
	NITPisPasep    *string    `json:"nit_pis_pasep,omitempty"`
	Profissao      *string    `json:"profissao,omitempty"`
	Observacoes    *string    `json:"observacoes,omitempty"`

	ConsentimentoLGPD bool `json:"consentimento_lgpd"`
}

// UpdateClienteRequest carries partial updates. Nil fields are left as is.
type UpdateClienteRequest struct {
	Nome           *string    `json:"nome,omitempty"`
	CPF            *string    `json:"cpf,omitempty"`
	RG             *string    `json:"rg,omitempty"`
	DataNascimento *time.Time `json:"data_nascimento,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Telefone       *string    `json:"telefone,omitempty"`
	CEP            *string    `json:"cep,omitempty"`
	Logradouro     *string    `json:"logradouro,omitempty"`
	Numero         *string    `json:"numero,omitempty"`
	Bairro         *string    `json:"bairro,omitempty"`
	Cidade         *string    `json:"cidade,omitempty"`
	Estado         *string    `json:"estado,omitempty"`
	NITPisPasep    *string    `json:"nit_pis_pasep,omitempty"`
	Profissao      *string    `json:"profissao,omitempty"`
	Observacoes    *string    `json:"observacoes,omitempty"`
}

// Create validates and persists a new client. A CPF, when present, must
// pass the checksum and be unique within the escritório.
func (s *ClienteService) Create(ctx context.Context, escritorioID string, req CreateClienteRequest) (*models.Cliente, error) {
	if req.Nome == "" {
		return nil, apperrors.Validation("nome é obrigatório")
	}

	var cpfNormalizado *string
	if req.CPF != nil && *req.CPF != "" {
		if !ValidarCPF(*req.CPF) {
			return nil, apperrors.Validation("CPF inválido")
		}
		digitos := ApenasDigitos(*req.CPF)
		cpfNormalizado = &digitos

		existente, err := s.repo.FindOne(ctx, escritorioID, map[string]interface{}{"cpf": digitos})
		if err == nil && existente != nil {
			return nil, apperrors.Conflict("cliente com este CPF já cadastrado")
		}
		if err != nil && !isNotFound(err) {
			return nil, err
		}
	}

	cliente := &models.Cliente{
		Nome:           req.Nome,
		CPF:            cpfNormalizado,
		RG:             req.RG,
		DataNascimento: req.DataNascimento,
		Sexo:           req.Sexo,
		NomeMae:        req.NomeMae,
		Email:          req.Email,
		Telefone:       req.Telefone,
		CEP:            req.CEP,
		Logradouro:     req.Logradouro,
		Numero:         req.Numero,
		Bairro:         req.Bairro,
		Cidade:         req.Cidade,
		Estado:         req.Estado,
		NITPisPasep:    req.NITPisPasep,
		Profissao:      req.Profissao,
		Observacoes:    req.Observacoes,
		IsActive:       true,
	}
	if req.ConsentimentoLGPD {
		agora := time.Now()
		cliente.ConsentimentoLGPD = true
		cliente.DataConsentimento = &agora
	}

	if err := s.repo.Create(ctx, escritorioID, cliente); err != nil {
		return nil, err
	}
	return cliente, nil
}

// GetByID fetches one client within the tenant.
func (s *ClienteService) GetByID(ctx context.Context, escritorioID, id string) (*models.Cliente, error) {
	return s.repo.GetByID(ctx, escritorioID, id)
}

// List pages through the tenant's clients, actives only by default.
func (s *ClienteService) List(ctx context.Context, escritorioID string, page, pageSize int, incluirInativos bool) ([]models.Cliente, int64, error) {
	params := repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  "nome ASC",
	}
	if !incluirInativos {
		params.Filters = map[string]interface{}{"is_active": true}
	}
	return s.repo.List(ctx, escritorioID, params)
}

// Search filters clients by name substring within the tenant.
func (s *ClienteService) Search(ctx context.Context, escritorioID, termo string, page, pageSize int) ([]models.Cliente, int64, error) {
	params := repository.ListParams{Page: page, PageSize: pageSize}
	params.Normalize()

	query := s.repo.DB().WithContext(ctx).
		Model(&models.Cliente{}).
		Where("escritorio_id = ? AND is_active = ?", escritorioID, true).
		Where("nome LIKE ?", "%"+termo+"%")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clientes []models.Cliente
	err := query.Order("nome ASC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&clientes).Error
	if err != nil {
		return nil, 0, err
	}
	return clientes, total, nil
}

// Update applies a partial update to one client.
func (s *ClienteService) Update(ctx context.Context, escritorioID, id string, req UpdateClienteRequest) (*models.Cliente, error) {
	cliente, err := s.repo.GetByID(ctx, escritorioID, id)
	if err != nil {
		return nil, err
	}

	if req.CPF != nil && *req.CPF != "" {
		if !ValidarCPF(*req.CPF) {
			return nil, apperrors.Validation("CPF inválido")
		}
		digitos := ApenasDigitos(*req.CPF)
		if cliente.CPF == nil || *cliente.CPF != digitos {
			existente, err := s.repo.FindOne(ctx, escritorioID, map[string]interface{}{"cpf": digitos})
			if err == nil && existente != nil && existente.ID != id {
				return nil, apperrors.Conflict("cliente com este CPF já cadastrado")
			}
			if err != nil && !isNotFound(err) {
				return nil, err
			}
		}
		cliente.CPF = &digitos
	}
	if req.Nome != nil && *req.Nome != "" {
		cliente.Nome = *req.Nome
	}
	if req.RG != nil {
		cliente.RG = req.RG
	}
	if req.DataNascimento != nil {
		cliente.DataNascimento = req.DataNascimento
	}
	if req.Email != nil {
		cliente.Email = req.Email
	}
	if req.Telefone != nil {
		cliente.Telefone = req.Telefone
	}
	if req.CEP != nil {
		cliente.CEP = req.CEP
	}
	if req.Logradouro != nil {
		cliente.Logradouro = req.Logradouro
	}
	if req.Numero != nil {
		cliente.Numero = req.Numero
	}
	if req.Bairro != nil {
		cliente.Bairro = req.Bairro
	}
	if req.Cidade != nil {
		cliente.Cidade = req.Cidade
	}
	if req.Estado != nil {
		cliente.Estado = req.Estado
	}
	if req.NITPisPasep != nil {
		cliente.NITPisPasep = req.NITPisPasep
	}
	if req.Profissao != nil {
		cliente.Profissao = req.Profissao
	}
	if req.Observacoes != nil {
		cliente.Observacoes = req.Observacoes
	}

	if err := s.repo.Update(ctx, escritorioID, cliente); err != nil {
		return nil, err
	}
	return cliente, nil
}

// DadosIdentidade carries personal data read from an identity document.
// Nil fields were not found in the document.
type DadosIdentidade struct {
	CPF            *string
	RG             *string
	RGOrgaoEmissor *string
	DataNascimento *time.Time
	Sexo           *string
	NomeMae        *string
	NomePai        *string
	Naturalidade   *string
}

// PreencherDesdeDocumento fills in the client fields that are still empty,
// using data extracted from an identity document. Values already on the
// record are never overwritten. A CPF that fails validation or belongs to
// another client is skipped, not an error. Returns how many fields changed.
func (s *ClienteService) PreencherDesdeDocumento(ctx context.Context, escritorioID, id string, dados DadosIdentidade) (int, error) {
	cliente, err := s.repo.GetByID(ctx, escritorioID, id)
	if err != nil {
		return 0, err
	}

	campos := map[string]interface{}{}
	if dados.CPF != nil && cliente.CPF == nil && ValidarCPF(*dados.CPF) {
		digitos := ApenasDigitos(*dados.CPF)
		existente, err := s.repo.FindOne(ctx, escritorioID, map[string]interface{}{"cpf": digitos})
		if err != nil && !isNotFound(err) {
			return 0, err
		}
		if existente == nil {
			campos["cpf"] = digitos
		}
	}
	if dados.RG != nil && cliente.RG == nil {
		campos["rg"] = *dados.RG
	}
	if dados.RGOrgaoEmissor != nil && cliente.RGOrgaoEmissor == nil {
		campos["rg_orgao_emissor"] = *dados.RGOrgaoEmissor
	}
	if dados.DataNascimento != nil && cliente.DataNascimento == nil {
		campos["data_nascimento"] = *dados.DataNascimento
	}
	if dados.Sexo != nil && cliente.Sexo == nil && (*dados.Sexo == "M" || *dados.Sexo == "F") {
		campos["sexo"] = *dados.Sexo
	}
	if dados.NomeMae != nil && cliente.NomeMae == nil {
		campos["nome_mae"] = *dados.NomeMae
	}
	if dados.NomePai != nil && cliente.NomePai == nil {
		campos["nome_pai"] = *dados.NomePai
	}
	if dados.Naturalidade != nil && cliente.Naturalidade == nil {
		campos["naturalidade"] = *dados.Naturalidade
	}
	if len(campos) == 0 {
		return 0, nil
	}

	if err := s.repo.UpdateFields(ctx, escritorioID, id, campos); err != nil {
		return 0, err
	}
	return len(campos), nil
}

// RegistrarConsentimento records LGPD consent with its timestamp.
func (s *ClienteService) RegistrarConsentimento(ctx context.Context, escritorioID, id string) (*models.Cliente, error) {
	cliente, err := s.repo.GetByID(ctx, escritorioID, id)
	if err != nil {
		return nil, err
	}
	if cliente.ConsentimentoLGPD {
		return cliente, nil
	}
	agora := time.Now()
	err = s.repo.UpdateFields(ctx, escritorioID, id, map[string]interface{}{
		"consentimento_lgpd": true,
		"data_consentimento": agora,
	})
	if err != nil {
		return nil, err
	}
	cliente.ConsentimentoLGPD = true
	cliente.DataConsentimento = &agora
	return cliente, nil
}

// Deactivate soft-deletes a client. The row is retained for legal holds.
func (s *ClienteService) Deactivate(ctx context.Context, escritorioID, id string) error {
	return s.repo.UpdateFields(ctx, escritorioID, id, map[string]interface{}{"is_active": false})
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
