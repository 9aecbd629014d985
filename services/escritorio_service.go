package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
)

// EscritorioService manages tenant settings and team membership. Only
// admins reach these operations; the handlers enforce that.
type EscritorioService struct {
	db    *gorm.DB
	email *EmailService
}

// NewEscritorioService creates a tenant service.
func NewEscritorioService(db *gorm.DB, email *EmailService) *EscritorioService {
	return &EscritorioService{db: db, email: email}
}

// GetEscritorio fetches the caller's own tenant.
func (s *EscritorioService) GetEscritorio(ctx context.Context, escritorioID string) (*models.Escritorio, error) {
	var escritorio models.Escritorio
	err := s.db.WithContext(ctx).First(&escritorio, "id = ?", escritorioID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("escritório")
		}
		return nil, err
	}
	return &escritorio, nil
}

// UpdateEscritorioRequest carries the tenant fields an admin may change.
type UpdateEscritorioRequest struct {
	Nome        *string `json:"nome,omitempty"`
	RazaoSocial *string `json:"razao_social,omitempty"`
	CNPJ        *string `json:"cnpj,omitempty"`
	Telefone    *string `json:"telefone,omitempty"`
	Endereco    *string `json:"endereco,omitempty"`
	Cidade      *string `json:"cidade,omitempty"`
	Estado      *string `json:"estado,omitempty"`
	CEP         *string `json:"cep,omitempty"`
}

// UpdateEscritorio applies a partial update to the tenant record.
func (s *EscritorioService) UpdateEscritorio(ctx context.Context, escritorioID string, req UpdateEscritorioRequest) (*models.Escritorio, error) {
	escritorio, err := s.GetEscritorio(ctx, escritorioID)
	if err != nil {
		return nil, err
	}

	if req.CNPJ != nil && *req.CNPJ != "" {
		if !ValidarCNPJ(*req.CNPJ) {
			return nil, apperrors.Validation("CNPJ inválido")
		}
		digitos := ApenasDigitos(*req.CNPJ)
		escritorio.CNPJ = &digitos
	}
	if req.Nome != nil && *req.Nome != "" {
		escritorio.Nome = *req.Nome
	}
	if req.RazaoSocial != nil {
		escritorio.RazaoSocial = req.RazaoSocial
	}
	if req.Telefone != nil {
		escritorio.Telefone = req.Telefone
	}
	if req.Endereco != nil {
		escritorio.Endereco = req.Endereco
	}
	if req.Cidade != nil {
		escritorio.Cidade = req.Cidade
	}
	if req.Estado != nil {
		escritorio.Estado = req.Estado
	}
	if req.CEP != nil {
		escritorio.CEP = req.CEP
	}

	if err := s.db.WithContext(ctx).Save(escritorio).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("CNPJ já cadastrado")
		}
		return nil, err
	}
	return escritorio, nil
}

// SetAtivo suspends or reinstates the whole tenant. A suspended tenant
// keeps its data; logins are rejected until reactivation.
func (s *EscritorioService) SetAtivo(ctx context.Context, escritorioID string, ativo bool) error {
	escritorio, err := s.GetEscritorio(ctx, escritorioID)
	if err != nil {
		return err
	}
	if escritorio.IsActive == ativo {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(escritorio).
		Update("is_active", ativo).Error
}

// CreateUsuarioRequest carries the fields accepted when inviting a team
// member.
type CreateUsuarioRequest struct {
	Nome      string  `json:"nome"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	CPF       *string `json:"cpf,omitempty"`
	Telefone  *string `json:"telefone,omitempty"`
	OABNumero *string `json:"oab_numero,omitempty"`
	OABEstado *string `json:"oab_estado,omitempty"`
}

// CreateUsuario adds a team member to the tenant and sends a welcome email.
func (s *EscritorioService) CreateUsuario(ctx context.Context, escritorioID string, req CreateUsuarioRequest) (*models.Usuario, error) {
	if req.Nome == "" || req.Email == "" {
		return nil, apperrors.Validation("nome e email são obrigatórios")
	}
	if len(req.Password) < 8 {
		return nil, apperrors.Validation("senha deve ter pelo menos 8 caracteres")
	}
	if !models.IsValidRole(req.Role) {
		return nil, apperrors.Validation("role inválida: %s", req.Role)
	}
	if req.CPF != nil && *req.CPF != "" && !ValidarCPF(*req.CPF) {
		return nil, apperrors.Validation("CPF inválido")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	usuario := &models.Usuario{
		Email:          strings.ToLower(req.Email),
		HashedPassword: string(hashed),
		Nome:           req.Nome,
		Role:           req.Role,
		CPF:            req.CPF,
		Telefone:       req.Telefone,
		OABNumero:      req.OABNumero,
		OABEstado:      req.OABEstado,
		IsActive:       true,
	}
	usuario.EscritorioID = escritorioID
	if err := s.db.WithContext(ctx).Create(usuario).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("email já cadastrado")
		}
		return nil, err
	}

	if s.email != nil {
		escritorio, err := s.GetEscritorio(ctx, escritorioID)
		if err == nil {
			// Best effort; account creation stands even if the email fails.
			_ = s.email.Send(BuildBoasVindasEmail(usuario.Email, usuario.Nome, escritorio.Nome))
		}
	}
	return usuario, nil
}

// ListUsuarios returns the tenant's team.
func (s *EscritorioService) ListUsuarios(ctx context.Context, escritorioID string) ([]models.Usuario, error) {
	var usuarios []models.Usuario
	err := s.db.WithContext(ctx).
		Where("escritorio_id = ?", escritorioID).
		Order("nome ASC").
		Find(&usuarios).Error
	if err != nil {
		return nil, err
	}
	return usuarios, nil
}

// GetUsuario fetches one team member within the tenant.
func (s *EscritorioService) GetUsuario(ctx context.Context, escritorioID, usuarioID string) (*models.Usuario, error) {
	var usuario models.Usuario
	err := s.db.WithContext(ctx).
		Where("id = ? AND escritorio_id = ?", usuarioID, escritorioID).
		First(&usuario).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("usuário")
		}
		return nil, err
	}
	return &usuario, nil
}

// SetUsuarioAtivo activates or deactivates a team member. The last active
// admin cannot be deactivated.
func (s *EscritorioService) SetUsuarioAtivo(ctx context.Context, escritorioID, usuarioID string, ativo bool) error {
	usuario, err := s.GetUsuario(ctx, escritorioID, usuarioID)
	if err != nil {
		return err
	}

	if !ativo && usuario.IsAdmin() {
		var admins int64
		err := s.db.WithContext(ctx).
			Model(&models.Usuario{}).
			Where("escritorio_id = ? AND role = ? AND is_active = ?", escritorioID, models.RoleAdmin, true).
			Count(&admins).Error
		if err != nil {
			return err
		}
		if admins <= 1 {
			return apperrors.Conflict("não é possível desativar o último administrador")
		}
	}

	return s.db.WithContext(ctx).
		Model(usuario).
		Update("is_active", ativo).Error
}
