package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inss_crm_go/apperrors"
	"inss_crm_go/models"
)

// Claims carries the authenticated identity inside the JWT.
type Claims struct {
	UsuarioID    string `json:"usuario_id"`
	EscritorioID string `json:"escritorio_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and token issuance.
type AuthService struct {
	db          *gorm.DB
	jwtSecret   []byte
	tokenExpiry time.Duration
}

// NewAuthService creates an auth service.
func NewAuthService(db *gorm.DB, jwtSecret string, tokenExpiryMinutes int) *AuthService {
	return &AuthService{
		db:          db,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: time.Duration(tokenExpiryMinutes) * time.Minute,
	}
}

// RegisterEscritorioRequest creates a new tenant with its first admin user.
type RegisterEscritorioRequest struct {
	EscritorioNome string  `json:"escritorio_nome"`
	CNPJ           *string `json:"cnpj,omitempty"`
	AdminNome      string  `json:"admin_nome"`
	AdminEmail     string  `json:"admin_email"`
	AdminPassword  string  `json:"admin_password"`
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the issued token and the authenticated user.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Usuario   *models.Usuario `json:"usuario"`
}

// RegisterEscritorio creates an escritório and its admin user in one
// transaction. The admin can then invite the rest of the team.
func (s *AuthService) RegisterEscritorio(ctx context.Context, req RegisterEscritorioRequest) (*models.Usuario, error) {
	if req.EscritorioNome == "" || req.AdminNome == "" || req.AdminEmail == "" {
		return nil, apperrors.Validation("nome do escritório, nome e email do administrador são obrigatórios")
	}
	if len(req.AdminPassword) < 8 {
		return nil, apperrors.Validation("senha deve ter pelo menos 8 caracteres")
	}
	if req.CNPJ != nil && *req.CNPJ != "" && !ValidarCNPJ(*req.CNPJ) {
		return nil, apperrors.Validation("CNPJ inválido")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var usuario *models.Usuario
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		escritorio := &models.Escritorio{
			Nome:  req.EscritorioNome,
			CNPJ:  req.CNPJ,
			Email: strings.ToLower(req.AdminEmail),
		}
		if err := tx.Create(escritorio).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("CNPJ já cadastrado")
			}
			return err
		}

		usuario = &models.Usuario{
			Email:          strings.ToLower(req.AdminEmail),
			HashedPassword: string(hashed),
			Nome:           req.AdminNome,
			Role:           models.RoleAdmin,
			IsActive:       true,
		}
		usuario.EscritorioID = escritorio.ID
		if err := tx.Create(usuario).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("email já cadastrado")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usuario, nil
}

// Login verifies credentials and issues a signed token. Invalid email,
// wrong password and inactive account all return the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var usuario models.Usuario
	err := s.db.WithContext(ctx).
		Preload("Escritorio").
		Where("email = ?", strings.ToLower(req.Email)).
		First(&usuario).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	// Usuário e escritório precisam estar ativos.
	if !usuario.IsActive || !usuario.Escritorio.IsActive {
		return nil, apperrors.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(usuario.HashedPassword), []byte(req.Password)) != nil {
		return nil, apperrors.ErrUnauthorized
	}

	token, expiresAt, err := s.GenerateToken(&usuario)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, Usuario: &usuario}, nil
}

// GenerateToken issues an HS256 token for a user.
func (s *AuthService) GenerateToken(usuario *models.Usuario) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.tokenExpiry)
	claims := &Claims{
		UsuarioID:    usuario.ID,
		EscritorioID: usuario.EscritorioID,
		Email:        usuario.Email,
		Role:         usuario.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usuario.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, escritorioID, usuarioID, senhaAtual, senhaNova string) error {
	if len(senhaNova) < 8 {
		return apperrors.Validation("senha deve ter pelo menos 8 caracteres")
	}

	var usuario models.Usuario
	err := s.db.WithContext(ctx).
		Where("id = ? AND escritorio_id = ?", usuarioID, escritorioID).
		First(&usuario).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("usuário")
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(usuario.HashedPassword), []byte(senhaAtual)) != nil {
		return apperrors.ErrUnauthorized
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(senhaNova), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.db.WithContext(ctx).
		Model(&usuario).
		Update("hashed_password", string(hashed)).Error
}
