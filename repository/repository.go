package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"inss_crm_go/apperrors"
)

// TenantEntity is implemented by every model scoped to an escritório.
type TenantEntity interface {
	GetEscritorioID() string
	SetEscritorioID(id string)
}

// ListParams carries pagination and optional column filters for List calls.
type ListParams struct {
	Page     int
	PageSize int
	// Filters are ANDed equality conditions, column name to value.
	Filters map[string]interface{}
	// OrderBy is a raw ORDER BY clause, e.g. "created_at DESC".
	OrderBy string
}

// Normalize clamps pagination to sane bounds.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset returns the row offset for the current page.
func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Repository is a tenant-scoped data access layer. Every query it issues
// carries an escritorio_id condition, so one escritório can never read or
// write another's rows. A row that exists under a different tenant is
// reported as not found, never as forbidden.
type Repository[T any, PT interface {
	*T
	TenantEntity
}] struct {
	db *gorm.DB
}

// New creates a tenant-scoped repository backed by db.
func New[T any, PT interface {
	*T
	TenantEntity
}](db *gorm.DB) *Repository[T, PT] {
	return &Repository[T, PT]{db: db}
}

// Create persists entity under escritorioID. Any tenant already set on the
// entity is overwritten; callers cannot write into another escritório.
func (r *Repository[T, PT]) Create(ctx context.Context, escritorioID string, entity PT) error {
	entity.SetEscritorioID(escritorioID)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// GetByID fetches one row by primary key within the tenant.
func (r *Repository[T, PT]) GetByID(ctx context.Context, escritorioID, id string) (PT, error) {
	var entity T
	err := r.db.WithContext(ctx).
		Where("id = ? AND escritorio_id = ?", id, escritorioID).
		First(&entity).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &entity, nil
}

// GetByIDPreload is GetByID with the named associations eager-loaded.
func (r *Repository[T, PT]) GetByIDPreload(ctx context.Context, escritorioID, id string, preloads ...string) (PT, error) {
	var entity T
	query := r.db.WithContext(ctx).
		Where("id = ? AND escritorio_id = ?", id, escritorioID)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	if err := query.First(&entity).Error; err != nil {
		return nil, translateError(err)
	}
	return &entity, nil
}

// List returns one page of the tenant's rows plus the total count across
// all pages.
func (r *Repository[T, PT]) List(ctx context.Context, escritorioID string, params ListParams) ([]T, int64, error) {
	params.Normalize()

	query := r.db.WithContext(ctx).
		Model(new(T)).
		Where("escritorio_id = ?", escritorioID)
	for column, value := range params.Filters {
		query = query.Where(column+" = ?", value)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	if params.OrderBy != "" {
		query = query.Order(params.OrderBy)
	}

	var entities []T
	err := query.
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&entities).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return entities, total, nil
}

// Count returns how many tenant rows match the filters.
func (r *Repository[T, PT]) Count(ctx context.Context, escritorioID string, filters map[string]interface{}) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(new(T)).
		Where("escritorio_id = ?", escritorioID)
	for column, value := range filters {
		query = query.Where(column+" = ?", value)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

// FindOne returns the first tenant row matching the filters.
func (r *Repository[T, PT]) FindOne(ctx context.Context, escritorioID string, filters map[string]interface{}) (PT, error) {
	var entity T
	query := r.db.WithContext(ctx).
		Where("escritorio_id = ?", escritorioID)
	for column, value := range filters {
		query = query.Where(column+" = ?", value)
	}
	if err := query.First(&entity).Error; err != nil {
		return nil, translateError(err)
	}
	return &entity, nil
}

// Update saves changed fields of an entity previously loaded through this
// repository. The tenant condition guards against cross-tenant writes even
// if the entity was tampered with.
func (r *Repository[T, PT]) Update(ctx context.Context, escritorioID string, entity PT) error {
	result := r.db.WithContext(ctx).
		Where("escritorio_id = ?", escritorioID).
		Save(entity)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("registro")
	}
	return nil
}

// UpdateFields applies a partial column update to one tenant row.
func (r *Repository[T, PT]) UpdateFields(ctx context.Context, escritorioID, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ? AND escritorio_id = ?", id, escritorioID).
		Updates(fields)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("registro")
	}
	return nil
}

// Delete removes one tenant row. Deleting a row that does not exist under
// this tenant returns not found.
func (r *Repository[T, PT]) Delete(ctx context.Context, escritorioID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND escritorio_id = ?", id, escritorioID).
		Delete(new(T))
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("registro")
	}
	return nil
}

// DB exposes the underlying handle for queries the generic surface cannot
// express. Callers are responsible for scoping these by escritorio_id.
func (r *Repository[T, PT]) DB() *gorm.DB {
	return r.db
}

func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound("registro")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict("registro duplicado")
	default:
		return err
	}
}
