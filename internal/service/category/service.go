// Package category implements category rules: per-user unique names and a
// delete guard while transactions still reference the category. Categories
// label transactions; they take no part in balance arithmetic.
package category

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/errs"
	"github.com/financehero/ledger/internal/finance"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListCategories(ctx context.Context, userID uuid.UUID, typ finance.CategoryType, includeInactive bool) ([]finance.Category, error)
	GetCategory(ctx context.Context, userID, categoryID uuid.UUID) (finance.Category, error)
	CountTransactionsByCategory(ctx context.Context, userID, categoryID uuid.UUID) (int, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateCategory(ctx context.Context, c finance.Category) (finance.Category, error)
	UpdateCategory(ctx context.Context, c finance.Category) (finance.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
}

// Service exposes category management.
type Service interface {
	Create(ctx context.Context, c finance.Category) (finance.Category, error)
	List(ctx context.Context, userID uuid.UUID, typ finance.CategoryType, includeInactive bool) ([]finance.Category, error)
	Get(ctx context.Context, userID, categoryID uuid.UUID) (finance.Category, error)
	Update(ctx context.Context, c finance.Category) (finance.Category, error)
	Delete(ctx context.Context, userID, categoryID uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func validate(c finance.Category) error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", errs.ErrInvalid)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", errs.ErrInvalid)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: invalid category type %q", errs.ErrInvalid, c.Type)
	}
	return nil
}

func (s *service) Create(ctx context.Context, c finance.Category) (finance.Category, error) {
	if err := validate(c); err != nil {
		return finance.Category{}, err
	}
	if err := s.ensureUniqueName(ctx, c.UserID, c.Name, uuid.Nil); err != nil {
		return finance.Category{}, err
	}
	c.ID = uuid.New()
	c.Active = true
	c.CreatedAt = time.Now().UTC()
	return s.writer.CreateCategory(ctx, c)
}

func (s *service) List(ctx context.Context, userID uuid.UUID, typ finance.CategoryType, includeInactive bool) ([]finance.Category, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", errs.ErrInvalid)
	}
	return s.repo.ListCategories(ctx, userID, typ, includeInactive)
}

func (s *service) Get(ctx context.Context, userID, categoryID uuid.UUID) (finance.Category, error) {
	if userID == uuid.Nil || categoryID == uuid.Nil {
		return finance.Category{}, fmt.Errorf("%w: user_id and id are required", errs.ErrInvalid)
	}
	return s.repo.GetCategory(ctx, userID, categoryID)
}

func (s *service) Update(ctx context.Context, c finance.Category) (finance.Category, error) {
	if c.UserID == uuid.Nil || c.ID == uuid.Nil {
		return finance.Category{}, fmt.Errorf("%w: user_id and id are required", errs.ErrInvalid)
	}
	if err := validate(c); err != nil {
		return finance.Category{}, err
	}
	current, err := s.repo.GetCategory(ctx, c.UserID, c.ID)
	if err != nil {
		return finance.Category{}, err
	}
	if !strings.EqualFold(current.Name, c.Name) {
		if err := s.ensureUniqueName(ctx, c.UserID, c.Name, c.ID); err != nil {
			return finance.Category{}, err
		}
	}
	current.Name = c.Name
	current.Type = c.Type
	current.Description = c.Description
	current.Color = c.Color
	current.Icon = c.Icon
	current.Active = c.Active
	return s.writer.UpdateCategory(ctx, current)
}

// Delete removes a category that no transaction references.
func (s *service) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	if userID == uuid.Nil || categoryID == uuid.Nil {
		return fmt.Errorf("%w: user_id and id are required", errs.ErrInvalid)
	}
	if _, err := s.repo.GetCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	n, err := s.repo.CountTransactionsByCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category is referenced by %d transaction(s)", errs.ErrConflict, n)
	}
	return s.writer.DeleteCategory(ctx, userID, categoryID)
}

func (s *service) ensureUniqueName(ctx context.Context, userID uuid.UUID, name string, selfID uuid.UUID) error {
	existing, err := s.repo.ListCategories(ctx, userID, "", true)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == selfID {
			continue
		}
		if strings.EqualFold(other.Name, name) {
			return fmt.Errorf("%w: a category named %q already exists", errs.ErrConflict, name)
		}
	}
	return nil
}
