package service

import (
	"context"
	"strconv"
	"strings"

	"memorial-service/internal/models"
	"memorial-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	memorialListLimit = 200
	productSearchMax  = 50
)

type productService struct {
	repo   *repository.Repository
	withTx txFunc
	log    *zap.Logger
}

func NewProductService(repo *repository.Repository, log *zap.Logger) ProductService {
	return &productService{repo: repo, withTx: repo.WithTx, log: log}
}

func (s *productService) ListMemorial(ctx context.Context, t *models.ProductType) ([]models.Product, error) {
	types := models.MemorialProductTypes
	if t != nil {
		if !t.Valid() {
			return nil, invalid("type", "must be one of tree, flower, gift")
		}
		types = []models.ProductType{*t}
	}
	list, _, err := s.repo.Products.List(ctx, repository.ProductListFilter{
		Types:      types,
		OnlyActive: true,
		Limit:      memorialListLimit,
	})
	return list, err
}

func (s *productService) SearchByName(ctx context.Context, name string) ([]models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []models.Product{}, nil
	}
	list, _, err := s.repo.Products.List(ctx, repository.ProductListFilter{
		Name:       name,
		OnlyActive: true,
		Limit:      productSearchMax,
	})
	return list, err
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.repo.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *productService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.repo.Products.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *productService) ListAll(ctx context.Context, page, perPage int) ([]models.Product, int64, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPageLimit
	}
	return s.repo.Products.List(ctx, repository.ProductListFilter{Limit: perPage, Offset: (page - 1) * perPage})
}

func (s *productService) AdminGet(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	p, err := s.repo.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// buildVariants проверяет варианты и оставляет ровно один вариант по умолчанию.
func buildVariants(in []VariantInput) ([]models.ProductVariant, error) {
	out := make([]models.ProductVariant, 0, len(in))
	defaultIdx := -1
	for i, v := range in {
		field := "variants[" + strconv.Itoa(i) + "]"
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return nil, invalid(field+".name", "is required")
		}
		if v.Price.IsNegative() {
			return nil, invalid(field+".price", "must be >= 0")
		}
		qty := v.Quantity
		if qty <= 0 {
			qty = 1
		}
		active := v.IsActive == nil || *v.IsActive
		pv := models.ProductVariant{
			Name:           name,
			Quantity:       qty,
			Price:          v.Price.Round(2),
			CompareAtPrice: v.CompareAtPrice,
			SKU:            strings.TrimSpace(v.SKU),
			IsActive:       active,
			Position:       int32(i),
		}
		if v.IsDefault && defaultIdx < 0 {
			pv.IsDefault = true
			defaultIdx = i
		}
		out = append(out, pv)
	}
	if defaultIdx < 0 {
		for i := range out {
			if out[i].IsActive {
				out[i].IsDefault = true
				break
			}
		}
	}
	return out, nil
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	sku, name := strings.TrimSpace(in.SKU), strings.TrimSpace(in.Name)
	if sku == "" || name == "" || len(in.Variants) == 0 {
		return nil, invalid("product", "Required fields missing.")
	}
	ptype := in.Type
	if ptype == "" {
		ptype = models.ProductTypeTree
	}
	if !ptype.Valid() {
		return nil, invalid("type", "must be one of tree, flower, gift")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return nil, invalid("stock", "must be >= 0")
	}

	existing, err := s.repo.Products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSKUAlreadyExists
	}

	variants, err := buildVariants(in.Variants)
	if err != nil {
		return nil, err
	}

	base := Slugify(in.Slug)
	if base == "" {
		base = Slugify(name)
	}
	slug, err := uniqueSlug(ctx, base, s.repo.Products.SlugExists)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		SKU:         sku,
		Name:        name,
		Slug:        slug,
		Type:        ptype,
		Description: strings.TrimSpace(in.Description),
		Highlights:  in.Highlights,
		ImageURL:    in.ImageURL,
		Taxable:     in.Taxable,
		Brand:       in.Brand,
		IsActive:    in.IsActive == nil || *in.IsActive,
		Stock:       in.Stock,
		Variants:    variants,
	}
	if p.Highlights == nil {
		p.Highlights = []string{}
	}
	if err := s.repo.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.String("product_id", p.ID.String()), zap.String("sku", p.SKU))
	return s.repo.Products.GetByID(ctx, p.ID)
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, p ProductPatch) (*models.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	cur, err := s.repo.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrProductNotFound
	}

	fields := map[string]any{}
	if p.SKU != nil {
		sku := strings.TrimSpace(*p.SKU)
		if sku == "" {
			return nil, invalid("sku", "must not be empty")
		}
		if other, err := s.repo.Products.GetBySKU(ctx, sku); err != nil {
			return nil, err
		} else if other != nil && other.ID != id {
			return nil, ErrSKUOrSlugInUse
		}
		fields["sku"] = sku
	}
	if p.Slug != nil {
		slug := Slugify(*p.Slug)
		if slug == "" {
			return nil, invalid("slug", "must not be empty")
		}
		if other, err := s.repo.Products.GetBySlug(ctx, slug); err != nil {
			return nil, err
		} else if other != nil && other.ID != id {
			return nil, ErrSKUOrSlugInUse
		}
		fields["slug"] = slug
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		fields["name"] = name
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return nil, invalid("type", "must be one of tree, flower, gift")
		}
		fields["type"] = *p.Type
	}
	if p.Description != nil {
		fields["description"] = strings.TrimSpace(*p.Description)
	}
	if p.ImageURL != nil {
		fields["image_url"] = *p.ImageURL
	}
	if p.Taxable != nil {
		fields["taxable"] = *p.Taxable
	}
	if p.Brand != nil {
		fields["brand"] = *p.Brand
	}
	if p.Stock != nil {
		if *p.Stock < 0 {
			return nil, invalid("stock", "must be >= 0")
		}
		fields["stock"] = *p.Stock
	}

	var variants []models.ProductVariant
	if p.Variants != nil {
		if variants, err = buildVariants(p.Variants); err != nil {
			return nil, err
		}
	}

	err = s.withTx(ctx, func(tx *repository.Repository) error {
		if len(fields) > 0 {
			if err := tx.Products.UpdateFields(ctx, id, fields); err != nil {
				return err
			}
		}
		if p.Highlights != nil {
			cur.Highlights = p.Highlights
			if err := tx.Products.SaveHighlights(ctx, cur); err != nil {
				return err
			}
		}
		if p.Variants != nil {
			return tx.Products.ReplaceVariants(ctx, id, variants)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product updated", zap.String("product_id", id.String()))
	return s.repo.Products.GetByID(ctx, id)
}

func (s *productService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	cur, err := s.repo.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrProductNotFound
	}
	if err := s.repo.Products.UpdateFields(ctx, id, map[string]any{"is_active": active}); err != nil {
		return nil, err
	}
	cur.IsActive = active
	return cur, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	used, err := s.repo.Products.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return ErrProductInUse
	}
	ok, err := s.repo.Products.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	s.log.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}
