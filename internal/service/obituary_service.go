package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"memorial-service/internal/models"
	"memorial-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	recentCacheKey   = "obituaries:recent"
	recentCacheSize  = 50
	defaultRecent    = 12
	searchLimit      = 50
	defaultPageLimit = 20
)

type obituaryService struct {
	repo     *repository.Repository
	cache    CacheClient
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewObituaryService: cache == nil отключает кеш последних страниц памяти.
func NewObituaryService(repo *repository.Repository, cache CacheClient, cacheTTL time.Duration, log *zap.Logger) ObituaryService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &obituaryService{repo: repo, cache: cache, cacheTTL: cacheTTL, log: log}
}

func (s *obituaryService) Recent(ctx context.Context, limit int) ([]models.Obituary, error) {
	if limit <= 0 {
		limit = defaultRecent
	}
	if limit > recentCacheSize {
		limit = recentCacheSize
	}

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, recentCacheKey)
		if err != nil {
			s.log.Warn("recent obituaries cache read failed", zap.Error(err))
		} else if raw != "" {
			var cached []models.Obituary
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return headObituaries(cached, limit), nil
			}
			s.log.Warn("recent obituaries cache corrupted")
		}
	}

	list, err := s.repo.Obituaries.Recent(ctx, recentCacheSize)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(list); err == nil {
			if err := s.cache.Set(ctx, recentCacheKey, raw, s.cacheTTL); err != nil {
				s.log.Warn("recent obituaries cache write failed", zap.Error(err))
			}
		}
	}
	return headObituaries(list, limit), nil
}

func textOr(v, def string) string {
	if t := strings.TrimSpace(v); t != "" {
		return t
	}
	return def
}

func headObituaries(list []models.Obituary, n int) []models.Obituary {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func (s *obituaryService) invalidateRecent(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, recentCacheKey); err != nil {
		s.log.Warn("recent obituaries cache invalidation failed", zap.Error(err))
	}
}

func (s *obituaryService) Search(ctx context.Context, query string) ([]models.Obituary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrSearchQueryRequired
	}
	return s.repo.Obituaries.Search(ctx, query, searchLimit)
}

func (s *obituaryService) Get(ctx context.Context, slugOrID string) (*models.Obituary, error) {
	key := strings.TrimSpace(slugOrID)
	if key == "" {
		return nil, ErrObituaryNotFound
	}

	o, err := s.repo.Obituaries.GetBySlug(ctx, key)
	if err != nil {
		return nil, err
	}
	if o == nil {
		if id, perr := uuid.Parse(key); perr == nil {
			if o, err = s.repo.Obituaries.GetByID(ctx, id); err != nil {
				return nil, err
			}
		}
	}
	if o == nil || !o.IsPublished {
		return nil, ErrObituaryNotFound
	}
	return o, nil
}

func (s *obituaryService) List(ctx context.Context, page, perPage int) (*ObituaryPage, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPageLimit
	}
	list, total, err := s.repo.Obituaries.List(ctx, repository.ObituaryListFilter{
		OnlyPublished: true,
		Limit:         perPage,
		Offset:        (page - 1) * perPage,
	})
	if err != nil {
		return nil, err
	}
	return &ObituaryPage{
		Items:      list,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	}, nil
}

func (s *obituaryService) Create(ctx context.Context, in ObituaryInput) (*models.Obituary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" {
		return nil, invalid("firstName", "is required")
	}
	if last == "" {
		return nil, invalid("lastName", "is required")
	}

	o := &models.Obituary{
		FirstName:       first,
		MiddleName:      strings.TrimSpace(in.MiddleName),
		LastName:        last,
		BirthDate:       in.BirthDate,
		DeathDate:       in.DeathDate,
		Age:             in.Age,
		Photo:           in.Photo,
		Location:        textOr(in.Location, models.DefaultLocation),
		Biography:       in.Biography,
		VideoURL:        in.VideoURL,
		ExternalVideo:   in.ExternalVideo,
		EmbeddedVideo:   in.EmbeddedVideo,
		ServiceType:     textOr(in.ServiceType, models.DefaultServiceType),
		ServiceDate:     in.ServiceDate,
		ServiceLocation: in.ServiceLocation,
		FloralStoreLink: in.FloralStoreLink,
		TreePlantingURL: in.TreePlantingURL,
		BackgroundImage: in.BackgroundImage,
		IsPublished:     true,
	}
	if in.IsPublished != nil {
		o.IsPublished = *in.IsPublished
	}
	o.ComputeAge()

	base := Slugify(in.Slug)
	if base == "" {
		base = Slugify(o.FirstName, o.MiddleName, o.LastName)
	}
	slug, err := uniqueSlug(ctx, base, s.repo.Obituaries.SlugExists)
	if err != nil {
		return nil, err
	}
	o.Slug = slug

	if err := s.repo.Obituaries.Create(ctx, o); err != nil {
		return nil, err
	}
	s.invalidateRecent(ctx)
	s.log.Info("obituary created", zap.String("obituary_id", o.ID.String()), zap.String("slug", o.Slug))
	return o, nil
}

func (s *obituaryService) Update(ctx context.Context, id uuid.UUID, p ObituaryPatch) (*models.Obituary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	cur, err := s.repo.Obituaries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrObituaryNotFound
	}

	fields := map[string]any{}
	setText := func(col string, v *string, required bool) error {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		if required && t == "" {
			return invalid(col, "must not be empty")
		}
		fields[col] = t
		return nil
	}
	if err := setText("first_name", p.FirstName, true); err != nil {
		return nil, err
	}
	if err := setText("last_name", p.LastName, true); err != nil {
		return nil, err
	}
	_ = setText("middle_name", p.MiddleName, false)
	if p.Location != nil {
		fields["location"] = textOr(*p.Location, models.DefaultLocation)
	}
	if p.ServiceType != nil {
		fields["service_type"] = textOr(*p.ServiceType, models.DefaultServiceType)
	}
	if p.Biography != nil {
		fields["biography"] = *p.Biography
	}

	optional := map[string]*string{
		"photo":              p.Photo,
		"video_url":          p.VideoURL,
		"external_video":     p.ExternalVideo,
		"embedded_video":     p.EmbeddedVideo,
		"service_location":   p.ServiceLocation,
		"floral_store_link":  p.FloralStoreLink,
		"tree_planting_link": p.TreePlantingURL,
		"background_image":   p.BackgroundImage,
	}
	for col, v := range optional {
		if v != nil {
			fields[col] = *v
		}
	}
	if p.ServiceDate != nil {
		fields["service_date"] = *p.ServiceDate
	}
	if p.IsPublished != nil {
		fields["is_published"] = *p.IsPublished
	}

	merged := *cur
	if p.BirthDate != nil {
		merged.BirthDate = p.BirthDate
		fields["birth_date"] = *p.BirthDate
	}
	if p.DeathDate != nil {
		merged.DeathDate = p.DeathDate
		fields["death_date"] = *p.DeathDate
	}
	switch {
	case p.Age != nil:
		fields["age"] = *p.Age
	case p.BirthDate != nil || p.DeathDate != nil:
		merged.Age = nil
		merged.ComputeAge()
		if merged.Age != nil {
			fields["age"] = *merged.Age
		}
	}

	if p.Slug != nil {
		slug := Slugify(*p.Slug)
		if slug == "" {
			return nil, invalid("slug", "must not be empty")
		}
		if slug != cur.Slug {
			if slug, err = uniqueSlug(ctx, slug, s.repo.Obituaries.SlugExists); err != nil {
				return nil, err
			}
			fields["slug"] = slug
		}
	}

	if len(fields) > 0 {
		if err := s.repo.Obituaries.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
		s.invalidateRecent(ctx)
	}
	return s.repo.Obituaries.GetByID(ctx, id)
}

func (s *obituaryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	ok, err := s.repo.Obituaries.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrObituaryNotFound
	}
	s.invalidateRecent(ctx)
	s.log.Info("obituary deleted", zap.String("obituary_id", id.String()))
	return nil
}
