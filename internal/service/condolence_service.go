package service

import (
	"context"
	"strings"

	"memorial-service/internal/models"
	"memorial-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCondolencePage = 50

type condolenceService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCondolenceService(repo *repository.Repository, log *zap.Logger) CondolenceService {
	return &condolenceService{repo: repo, log: log}
}

func normalizeEmail(v string) *string {
	e := strings.ToLower(strings.TrimSpace(v))
	if e == "" {
		return nil
	}
	return &e
}

func (s *condolenceService) ListByObituary(ctx context.Context, obituaryID uuid.UUID, includePrivate bool) (*CondolenceList, error) {
	o, err := s.repo.Obituaries.GetByID(ctx, obituaryID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrObituaryNotFound
	}
	list, err := s.repo.Condolences.ListByObituary(ctx, obituaryID, includePrivate)
	if err != nil {
		return nil, err
	}
	return &CondolenceList{ObituaryID: obituaryID, Condolences: list}, nil
}

func (s *condolenceService) ListBySlug(ctx context.Context, slug string, includePrivate bool) (*CondolenceList, error) {
	o, err := s.repo.Obituaries.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrObituaryNotFound
	}
	return s.ListByObituary(ctx, o.ID, includePrivate)
}

func (s *condolenceService) Stats(ctx context.Context, obituaryID uuid.UUID) (repository.CondolenceStats, error) {
	return s.repo.Condolences.Stats(ctx, obituaryID)
}

func (s *condolenceService) Create(ctx context.Context, in CondolenceInput) (*models.Condolence, error) {
	if in.ObituaryID == uuid.Nil {
		return nil, invalid("obituaryId", "Obituary ID is required")
	}
	name, msg := strings.TrimSpace(in.Name), strings.TrimSpace(in.Message)
	if name == "" {
		return nil, invalid("name", "Name is required")
	}
	if msg == "" {
		return nil, invalid("message", "Condolence message is required")
	}

	o, err := s.repo.Obituaries.GetByID(ctx, in.ObituaryID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrObituaryNotFound
	}

	c := &models.Condolence{
		ObituaryID:         in.ObituaryID,
		Name:               name,
		Email:              normalizeEmail(in.Email),
		Message:            msg,
		IsPrivate:          in.IsPrivate,
		HasCandle:          in.HasCandle,
		GestureID:          in.GestureID,
		GestureDescription: in.GestureDescription,
		IsApproved:         true,
		Type:               models.CondolenceMessage,
	}
	if err := s.repo.Condolences.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("condolence created", zap.String("condolence_id", c.ID.String()), zap.String("obituary_id", o.ID.String()))
	return c, nil
}

func (s *condolenceService) Update(ctx context.Context, id uuid.UUID, p CondolencePatch) (*models.Condolence, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	cur, err := s.repo.Condolences.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrCondolenceNotFound
	}

	fields := map[string]any{}
	if p.Name != nil {
		if v := strings.TrimSpace(*p.Name); v != "" {
			fields["name"] = v
		} else {
			return nil, invalid("name", "Name is required")
		}
	}
	if p.Message != nil {
		if v := strings.TrimSpace(*p.Message); v != "" {
			fields["message"] = v
		} else {
			return nil, invalid("message", "Condolence message is required")
		}
	}
	if p.Email != nil {
		fields["email"] = normalizeEmail(*p.Email)
	}
	if p.IsPrivate != nil {
		fields["is_private"] = *p.IsPrivate
	}
	if p.HasCandle != nil {
		fields["has_candle"] = *p.HasCandle
	}
	if p.GestureID != nil {
		fields["gesture_id"] = *p.GestureID
	}
	if p.GestureDescription != nil {
		fields["gesture_description"] = *p.GestureDescription
	}
	if p.IsApproved != nil {
		fields["is_approved"] = *p.IsApproved
	}

	if len(fields) > 0 {
		if err := s.repo.Condolences.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.repo.Condolences.GetByID(ctx, id)
}

func (s *condolenceService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	ok, err := s.repo.Condolences.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCondolenceNotFound
	}
	return nil
}

func (s *condolenceService) ListAll(ctx context.Context, page, perPage int) ([]models.Condolence, int64, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultCondolencePage
	}
	return s.repo.Condolences.ListAll(ctx, perPage, (page-1)*perPage)
}
