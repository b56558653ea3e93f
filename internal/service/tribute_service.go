package service

import (
	"context"
	"strings"

	"memorial-service/internal/models"
	"memorial-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type tributeService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewTributeService(repo *repository.Repository, log *zap.Logger) TributeService {
	return &tributeService{repo: repo, log: log}
}

func (s *tributeService) ListByObituary(ctx context.Context, obituaryID uuid.UUID) ([]models.Tribute, error) {
	return s.repo.Tributes.ListApprovedByObituary(ctx, obituaryID)
}

// tributeInitial — первая буква имени в верхнем регистре.
func tributeInitial(name string) string {
	for _, r := range strings.ToUpper(name) {
		return string(r)
	}
	return "G"
}

func (s *tributeService) Create(ctx context.Context, in TributeInput) (*models.Tribute, error) {
	name, msg := strings.TrimSpace(in.Name), strings.TrimSpace(in.Message)
	if name == "" || msg == "" || in.ObituaryID == uuid.Nil {
		return nil, invalid("tribute", "Name, message, and obituaryId are required")
	}
	o, err := s.repo.Obituaries.GetByID(ctx, in.ObituaryID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrObituaryNotFound
	}

	t := &models.Tribute{
		ObituaryID: in.ObituaryID,
		Name:       name,
		Email:      normalizeEmail(in.Email),
		Message:    msg,
		Initial:    tributeInitial(name),
		IsApproved: false,
		Photos:     in.Photos,
		Videos:     in.Videos,
	}
	if err := s.repo.Tributes.Create(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("tribute submitted", zap.String("tribute_id", t.ID.String()))
	return t, nil
}

func (s *tributeService) Update(ctx context.Context, id uuid.UUID, p TributePatch) (*models.Tribute, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	cur, err := s.repo.Tributes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrTributeNotFound
	}

	fields := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		fields["name"] = name
		fields["initial"] = tributeInitial(name)
	}
	if p.Message != nil {
		msg := strings.TrimSpace(*p.Message)
		if msg == "" {
			return nil, invalid("message", "must not be empty")
		}
		fields["message"] = msg
	}
	if p.Email != nil {
		fields["email"] = normalizeEmail(*p.Email)
	}

	if len(fields) > 0 {
		if err := s.repo.Tributes.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	if p.Photos != nil || p.Videos != nil {
		if p.Photos != nil {
			cur.Photos = p.Photos
		}
		if p.Videos != nil {
			cur.Videos = p.Videos
		}
		if err := s.repo.Tributes.SaveMedia(ctx, cur); err != nil {
			return nil, err
		}
	}
	return s.repo.Tributes.GetByID(ctx, id)
}

func (s *tributeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	ok, err := s.repo.Tributes.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTributeNotFound
	}
	return nil
}

func (s *tributeService) Approve(ctx context.Context, id uuid.UUID) (*models.Tribute, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	ok, err := s.repo.Tributes.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTributeNotFound
	}
	return s.repo.Tributes.GetByID(ctx, id)
}
