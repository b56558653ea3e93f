package service

import (
	"context"

	"memorial-service/internal/models"
	"memorial-service/internal/repository"

	"github.com/google/uuid"
)

type CondolenceInput struct {
	ObituaryID         uuid.UUID
	Name               string
	Email              string
	Message            string
	IsPrivate          bool
	HasCandle          bool
	GestureID          *string
	GestureDescription *string
}

// CondolencePatch — правка и модерация; nil-поля не меняются.
type CondolencePatch struct {
	Name               *string
	Email              *string
	Message            *string
	IsPrivate          *bool
	HasCandle          *bool
	GestureID          *string
	GestureDescription *string
	IsApproved         *bool
}

type CondolenceList struct {
	ObituaryID  uuid.UUID
	Condolences []models.Condolence
}

type CondolenceService interface {
	ListByObituary(ctx context.Context, obituaryID uuid.UUID, includePrivate bool) (*CondolenceList, error)
	ListBySlug(ctx context.Context, slug string, includePrivate bool) (*CondolenceList, error)
	Stats(ctx context.Context, obituaryID uuid.UUID) (repository.CondolenceStats, error)
	Create(ctx context.Context, in CondolenceInput) (*models.Condolence, error)
	Update(ctx context.Context, id uuid.UUID, p CondolencePatch) (*models.Condolence, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context, page, perPage int) ([]models.Condolence, int64, error)
}

type TributeInput struct {
	ObituaryID uuid.UUID
	Name       string
	Email      string
	Message    string
	Photos     []string
	Videos     []string
}

type TributePatch struct {
	Name    *string
	Email   *string
	Message *string
	Photos  []string
	Videos  []string
}

type TributeService interface {
	ListByObituary(ctx context.Context, obituaryID uuid.UUID) ([]models.Tribute, error)
	Create(ctx context.Context, in TributeInput) (*models.Tribute, error)
	Update(ctx context.Context, id uuid.UUID, p TributePatch) (*models.Tribute, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Approve(ctx context.Context, id uuid.UUID) (*models.Tribute, error)
}
