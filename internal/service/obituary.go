package service

import (
	"context"
	"time"

	"memorial-service/internal/models"

	"github.com/google/uuid"
)

type ObituaryInput struct {
	FirstName       string
	MiddleName      string
	LastName        string
	BirthDate       *time.Time
	DeathDate       *time.Time
	Age             *int32
	Photo           *string
	Location        string
	Biography       string
	VideoURL        *string
	ExternalVideo   *string
	EmbeddedVideo   *string
	ServiceType     string
	ServiceDate     *time.Time
	ServiceLocation *string
	FloralStoreLink *string
	TreePlantingURL *string
	BackgroundImage *string
	Slug            string
	IsPublished     *bool
}

// ObituaryPatch — частичное обновление: nil-поля не меняются.
type ObituaryPatch struct {
	FirstName       *string
	MiddleName      *string
	LastName        *string
	BirthDate       *time.Time
	DeathDate       *time.Time
	Age             *int32
	Photo           *string
	Location        *string
	Biography       *string
	VideoURL        *string
	ExternalVideo   *string
	EmbeddedVideo   *string
	ServiceType     *string
	ServiceDate     *time.Time
	ServiceLocation *string
	FloralStoreLink *string
	TreePlantingURL *string
	BackgroundImage *string
	Slug            *string
	IsPublished     *bool
}

type ObituaryPage struct {
	Items      []models.Obituary
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

type ObituaryService interface {
	Recent(ctx context.Context, limit int) ([]models.Obituary, error)
	Search(ctx context.Context, query string) ([]models.Obituary, error)
	// Get ищет опубликованную страницу по slug, а если ключ похож на uuid, то и по id.
	Get(ctx context.Context, slugOrID string) (*models.Obituary, error)
	List(ctx context.Context, page, perPage int) (*ObituaryPage, error)
	Create(ctx context.Context, in ObituaryInput) (*models.Obituary, error)
	Update(ctx context.Context, id uuid.UUID, p ObituaryPatch) (*models.Obituary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
