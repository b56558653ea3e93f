package dto

import (
	"time"

	"memorial-service/internal/models"

	"github.com/google/uuid"
)

type ObituaryRequest struct {
	FirstName       string     `json:"firstName" binding:"required"`
	MiddleName      string     `json:"middleName"`
	LastName        string     `json:"lastName" binding:"required"`
	BirthDate       *time.Time `json:"birthDate"`
	DeathDate       *time.Time `json:"deathDate"`
	Age             *int32     `json:"age"`
	Photo           *string    `json:"photo"`
	Location        string     `json:"location"`
	Biography       string     `json:"biography"`
	VideoURL        *string    `json:"videoUrl"`
	ExternalVideo   *string    `json:"externalVideo"`
	EmbeddedVideo   *string    `json:"embeddedVideo"`
	ServiceType     string     `json:"serviceType"`
	ServiceDate     *time.Time `json:"serviceDate"`
	ServiceLocation *string    `json:"serviceLocation"`
	FloralStoreLink *string    `json:"floralStoreLink"`
	TreePlantingURL *string    `json:"treePlantingLink"`
	BackgroundImage *string    `json:"backgroundImage"`
	Slug            string     `json:"slug"`
	IsPublished     *bool      `json:"isPublished"`
}

// ObituaryPatchRequest — частичное обновление, отсутствующие поля не меняются.
type ObituaryPatchRequest struct {
	FirstName       *string    `json:"firstName"`
	MiddleName      *string    `json:"middleName"`
	LastName        *string    `json:"lastName"`
	BirthDate       *time.Time `json:"birthDate"`
	DeathDate       *time.Time `json:"deathDate"`
	Age             *int32     `json:"age"`
	Photo           *string    `json:"photo"`
	Location        *string    `json:"location"`
	Biography       *string    `json:"biography"`
	VideoURL        *string    `json:"videoUrl"`
	ExternalVideo   *string    `json:"externalVideo"`
	EmbeddedVideo   *string    `json:"embeddedVideo"`
	ServiceType     *string    `json:"serviceType"`
	ServiceDate     *time.Time `json:"serviceDate"`
	ServiceLocation *string    `json:"serviceLocation"`
	FloralStoreLink *string    `json:"floralStoreLink"`
	TreePlantingURL *string    `json:"treePlantingLink"`
	BackgroundImage *string    `json:"backgroundImage"`
	Slug            *string    `json:"slug"`
	IsPublished     *bool      `json:"isPublished"`
}

type ObituaryPageResponse struct {
	Obituaries  []models.Obituary `json:"obituaries"`
	Total       int64             `json:"total"`
	CurrentPage int               `json:"currentPage"`
	PerPage     int               `json:"perPage"`
	TotalPages  int               `json:"totalPages"`
}

type CondolenceRequest struct {
	ObituaryID         uuid.UUID `json:"obituaryId"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Message            string    `json:"message"`
	IsPrivate          bool      `json:"isPrivate"`
	HasCandle          bool      `json:"hasCandle"`
	GestureID          *string   `json:"gestureId"`
	GestureDescription *string   `json:"gestureDescription"`
}

type CondolencePatchRequest struct {
	Name               *string `json:"name"`
	Email              *string `json:"email"`
	Message            *string `json:"message"`
	IsPrivate          *bool   `json:"isPrivate"`
	HasCandle          *bool   `json:"hasCandle"`
	GestureID          *string `json:"gestureId"`
	GestureDescription *string `json:"gestureDescription"`
	IsApproved         *bool   `json:"isApproved"`
}

type CondolenceListResponse struct {
	ObituaryID  uuid.UUID           `json:"obituaryId"`
	Condolences []models.Condolence `json:"condolences"`
	Count       int                 `json:"count"`
}

type CondolencePageResponse struct {
	Condolences []models.Condolence `json:"condolences"`
	Total       int64               `json:"total"`
	Page        int                 `json:"page"`
}

type TributeRequest struct {
	ObituaryID uuid.UUID `json:"obituaryId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	Photos     []string  `json:"photos"`
	Videos     []string  `json:"videos"`
}

type TributePatchRequest struct {
	Name    *string  `json:"name"`
	Email   *string  `json:"email"`
	Message *string  `json:"message"`
	Photos  []string `json:"photos"`
	Videos  []string `json:"videos"`
}
