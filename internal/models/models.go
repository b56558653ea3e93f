package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultLocation    = "Unknown"
	DefaultServiceType = "PRIVATE FAMILY SERVICE"
)

type Obituary struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName       string     `gorm:"type:text;not null" json:"firstName"`
	MiddleName      string     `gorm:"type:text;not null;default:''" json:"middleName,omitempty"`
	LastName        string     `gorm:"type:text;not null" json:"lastName"`
	BirthDate       *time.Time `gorm:"type:date" json:"birthDate,omitempty"`
	DeathDate       *time.Time `gorm:"type:date;index" json:"deathDate,omitempty"`
	Age             *int32     `gorm:"type:int" json:"age,omitempty"`
	Photo           *string    `gorm:"type:text" json:"photo,omitempty"`
	Location        string     `gorm:"type:text;not null;default:'Unknown'" json:"location"`
	Biography       string     `gorm:"type:text;not null;default:''" json:"biography"`
	VideoURL        *string    `gorm:"type:text" json:"videoUrl,omitempty"`
	ExternalVideo   *string    `gorm:"type:text" json:"externalVideo,omitempty"`
	EmbeddedVideo   *string    `gorm:"type:text" json:"embeddedVideo,omitempty"`
	ServiceType     string     `gorm:"type:text;not null;default:'PRIVATE FAMILY SERVICE'" json:"serviceType"`
	ServiceDate     *time.Time `json:"serviceDate,omitempty"`
	ServiceLocation *string    `gorm:"type:text" json:"serviceLocation,omitempty"`
	FloralStoreLink *string    `gorm:"type:text" json:"floralStoreLink,omitempty"`
	TreePlantingURL *string    `gorm:"column:tree_planting_link;type:text" json:"treePlantingLink,omitempty"`
	BackgroundImage *string    `gorm:"type:text" json:"backgroundImage,omitempty"`
	Slug            string     `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	IsPublished     bool       `gorm:"not null;index" json:"isPublished"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Obituary) TableName() string { return "obituaries" }

func (o *Obituary) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{o.FirstName, o.MiddleName, o.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ComputeAge заполняет возраст в полных годах (год = 365.25 дня), если он не задан и известны обе даты.
func (o *Obituary) ComputeAge() {
	if o.Age != nil || o.BirthDate == nil || o.DeathDate == nil {
		return
	}
	years := o.DeathDate.Sub(*o.BirthDate).Hours() / 24 / 365.25
	age := int32(math.Floor(years))
	if age < 0 {
		return
	}
	o.Age = &age
}

type ProductType string

const (
	ProductTypeTree   ProductType = "tree"
	ProductTypeFlower ProductType = "flower"
	ProductTypeGift   ProductType = "gift"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeTree, ProductTypeFlower, ProductTypeGift:
		return true
	}
	return false
}

// MemorialProductTypes — типы, покупка которых порождает соболезнование на странице памяти.
var MemorialProductTypes = []ProductType{ProductTypeTree, ProductTypeFlower, ProductTypeGift}

type Product struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string      `gorm:"type:text;not null;uniqueIndex" json:"sku"`
	Name        string      `gorm:"type:text;not null" json:"name"`
	Slug        string      `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Type        ProductType `gorm:"type:text;not null;default:'tree';index" json:"type"`
	Description string      `gorm:"type:text;not null;default:''" json:"description"`
	Highlights  []string    `gorm:"type:jsonb;serializer:json" json:"highlights"`
	ImageURL    *string     `gorm:"type:text" json:"imageUrl,omitempty"`
	Taxable     bool        `gorm:"not null;default:false" json:"taxable"`
	Brand       *string     `gorm:"type:text" json:"brand,omitempty"`
	IsActive    bool        `gorm:"not null;index" json:"isActive"`
	// Stock == nil — остаток не ведётся.
	Stock *int32 `gorm:"type:int" json:"stock,omitempty"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

func (p *Product) IsMemorial() bool {
	for _, t := range MemorialProductTypes {
		if p.Type == t {
			return true
		}
	}
	return false
}

// ResolveVariant выбирает вариант: точный SKU, затем имя, затем вариант по умолчанию, затем первый активный.
func (p *Product) ResolveVariant(sku, name string) *ProductVariant {
	sku, name = strings.TrimSpace(sku), strings.TrimSpace(name)
	if sku != "" {
		for i := range p.Variants {
			if p.Variants[i].IsActive && strings.EqualFold(p.Variants[i].SKU, sku) {
				return &p.Variants[i]
			}
		}
	}
	if name != "" {
		for i := range p.Variants {
			if p.Variants[i].IsActive && strings.EqualFold(p.Variants[i].Name, name) {
				return &p.Variants[i]
			}
		}
	}
	for i := range p.Variants {
		if p.Variants[i].IsActive && p.Variants[i].IsDefault {
			return &p.Variants[i]
		}
	}
	for i := range p.Variants {
		if p.Variants[i].IsActive {
			return &p.Variants[i]
		}
	}
	return nil
}

type ProductVariant struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"productId"`
	Name           string           `gorm:"type:text;not null" json:"name"`
	Quantity       int32            `gorm:"not null;default:1" json:"quantity"`
	Price          decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"price"`
	CompareAtPrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"compareAtPrice,omitempty"`
	SKU            string           `gorm:"type:text;not null;default:''" json:"sku"`
	IsDefault      bool             `gorm:"not null;default:false" json:"isDefault"`
	IsActive       bool             `gorm:"not null" json:"isActive"`
	Position       int32            `gorm:"not null;default:0" json:"position"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
}

func (ProductVariant) TableName() string { return "product_variants" }

type CartItemStatus string

const (
	CartItemNotProcessed CartItemStatus = "Not processed"
	CartItemProcessing   CartItemStatus = "Processing"
	CartItemShipped      CartItemStatus = "Shipped"
	CartItemDelivered    CartItemStatus = "Delivered"
	CartItemCancelled    CartItemStatus = "Cancelled"
)

func (s CartItemStatus) Valid() bool {
	switch s {
	case CartItemNotProcessed, CartItemProcessing, CartItemShipped, CartItemDelivered, CartItemCancelled:
		return true
	}
	return false
}

type Cart struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"products"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Cart) TableName() string { return "carts" }

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		if it.Status == CartItemCancelled {
			continue
		}
		sum = sum.Add(it.PurchasePrice.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	return sum
}

type CartItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"cartId"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	Product       *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	VariantName   *string         `gorm:"type:text" json:"variantName,omitempty"`
	VariantSKU    *string         `gorm:"type:text" json:"variantSku,omitempty"`
	Quantity      int32           `gorm:"not null" json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"purchasePrice"`
	TotalPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalPrice"`
	Status        CartItemStatus  `gorm:"type:text;not null;default:'Not processed'" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (CartItem) TableName() string { return "cart_items" }

type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type BillingDetails struct {
	Name    string  `json:"name,omitempty"`
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
}

type ShippingDetails struct {
	Name    string  `json:"name,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
}

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

type Order struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"cartId"`
	Cart   *Cart      `gorm:"foreignKey:CartID;constraint:OnDelete:RESTRICT" json:"cart,omitempty"`
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`

	Total        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total"`
	TotalTax     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"totalTax"`
	TotalWithTax decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"totalWithTax"`
	Currency     string          `gorm:"type:char(3);not null;default:'usd'" json:"currency"`

	PaymentIntentID *string       `gorm:"type:text;uniqueIndex" json:"paymentIntentId,omitempty"`
	PaymentStatus   PaymentStatus `gorm:"type:text;not null;default:'pending';index" json:"paymentStatus"`
	OrderStatus     OrderStatus   `gorm:"type:text;not null;default:'pending';index" json:"orderStatus"`
	PaymentMethod   PaymentMethod `gorm:"type:text;not null;default:'card'" json:"paymentMethod"`

	Billing  BillingDetails  `gorm:"type:jsonb;serializer:json;not null" json:"billingDetails"`
	Shipping ShippingDetails `gorm:"type:jsonb;serializer:json;not null" json:"shippingDetails"`

	ObituaryID        *uuid.UUID `gorm:"type:uuid;index" json:"obituaryId,omitempty"`
	ObituaryName      *string    `gorm:"type:text" json:"obituaryName,omitempty"`
	DedicationMessage *string    `gorm:"type:text" json:"dedicationMessage,omitempty"`
	CondolenceID      *uuid.UUID `gorm:"type:uuid" json:"condolenceId,omitempty"`

	// StockCommitted — остатки по позициям корзины уже списаны и подлежат возврату при отмене/возврате.
	StockCommitted bool            `gorm:"not null;default:false" json:"-"`
	RefundedAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"refundedAmount"`
	RefundReason   *string         `gorm:"type:text" json:"refundReason,omitempty"`
	OrderNotes     *string         `gorm:"type:text" json:"orderNotes,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

type CondolenceType string

const (
	CondolenceMessage CondolenceType = "message"
	CondolenceTree    CondolenceType = "tree"
	CondolenceFlower  CondolenceType = "flower"
	CondolenceGift    CondolenceType = "gift"
	CondolenceMixed   CondolenceType = "mixed"
)

type ProductDetails struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	ProductType ProductType     `json:"productType"`
	VariantName *string         `json:"variantName,omitempty"`
	Quantity    int32           `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	SKU         string          `json:"sku,omitempty"`
}

type Condolence struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ObituaryID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"obituaryId"`
	Name               string          `gorm:"type:text;not null" json:"name"`
	Email              *string         `gorm:"type:text" json:"email,omitempty"`
	Message            string          `gorm:"type:text;not null" json:"message"`
	IsPrivate          bool            `gorm:"not null;default:false" json:"isPrivate"`
	HasCandle          bool            `gorm:"not null;default:false" json:"hasCandle"`
	GestureID          *string         `gorm:"type:text" json:"gestureId,omitempty"`
	GestureDescription *string         `gorm:"type:text" json:"gestureDescription,omitempty"`
	IsApproved         bool            `gorm:"not null;index" json:"isApproved"`
	Type               CondolenceType  `gorm:"type:text;not null;default:'message'" json:"type"`
	OrderID            *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"orderId,omitempty"`
	ProductDetails     *ProductDetails `gorm:"type:jsonb;serializer:json" json:"productDetails,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Condolence) TableName() string { return "condolences" }

type Tribute struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ObituaryID uuid.UUID `gorm:"type:uuid;not null;index" json:"obituaryId"`
	Name       string    `gorm:"type:text;not null" json:"name"`
	Email      *string   `gorm:"type:text" json:"email,omitempty"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Initial    string    `gorm:"type:varchar(1);not null;default:'G'" json:"initial"`
	IsApproved bool      `gorm:"not null;default:false;index" json:"isApproved"`
	Photos     []string  `gorm:"type:jsonb;serializer:json" json:"photos"`
	Videos     []string  `gorm:"type:jsonb;serializer:json" json:"videos"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Tribute) TableName() string { return "tributes" }

// WebhookEvent — журнал обработанных событий шлюза, ключ — id события у шлюза.
type WebhookEvent struct {
	EventID         string    `gorm:"type:text;primaryKey"`
	EventType       string    `gorm:"type:text;not null"`
	PaymentIntentID *string   `gorm:"type:text;index"`
	ProcessedAt     time.Time `gorm:"not null;default:now();index"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
