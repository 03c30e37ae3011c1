package domain

import (
	"time"

	"github.com/google/uuid"
)

// Listing types (type_bien). Wire values are the platform's French vocabulary.
const (
	TypeAppartement = "Appartement"
	TypeMaison      = "Maison"
	TypeTerrain     = "Terrain"
	TypeBureau      = "Bureau"
	TypeMagasin     = "Magasin"
)

// Offer types (type_offre).
const (
	OffreLocation = "Location"
	OffreVente    = "Vente"
)

// Publication statuses.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusSuspended = "suspended"
	StatusRejected  = "rejected"
	StatusDeleted   = "deleted"
)

// ListingTypes is the closed set of valid type_bien values.
var ListingTypes = []string{TypeAppartement, TypeMaison, TypeTerrain, TypeBureau, TypeMagasin}

// Listing is the scalar row of a property advertisement. Every sub-entity
// (location, features, rooms, media) hangs off ListingID and is exclusively
// owned by OwnerID.
type Listing struct {
	ListingID         uuid.UUID  `gorm:"type:uuid;primaryKey;column:listing_id" json:"id_bien"`
	OwnerID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	TypeBien          string     `gorm:"type:varchar(20);not null" json:"type_bien"`
	TypeOffre         string     `gorm:"type:varchar(20);not null" json:"type_offre"`
	Titre             string     `gorm:"type:varchar(100);not null" json:"titre"`
	Description       string     `gorm:"type:text;not null" json:"description"`
	Prix              float64    `gorm:"not null" json:"prix_bien"`
	FraisVisite       string     `gorm:"type:varchar(3);not null;default:Non" json:"frais_visite"`
	PrixVisite        *float64   `json:"prix_visite,omitempty"`
	Surface           *float64   `json:"surface,omitempty"`
	StatutOccupation  string     `gorm:"type:varchar(30)" json:"statut_occupation,omitempty"`
	Meuble            string     `gorm:"type:varchar(3)" json:"meuble,omitempty"`
	Disponibilite     string     `gorm:"type:varchar(30)" json:"disponibilite,omitempty"`
	PublicationStatus string     `gorm:"type:varchar(20);not null;default:draft" json:"publication_status"`
	PublishedAt       *time.Time `json:"published_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Listing) TableName() string { return "biens" }

// IsTerrain reports whether the listing is a land parcel. Terrain listings
// have no occupancy/furnishing/availability and no rooms; surface is
// mandatory instead of optional.
func (l *Listing) IsTerrain() bool { return l.TypeBien == TypeTerrain }

// Location is the 1:1 address block of a listing. Commune is mandatory only
// when the city is Abidjan.
type Location struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"id_bien"`
	Ville     string    `gorm:"type:varchar(60);not null" json:"ville"`
	Commune   string    `gorm:"type:varchar(60)" json:"commune,omitempty"`
	Quartier  string    `gorm:"type:varchar(80);not null" json:"quartier"`
}

func (Location) TableName() string { return "localisations" }

// InteriorFeature is a titled description block of the interior.
type InteriorFeature struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"id_bien"`
	Titre     string    `gorm:"type:varchar(100);not null" json:"titre"`
	Contenu   string    `gorm:"type:text" json:"contenu"`
}

func (InteriorFeature) TableName() string { return "caracteristiques_interieures" }

// ExteriorFeature is one checkbox or free-text exterior item.
type ExteriorFeature struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"id_bien"`
	Valeur    string    `gorm:"type:varchar(120);not null" json:"valeur"`
}

func (ExteriorFeature) TableName() string { return "caracteristiques_exterieures" }

// ListingDocument names a document the owner declares for the property
// (titre foncier, ACD...). Declared name only, not a binary artifact.
type ListingDocument struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"id_bien"`
	Nom       string    `gorm:"type:varchar(120);not null" json:"nom"`
}

func (ListingDocument) TableName() string { return "documents_bien" }

// AccessibilityFeature is one access point (checkbox set plus free text).
type AccessibilityFeature struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"id_bien"`
	Nom       string    `gorm:"type:varchar(120);not null" json:"nom"`
}

func (AccessibilityFeature) TableName() string { return "accessibilites" }

// Amenity is one nearby amenity (checkbox set plus free text).
type Amenity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"id_bien"`
	Nom       string    `gorm:"type:varchar(120);not null" json:"nom"`
}

func (Amenity) TableName() string { return "commodites" }

// PaymentCondition is one free-text payment term (caution, avance...).
type PaymentCondition struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"id_bien"`
	Texte     string    `gorm:"type:varchar(255);not null" json:"texte"`
}

func (PaymentCondition) TableName() string { return "conditions_paiement" }

// Bonus is one free-text extra advertised with the listing.
type Bonus struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"id_bien"`
	Texte     string    `gorm:"type:varchar(255);not null" json:"texte"`
}

func (Bonus) TableName() string { return "bonus" }
