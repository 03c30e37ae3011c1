package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HistoryRecord is the immutable snapshot written when a listing is deleted.
// It duplicates the listing scalars, references the archived (not original)
// main-photo path, and carries the owner-supplied motif. Rows are inserted
// exactly once per deletion and never updated or deleted by the application.
type HistoryRecord struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"id_bien"`
	OwnerID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	TypeBien          string         `gorm:"type:varchar(20);not null" json:"type_bien"`
	TypeOffre         string         `gorm:"type:varchar(20);not null" json:"type_offre"`
	Titre             string         `gorm:"type:varchar(100);not null" json:"titre"`
	Description       string         `gorm:"type:text" json:"description"`
	Prix              float64        `json:"prix_bien"`
	Surface           *float64       `json:"surface,omitempty"`
	Ville             string         `gorm:"type:varchar(60)" json:"ville"`
	Commune           string         `gorm:"type:varchar(60)" json:"commune,omitempty"`
	ArchivedPhotoPath string         `gorm:"type:text" json:"photo_archivee"`
	Motif             string         `gorm:"type:varchar(500);not null" json:"motif"`
	Extras            datatypes.JSON `gorm:"type:json" json:"extras,omitempty"`
	DeletedAt         time.Time      `gorm:"not null" json:"deleted_at"`
}

func (HistoryRecord) TableName() string { return "historique_biens" }

// DeletedAccount is the archival snapshot of a destroyed user account.
// ArchivedDocuments lists the archive-relative paths of every copied
// profile document and listing artifact; ArchiveRoot is the subtree that
// holds them. Inserted exactly once per account deletion.
type DeletedAccount struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Email             string         `gorm:"type:varchar(120);not null" json:"email"`
	Fullname          string         `gorm:"type:varchar(120)" json:"fullname"`
	AccountType       string         `gorm:"type:varchar(20);not null" json:"account_type"`
	ArchivedDocuments datatypes.JSON `gorm:"type:json" json:"archived_documents"`
	ArchiveRoot       string         `gorm:"type:text;not null" json:"archive"`
	Motif             string         `gorm:"type:varchar(500);not null" json:"motif"`
	DeletedAt         time.Time      `gorm:"not null" json:"deleted_at"`
}

func (DeletedAccount) TableName() string { return "comptes_supprimes" }
