package domain

import "github.com/google/uuid"

// Video platforms.
const (
	PlatformYouTube = "youtube"
	PlatformTikTok  = "tiktok"
	PlatformVimeo   = "vimeo"
)

// Room is a named room of a non-Terrain listing. Position preserves the
// order the rooms were entered in.
type Room struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"id_bien"`
	Nom       string    `gorm:"type:varchar(80);not null" json:"nom"`
	Position  int       `gorm:"not null;default:0" json:"position"`
}

func (Room) TableName() string { return "pieces" }

// RoomPhoto is one ordered photo of a room. Path is relative to the public
// artifact root.
type RoomPhoto struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID   uuid.UUID `gorm:"type:uuid;not null;index" json:"id_piece"`
	Path     string    `gorm:"type:text;not null" json:"path"`
	Position int       `gorm:"not null;default:0" json:"position"`
}

func (RoomPhoto) TableName() string { return "photos_pieces" }

// MainPhoto is the 0/1 cover photo of a listing.
type MainPhoto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"id_bien"`
	Path      string    `gorm:"type:text;not null" json:"path"`
}

func (MainPhoto) TableName() string { return "photos_principales" }

// Video is the 0/1 hosted-video reference of a listing.
type Video struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"id_bien"`
	Platform  string    `gorm:"type:varchar(10);not null" json:"plateforme"`
	URL       string    `gorm:"type:text;not null" json:"url"`
}

func (Video) TableName() string { return "videos" }
