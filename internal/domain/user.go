package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account types.
const (
	AccountProprietaire = "proprietaire"
	AccountAgence       = "agence"
	AccountDemarcheur   = "demarcheur"
)

// User is a platform account. Password is a bcrypt hash.
type User struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	Email       string    `gorm:"type:varchar(120);not null;uniqueIndex" json:"email"`
	Password    string    `gorm:"type:varchar(100);not null" json:"-"`
	Fullname    string    `gorm:"type:varchar(120);not null" json:"fullname"`
	Phone       string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	AccountType string    `gorm:"type:varchar(20);not null;default:proprietaire" json:"account_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// CallerContext is the authenticated identity threaded explicitly into every
// core operation. Never read from ambient/global state.
type CallerContext struct {
	OwnerID uuid.UUID
}
