package domain

import "github.com/google/uuid"

// Profile is the closed set of per-account-type profile variants. Archival
// and validation code go through this interface instead of switching on
// account type.
type Profile interface {
	// AccountType returns the account type the variant belongs to.
	AccountType() string
	// DocumentPaths returns the public-root-relative paths of every binary
	// document attached to the profile (for account archival).
	DocumentPaths() []string
	// RequiredFields returns the wire names of fields that must be present
	// for the profile to be complete.
	RequiredFields() []string
}

// OwnerProfile is the profile of an individual property owner.
type OwnerProfile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	IDCardPath  string    `gorm:"type:text" json:"piece_identite"`
	SelfiePath  string    `gorm:"type:text" json:"selfie"`
	BirthDate   string    `gorm:"type:varchar(10)" json:"date_naissance,omitempty"`
	Nationality string    `gorm:"type:varchar(60)" json:"nationalite,omitempty"`
}

func (OwnerProfile) TableName() string { return "profils_proprietaires" }

func (p OwnerProfile) AccountType() string { return AccountProprietaire }

func (p OwnerProfile) DocumentPaths() []string {
	return nonEmpty(p.IDCardPath, p.SelfiePath)
}

func (p OwnerProfile) RequiredFields() []string {
	return []string{"piece_identite", "selfie"}
}

// AgencyProfile is the profile of a registered real-estate agency.
type AgencyProfile struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CompanyName   string    `gorm:"type:varchar(120)" json:"raison_sociale"`
	TradeRegister string    `gorm:"type:varchar(60)" json:"registre_commerce"`
	TaxDocPath    string    `gorm:"type:text" json:"document_dfe"`
	LogoPath      string    `gorm:"type:text" json:"logo"`
}

func (AgencyProfile) TableName() string { return "profils_agences" }

func (p AgencyProfile) AccountType() string { return AccountAgence }

func (p AgencyProfile) DocumentPaths() []string {
	return nonEmpty(p.TaxDocPath, p.LogoPath)
}

func (p AgencyProfile) RequiredFields() []string {
	return []string{"raison_sociale", "registre_commerce", "document_dfe"}
}

// CanvasserProfile is the profile of a property canvasser (demarcheur).
type CanvasserProfile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	IDCardPath  string    `gorm:"type:text" json:"piece_identite"`
	SelfiePath  string    `gorm:"type:text" json:"selfie"`
	SponsorNote string    `gorm:"type:text" json:"note_parrain,omitempty"`
}

func (CanvasserProfile) TableName() string { return "profils_demarcheurs" }

func (p CanvasserProfile) AccountType() string { return AccountDemarcheur }

func (p CanvasserProfile) DocumentPaths() []string {
	return nonEmpty(p.IDCardPath, p.SelfiePath)
}

func (p CanvasserProfile) RequiredFields() []string {
	return []string{"piece_identite", "selfie"}
}

func nonEmpty(paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
