// Package archival orchestrates destructive deletions as ordered sagas. The
// file store cannot join the relational transaction, so each saga archives
// first and makes the relational commit the last irreversible step. Phase
// failures halt the saga where they occur; earlier phases are append-only on
// the archive side and are not rolled back.
package archival

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"time"

	"immoci-backend/internal/application/artifacts"
	"immoci-backend/internal/application/validation"
	"immoci-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing-deletion phase names, surfaced in ArchivalError for manual resume.
const (
	PhaseInput      = "controle"
	PhaseSnapshot   = "instantane"
	PhaseArchive    = "archivage_artefacts"
	PhaseHistory    = "insertion_historique"
	PhaseFiles      = "suppression_fichiers"
	PhaseRelational = "suppression_relationnelle"
)

type Saga struct {
	DB      *gorm.DB
	Storage artifacts.Storage
	Now     func() time.Time
}

func (s *Saga) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DeleteListingResult is returned on success.
type DeleteListingResult struct {
	ListingID         uuid.UUID `json:"id_bien_supprime"`
	ArchivedPhotoPath string    `json:"photo_archivee"`
}

// listingSnapshot is the phase-2 read: everything the HistoryRecord needs.
type listingSnapshot struct {
	listing       domain.Listing
	location      *domain.Location
	mainPhotoPath string
	conditions    []string
}

// DeleteListing runs the listing-deletion saga:
//  1. ownership and motif check (no side effects on failure)
//  2. snapshot read
//  3. main-photo archival (copy, never move; missing source is fatal)
//  4. history insert
//  5. physical file deletion (best effort, logged)
//  6. relational deletion in one transaction
func (s *Saga) DeleteListing(ctx context.Context, caller domain.CallerContext, listingID uuid.UUID, motif string) (*DeleteListingResult, error) {
	// Phase 1. Validation and authorization surface verbatim, before any
	// read beyond the ownership lookup.
	if err := validation.ValidateMotif(motif); err != nil {
		return nil, err
	}
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.ArchivalError{Phase: PhaseInput, Err: err}
	}
	if listing.OwnerID != caller.OwnerID {
		return nil, domain.ErrUnauthorized
	}

	// Phase 2.
	snap, err := s.snapshot(ctx, listing)
	if err != nil {
		return nil, err
	}

	// Phase 3. The archive must be a faithful copy of what existed: a
	// missing source file fails the whole operation.
	archivedPath := ""
	if snap.mainPhotoPath != "" {
		archivedPath, err = s.Storage.ArchiveCopy(snap.mainPhotoPath, path.Join("biens", listingID.String()))
		if err != nil {
			return nil, &domain.ArchivalError{Phase: PhaseArchive, Err: err}
		}
	}

	// Phase 4.
	if err := s.insertHistory(ctx, snap, archivedPath, motif); err != nil {
		return nil, &domain.ArchivalError{Phase: PhaseHistory, Err: err}
	}

	// Phase 5. Originals are disposable once archived; per-file failures
	// are logged and do not block.
	if snap.mainPhotoPath != "" {
		if err := s.Storage.Remove(snap.mainPhotoPath); err != nil {
			log.Warn().Err(err).Str("path", snap.mainPhotoPath).Msg("main photo removal failed")
		}
	}
	if err := s.Storage.RemoveTree(path.Join("biens", listingID.String(), "pieces")); err != nil {
		log.Warn().Err(err).Str("listing_id", listingID.String()).Msg("room photo tree removal failed")
	}

	// Phase 6.
	if err := s.deleteListingRows(ctx, listingID); err != nil {
		return nil, &domain.ArchivalError{Phase: PhaseRelational, Err: err}
	}

	log.Info().Str("listing_id", listingID.String()).Str("photo_archivee", archivedPath).Msg("listing deleted")
	return &DeleteListingResult{ListingID: listingID, ArchivedPhotoPath: archivedPath}, nil
}

func (s *Saga) snapshot(ctx context.Context, listing domain.Listing) (*listingSnapshot, error) {
	snap := &listingSnapshot{listing: listing}

	var photo domain.MainPhoto
	err := s.DB.WithContext(ctx).Where("listing_id = ?", listing.ListingID).First(&photo).Error
	switch {
	case err == nil:
		snap.mainPhotoPath = photo.Path
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no main photo: nothing to archive
	default:
		return nil, &domain.ArchivalError{Phase: PhaseSnapshot, Err: err}
	}

	var loc domain.Location
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listing.ListingID).First(&loc).Error; err == nil {
		snap.location = &loc
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.ArchivalError{Phase: PhaseSnapshot, Err: err}
	}

	var conds []domain.PaymentCondition
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listing.ListingID).Find(&conds).Error; err != nil {
		return nil, &domain.ArchivalError{Phase: PhaseSnapshot, Err: err}
	}
	for _, c := range conds {
		snap.conditions = append(snap.conditions, c.Texte)
	}
	return snap, nil
}

func (s *Saga) insertHistory(ctx context.Context, snap *listingSnapshot, archivedPath, motif string) error {
	l := snap.listing
	rec := domain.HistoryRecord{
		ID:                uuid.New(),
		ListingID:         l.ListingID,
		OwnerID:           l.OwnerID,
		TypeBien:          l.TypeBien,
		TypeOffre:         l.TypeOffre,
		Titre:             l.Titre,
		Description:       l.Description,
		Prix:              l.Prix,
		Surface:           l.Surface,
		ArchivedPhotoPath: archivedPath,
		Motif:             motif,
		DeletedAt:         s.now(),
	}
	if snap.location != nil {
		rec.Ville = snap.location.Ville
		rec.Commune = snap.location.Commune
	}
	if len(snap.conditions) > 0 {
		if b, err := marshalExtras(map[string]interface{}{"conditions_paiement": snap.conditions}); err == nil {
			rec.Extras = datatypes.JSON(b)
		}
	}
	return s.DB.WithContext(ctx).Create(&rec).Error
}

// deleteListingRows removes every child row then the scalar row in one
// transaction. The filesystem may already be modified by phase 5; the
// HistoryRecord is the durable record of intent either way.
func (s *Saga) deleteListingRows(ctx context.Context, listingID uuid.UUID) error {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	fail := func(err error) error {
		tx.Rollback()
		return err
	}

	var rooms []domain.Room
	if err := tx.Where("listing_id = ?", listingID).Find(&rooms).Error; err != nil {
		return fail(err)
	}
	for _, r := range rooms {
		if err := tx.Where("room_id = ?", r.ID).Delete(&domain.RoomPhoto{}).Error; err != nil {
			return fail(err)
		}
	}
	children := []interface{}{
		&domain.Room{},
		&domain.Video{},
		&domain.MainPhoto{},
		&domain.Bonus{},
		&domain.PaymentCondition{},
		&domain.Amenity{},
		&domain.AccessibilityFeature{},
		&domain.ListingDocument{},
		&domain.ExteriorFeature{},
		&domain.InteriorFeature{},
		&domain.Location{},
	}
	for _, m := range children {
		if err := tx.Where("listing_id = ?", listingID).Delete(m).Error; err != nil {
			return fail(err)
		}
	}
	if err := tx.Where("listing_id = ?", listingID).Delete(&domain.Listing{}).Error; err != nil {
		return fail(err)
	}
	return tx.Commit().Error
}

func marshalExtras(v map[string]interface{}) ([]byte, error) {
	return json.Marshal(v)
}
