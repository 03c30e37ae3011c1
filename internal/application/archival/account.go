package archival

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"immoci-backend/internal/application/validation"
	"immoci-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account-deletion phase names.
const (
	PhaseAccountInput    = "controle_compte"
	PhaseAccountArchive  = "archivage_compte"
	PhaseAccountSnapshot = "insertion_compte_supprime"
	PhaseAccountRows     = "suppression_compte"
	PhaseAccountFiles    = "nettoyage_fichiers"
)

// DeleteAccountResult is returned on success. Warnings list original files
// that could not be removed after the archive was secured.
type DeleteAccountResult struct {
	ArchiveRoot string   `json:"archive"`
	Warnings    []string `json:"warnings"`
}

// DeleteAccount destroys an account and everything it owns. Unlike listing
// deletion this saga is fail-closed before any destructive action: the full
// archive tree (profile documents, every listing's artifacts, prior history
// artifacts) is built first, and any copy failure removes the partial
// subtree and aborts with the relational store untouched.
func (s *Saga) DeleteAccount(ctx context.Context, caller domain.CallerContext, motif, password string) (*DeleteAccountResult, error) {
	// Phase 1: motif plus password confirmation; deleting an account is
	// irreversible, so the ambient session is not trusted on its own.
	if err := validateAccountMotif(motif); err != nil {
		return nil, err
	}
	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", caller.OwnerID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.ArchivalError{Phase: PhaseAccountInput, Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	archiveRoot := path.Join("comptes", user.UserID.String())

	// Phase 2: build the archive tree, fail-closed.
	archived, err := s.buildAccountArchive(ctx, &user, archiveRoot)
	if err != nil {
		if cleanupErr := s.Storage.RemoveArchiveTree(archiveRoot); cleanupErr != nil {
			log.Error().Err(cleanupErr).Str("archive", archiveRoot).Msg("partial account archive cleanup failed")
		}
		return nil, err
	}

	// Phase 3: one DeletedAccount row.
	docsJSON, _ := json.Marshal(archived.paths)
	rec := domain.DeletedAccount{
		ID:                uuid.New(),
		UserID:            user.UserID,
		Email:             user.Email,
		Fullname:          user.Fullname,
		AccountType:       user.AccountType,
		ArchivedDocuments: datatypes.JSON(docsJSON),
		ArchiveRoot:       archiveRoot,
		Motif:             motif,
		DeletedAt:         s.now(),
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		if cleanupErr := s.Storage.RemoveArchiveTree(archiveRoot); cleanupErr != nil {
			log.Error().Err(cleanupErr).Str("archive", archiveRoot).Msg("account archive cleanup failed")
		}
		return nil, &domain.ArchivalError{Phase: PhaseAccountSnapshot, Err: err}
	}

	// Phase 4: cascading relational delete. The archive and the
	// DeletedAccount row survive a failure here for manual inspection.
	if err := s.deleteAccountRows(ctx, &user, archived.listingIDs); err != nil {
		return nil, &domain.ArchivalError{Phase: PhaseAccountRows, Err: err}
	}

	// Phase 5: originals are disposable now; collect warnings instead of
	// failing.
	warnings := s.removeAccountOriginals(archived)

	log.Info().Str("user_id", user.UserID.String()).Str("archive", archiveRoot).Int("warnings", len(warnings)).Msg("account deleted")
	return &DeleteAccountResult{ArchiveRoot: archiveRoot, Warnings: warnings}, nil
}

// accountArchive tracks what phase 2 copied and what phase 5 must remove.
type accountArchive struct {
	paths       []string    // archive-relative paths of every copy
	profileDocs []string    // public-relative originals
	listingIDs  []uuid.UUID // listings to purge (rows and file trees)
}

func (s *Saga) buildAccountArchive(ctx context.Context, user *domain.User, root string) (*accountArchive, error) {
	out := &accountArchive{}
	fail := func(err error) (*accountArchive, error) {
		return nil, &domain.ArchivalError{Phase: PhaseAccountArchive, Err: err}
	}

	// Profile documents first.
	profile, err := s.profileFor(ctx, user)
	if err != nil {
		return fail(err)
	}
	if profile != nil {
		for _, doc := range profile.DocumentPaths() {
			archivedPath, err := s.Storage.ArchiveCopy(doc, path.Join(root, "profil"))
			if err != nil {
				return fail(fmt.Errorf("document de profil %s: %w", doc, err))
			}
			out.paths = append(out.paths, archivedPath)
			out.profileDocs = append(out.profileDocs, doc)
		}
	}

	// Then each listing's artifacts.
	var listings []domain.Listing
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", user.UserID).Find(&listings).Error; err != nil {
		return fail(err)
	}
	for _, l := range listings {
		out.listingIDs = append(out.listingIDs, l.ListingID)
		dst := path.Join(root, "biens", l.ListingID.String())

		var photo domain.MainPhoto
		err := s.DB.WithContext(ctx).Where("listing_id = ?", l.ListingID).First(&photo).Error
		if err == nil {
			archivedPath, err := s.Storage.ArchiveCopy(photo.Path, dst)
			if err != nil {
				return fail(fmt.Errorf("photo principale du bien %s: %w", l.ListingID, err))
			}
			out.paths = append(out.paths, archivedPath)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(err)
		}

		var rooms []domain.Room
		if err := s.DB.WithContext(ctx).Where("listing_id = ?", l.ListingID).Find(&rooms).Error; err != nil {
			return fail(err)
		}
		for _, r := range rooms {
			var photos []domain.RoomPhoto
			if err := s.DB.WithContext(ctx).Where("room_id = ?", r.ID).Find(&photos).Error; err != nil {
				return fail(err)
			}
			for _, p := range photos {
				archivedPath, err := s.Storage.ArchiveCopy(p.Path, dst)
				if err != nil {
					return fail(fmt.Errorf("photo de piece du bien %s: %w", l.ListingID, err))
				}
				out.paths = append(out.paths, archivedPath)
			}
		}
	}

	// Finally fold in artifacts of listings already deleted: their photos
	// live in the archive tree, not the public root.
	var history []domain.HistoryRecord
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", user.UserID).Find(&history).Error; err != nil {
		return fail(err)
	}
	for _, h := range history {
		if h.ArchivedPhotoPath == "" {
			continue
		}
		archivedPath, err := s.Storage.CopyArchived(h.ArchivedPhotoPath, path.Join(root, "historique"))
		if err != nil {
			return fail(fmt.Errorf("photo historique %s: %w", h.ArchivedPhotoPath, err))
		}
		out.paths = append(out.paths, archivedPath)
	}
	return out, nil
}

// profileFor loads the profile variant matching the account type. A missing
// profile row is not an error: the account simply has no documents yet.
func (s *Saga) profileFor(ctx context.Context, user *domain.User) (domain.Profile, error) {
	load := func(dst interface{}) (bool, error) {
		err := s.DB.WithContext(ctx).Where("user_id = ?", user.UserID).First(dst).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return err == nil, err
	}
	switch user.AccountType {
	case domain.AccountAgence:
		var p domain.AgencyProfile
		ok, err := load(&p)
		if !ok {
			return nil, err
		}
		return p, nil
	case domain.AccountDemarcheur:
		var p domain.CanvasserProfile
		ok, err := load(&p)
		if !ok {
			return nil, err
		}
		return p, nil
	default:
		var p domain.OwnerProfile
		ok, err := load(&p)
		if !ok {
			return nil, err
		}
		return p, nil
	}
}

func (s *Saga) deleteAccountRows(ctx context.Context, user *domain.User, listingIDs []uuid.UUID) error {
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

	for _, id := range listingIDs {
		var rooms []domain.Room
		if err := tx.Where("listing_id = ?", id).Find(&rooms).Error; err != nil {
			return fail(err)
		}
		for _, r := range rooms {
			if err := tx.Where("room_id = ?", r.ID).Delete(&domain.RoomPhoto{}).Error; err != nil {
				return fail(err)
			}
		}
		children := []interface{}{
			&domain.Room{}, &domain.Video{}, &domain.MainPhoto{},
			&domain.Bonus{}, &domain.PaymentCondition{}, &domain.Amenity{},
			&domain.AccessibilityFeature{}, &domain.ListingDocument{},
			&domain.ExteriorFeature{}, &domain.InteriorFeature{}, &domain.Location{},
		}
		for _, m := range children {
			if err := tx.Where("listing_id = ?", id).Delete(m).Error; err != nil {
				return fail(err)
			}
		}
		if err := tx.Where("listing_id = ?", id).Delete(&domain.Listing{}).Error; err != nil {
			return fail(err)
		}
	}

	for _, m := range []interface{}{&domain.OwnerProfile{}, &domain.AgencyProfile{}, &domain.CanvasserProfile{}} {
		if err := tx.Where("user_id = ?", user.UserID).Delete(m).Error; err != nil {
			return fail(err)
		}
	}
	// HistoryRecord rows are insert-only archival data, never deleted by the
	// application; they outlive the account that produced them.
	if err := tx.Where("user_id = ?", user.UserID).Delete(&domain.User{}).Error; err != nil {
		return fail(err)
	}
	return tx.Commit().Error
}

func (s *Saga) removeAccountOriginals(archived *accountArchive) []string {
	var warnings []string
	for _, doc := range archived.profileDocs {
		if err := s.Storage.Remove(doc); err != nil {
			warnings = append(warnings, fmt.Sprintf("suppression de %s: %v", doc, err))
		}
	}
	for _, id := range archived.listingIDs {
		dir := path.Join("biens", id.String())
		if err := s.Storage.RemoveTree(dir); err != nil {
			warnings = append(warnings, fmt.Sprintf("suppression de %s: %v", dir, err))
		}
	}
	return warnings
}

// validateAccountMotif applies the same motif rules as listing deletion.
func validateAccountMotif(motif string) error {
	return validation.ValidateMotif(motif)
}
