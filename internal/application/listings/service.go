// Package listings is the persistence coordinator of the wizard: one
// validated payload in, one relational transaction out. Repeatable
// sub-collections are replaced wholesale (delete-then-reinsert), never
// patched row by row.
package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"immoci-backend/internal/application/artifacts"
	"immoci-backend/internal/application/validation"
	"immoci-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB      *gorm.DB
	Storage artifacts.Storage
}

// Upload is one new binary part of a submission.
type Upload struct {
	Field  string
	Reader io.Reader
	Size   int64
}

// NewArtifacts carries the binary parts of a submission: the optional main
// photo and the new photos per room index.
type NewArtifacts struct {
	MainPhoto  *Upload
	RoomPhotos map[int][]Upload
}

func (a *NewArtifacts) roomPhotoCount(idx int) int {
	if a == nil {
		return 0
	}
	return len(a.RoomPhotos[idx])
}

// CreateOrUpdate persists a fully submitted wizard payload. With a nil
// listingID a new listing is created; otherwise the existing one is replaced
// after an ownership check. Artifacts are staged before the relational
// transaction; a commit failure leaves them orphaned on disk (logged, not
// compensated).
func (s *Service) CreateOrUpdate(ctx context.Context, caller domain.CallerContext, listingID *uuid.UUID, payload *domain.ListingPayload, newArtifacts *NewArtifacts) (uuid.UUID, error) {
	var existing *domain.Listing
	if listingID != nil {
		var l domain.Listing
		if err := s.DB.WithContext(ctx).Where("listing_id = ?", *listingID).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, domain.ErrNotFound
			}
			return uuid.Nil, &domain.PersistenceError{Op: "chargement du bien", Err: err}
		}
		if l.OwnerID != caller.OwnerID {
			return uuid.Nil, domain.ErrUnauthorized
		}
		existing = &l
	}

	// Mirror the new-photo counts into the payload so the media-step rule
	// (one photo per room) sees uploads that are not yet stored.
	if newArtifacts != nil {
		if newArtifacts.MainPhoto != nil {
			payload.Medias.HasNewMainPhoto = true
		}
		for i := range payload.Caracteristiques.Pieces {
			payload.Caracteristiques.Pieces[i].NewPhotoCount = newArtifacts.roomPhotoCount(i)
		}
	}

	if verr := validation.ValidateAll(payload); verr != nil {
		return uuid.Nil, verr
	}

	id := uuid.New()
	if existing != nil {
		id = existing.ListingID
	}

	mainPhotoPath, roomPhotoPaths, err := s.stageArtifacts(id, payload, newArtifacts)
	if err != nil {
		return uuid.Nil, err
	}
	staged := collectStaged(mainPhotoPath, roomPhotoPaths)

	if err := s.writeRows(ctx, caller, id, existing, payload, mainPhotoPath, roomPhotoPaths); err != nil {
		for _, p := range staged {
			log.Error().Str("path", p).Msg("listing write failed, staged artifact orphaned")
		}
		return uuid.Nil, err
	}
	return id, nil
}

// stageArtifacts stores every new binary before any relational write. On a
// failure mid-batch, already staged files from this submission are removed
// so the listing stays unchanged.
func (s *Service) stageArtifacts(id uuid.UUID, payload *domain.ListingPayload, newArtifacts *NewArtifacts) (string, map[int][]string, error) {
	if newArtifacts == nil {
		return "", nil, nil
	}
	var staged []string
	cleanup := func() {
		for _, p := range staged {
			if err := s.Storage.Remove(p); err != nil {
				log.Warn().Err(err).Str("path", p).Msg("staged artifact cleanup failed")
			}
		}
	}

	var mainPhotoPath string
	if u := newArtifacts.MainPhoto; u != nil {
		p, err := s.Storage.Store(u.Field, path.Join("biens", id.String(), "principale"), u.Reader, u.Size, artifacts.ImageConstraints)
		if err != nil {
			return "", nil, err
		}
		mainPhotoPath = p
		staged = append(staged, p)
	}

	roomPhotoPaths := make(map[int][]string)
	for idx, files := range newArtifacts.RoomPhotos {
		dir := path.Join("biens", id.String(), "pieces", strconv.Itoa(idx))
		for _, u := range files {
			p, err := s.Storage.Store(u.Field, dir, u.Reader, u.Size, artifacts.ImageConstraints)
			if err != nil {
				cleanup()
				return "", nil, err
			}
			roomPhotoPaths[idx] = append(roomPhotoPaths[idx], p)
			staged = append(staged, p)
		}
	}
	return mainPhotoPath, roomPhotoPaths, nil
}

// writeRows runs the single relational transaction of a submission.
func (s *Service) writeRows(ctx context.Context, caller domain.CallerContext, id uuid.UUID, existing *domain.Listing, payload *domain.ListingPayload, mainPhotoPath string, roomPhotoPaths map[int][]string) error {
	g := &payload.InfosGenerales
	terrain := g.TypeBien == domain.TypeTerrain

	listing := domain.Listing{
		ListingID:         id,
		OwnerID:           caller.OwnerID,
		TypeBien:          g.TypeBien,
		TypeOffre:         g.TypeOffre,
		Titre:             g.Titre,
		Description:       g.Description,
		Prix:              mustFloat(g.PrixBien),
		FraisVisite:       g.FraisVisite,
		PrixVisite:        optFloat(g.PrixVisite),
		Surface:           optFloat(g.Surface),
		PublicationStatus: domain.StatusPending,
	}
	if !terrain {
		listing.StatutOccupation = g.StatutOccupation
		listing.Meuble = g.Meuble
		listing.Disponibilite = g.Disponibilite
	}
	if existing != nil {
		listing.PublicationStatus = existing.PublicationStatus
		listing.PublishedAt = existing.PublishedAt
		listing.CreatedAt = existing.CreatedAt
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	fail := func(op string, err error) error {
		tx.Rollback()
		return &domain.PersistenceError{Op: op, Err: err}
	}

	if err := tx.Save(&listing).Error; err != nil {
		return fail("bien", err)
	}

	if err := replaceLocation(tx, id, &payload.Localisation); err != nil {
		return fail("localisation", err)
	}

	// Whole-set replacement of every repeatable sub-collection. For Terrain
	// the insert sets are empty, which also clears leftovers after a type
	// change.
	interior := []domain.InteriorFeature{}
	exterior := []domain.ExteriorFeature{}
	docs := []domain.ListingDocument{}
	access := []domain.AccessibilityFeature{}
	if !terrain {
		for _, it := range payload.Caracteristiques.Interieures {
			interior = append(interior, domain.InteriorFeature{ID: uuid.New(), ListingID: id, Titre: it.Titre, Contenu: it.Contenu})
		}
		for _, v := range payload.Caracteristiques.Exterieures {
			exterior = append(exterior, domain.ExteriorFeature{ID: uuid.New(), ListingID: id, Valeur: v})
		}
		for _, v := range payload.Documents {
			docs = append(docs, domain.ListingDocument{ID: uuid.New(), ListingID: id, Nom: v})
		}
		for _, v := range payload.Accessibilite {
			access = append(access, domain.AccessibilityFeature{ID: uuid.New(), ListingID: id, Nom: v})
		}
	}
	amenities := make([]domain.Amenity, 0, len(payload.Commodites))
	for _, v := range payload.Commodites {
		amenities = append(amenities, domain.Amenity{ID: uuid.New(), ListingID: id, Nom: v})
	}
	conds := make([]domain.PaymentCondition, 0, len(payload.ConditionsBonus.Conditions))
	for _, v := range payload.ConditionsBonus.Conditions {
		conds = append(conds, domain.PaymentCondition{ID: uuid.New(), ListingID: id, Texte: v})
	}
	bonuses := make([]domain.Bonus, 0, len(payload.ConditionsBonus.Bonus))
	for _, v := range payload.ConditionsBonus.Bonus {
		bonuses = append(bonuses, domain.Bonus{ID: uuid.New(), ListingID: id, Texte: v})
	}

	if err := replaceRows(tx, id, &domain.InteriorFeature{}, interior); err != nil {
		return fail("caracteristiques interieures", err)
	}
	if err := replaceRows(tx, id, &domain.ExteriorFeature{}, exterior); err != nil {
		return fail("caracteristiques exterieures", err)
	}
	if err := replaceRows(tx, id, &domain.ListingDocument{}, docs); err != nil {
		return fail("documents", err)
	}
	if err := replaceRows(tx, id, &domain.AccessibilityFeature{}, access); err != nil {
		return fail("accessibilite", err)
	}
	if err := replaceRows(tx, id, &domain.Amenity{}, amenities); err != nil {
		return fail("commodites", err)
	}
	if err := replaceRows(tx, id, &domain.PaymentCondition{}, conds); err != nil {
		return fail("conditions de paiement", err)
	}
	if err := replaceRows(tx, id, &domain.Bonus{}, bonuses); err != nil {
		return fail("bonus", err)
	}

	// Singletons: only replaced when a new value was supplied; omission on
	// edit preserves the previous row.
	if mainPhotoPath != "" {
		if err := tx.Where("listing_id = ?", id).Delete(&domain.MainPhoto{}).Error; err != nil {
			return fail("photo principale", err)
		}
		if err := tx.Create(&domain.MainPhoto{ID: uuid.New(), ListingID: id, Path: mainPhotoPath}).Error; err != nil {
			return fail("photo principale", err)
		}
	}
	if m := &payload.Medias; m.VideoPlateforme != "" && m.VideoURL != "" {
		if err := tx.Where("listing_id = ?", id).Delete(&domain.Video{}).Error; err != nil {
			return fail("video", err)
		}
		if err := tx.Create(&domain.Video{ID: uuid.New(), ListingID: id, Platform: m.VideoPlateforme, URL: m.VideoURL}).Error; err != nil {
			return fail("video", err)
		}
	}

	if err := replaceRooms(tx, id, terrain, payload.Caracteristiques.Pieces, roomPhotoPaths); err != nil {
		return fail("pieces", err)
	}

	if err := tx.Commit().Error; err != nil {
		return &domain.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

func replaceLocation(tx *gorm.DB, id uuid.UUID, l *domain.LocalisationPayload) error {
	if err := tx.Where("listing_id = ?", id).Delete(&domain.Location{}).Error; err != nil {
		return err
	}
	return tx.Create(&domain.Location{
		ID:        uuid.New(),
		ListingID: id,
		Ville:     l.Ville,
		Commune:   l.Commune,
		Quartier:  l.Quartier,
	}).Error
}

// replaceRows deletes every row of one sub-collection for the listing and
// inserts the full new set.
func replaceRows[T any](tx *gorm.DB, id uuid.UUID, model *T, rows []T) error {
	if err := tx.Where("listing_id = ?", id).Delete(model).Error; err != nil {
		return err
	}
	_, toInsert := ReplaceSet(nil, rows)
	if len(toInsert) == 0 {
		return nil
	}
	return tx.Create(&toInsert).Error
}

// replaceRooms rebuilds rooms and their photos together, merging the photo
// paths the caller kept with the freshly staged ones. Order is preserved:
// kept photos first, new uploads after.
func replaceRooms(tx *gorm.DB, id uuid.UUID, terrain bool, rooms []domain.RoomPayload, newPaths map[int][]string) error {
	var oldRooms []domain.Room
	if err := tx.Where("listing_id = ?", id).Find(&oldRooms).Error; err != nil {
		return err
	}
	for _, r := range oldRooms {
		if err := tx.Where("room_id = ?", r.ID).Delete(&domain.RoomPhoto{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("listing_id = ?", id).Delete(&domain.Room{}).Error; err != nil {
		return err
	}
	if terrain {
		return nil
	}
	for i, rp := range rooms {
		room := domain.Room{ID: uuid.New(), ListingID: id, Nom: rp.Nom, Position: i}
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		paths := append(append([]string{}, rp.PhotosExistantes...), newPaths[i]...)
		for pos, p := range paths {
			photo := domain.RoomPhoto{ID: uuid.New(), RoomID: room.ID, Path: p, Position: pos}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// Listings returns the caller's listings, newest first.
func (s *Service) Listings(ctx context.Context, caller domain.CallerContext) ([]domain.Listing, error) {
	var out []domain.Listing
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", caller.OwnerID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "liste des biens", Err: err}
	}
	return out, nil
}

// Publish moves a pending listing to published and stamps published_at.
// Every stored room-photo path must still resolve to an artifact: a caller
// can keep arbitrary photos_existantes on edit, so publication is where
// dangling references are caught.
func (s *Service) Publish(ctx context.Context, caller domain.CallerContext, listingID uuid.UUID) error {
	var l domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return &domain.PersistenceError{Op: "chargement du bien", Err: err}
	}
	if l.OwnerID != caller.OwnerID {
		return domain.ErrUnauthorized
	}
	if err := s.checkRoomPhotos(ctx, listingID); err != nil {
		return err
	}
	now := time.Now()
	if err := s.DB.WithContext(ctx).Model(&l).Updates(map[string]interface{}{
		"publication_status": domain.StatusPublished,
		"published_at":       &now,
	}).Error; err != nil {
		return &domain.PersistenceError{Op: "publication", Err: err}
	}
	return nil
}

// checkRoomPhotos verifies that every room photo of the listing exists on
// the artifact store.
func (s *Service) checkRoomPhotos(ctx context.Context, listingID uuid.UUID) error {
	var rooms []domain.Room
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).Order("position").Find(&rooms).Error; err != nil {
		return &domain.PersistenceError{Op: "chargement des pieces", Err: err}
	}
	for _, r := range rooms {
		var photos []domain.RoomPhoto
		if err := s.DB.WithContext(ctx).Where("room_id = ?", r.ID).Find(&photos).Error; err != nil {
			return &domain.PersistenceError{Op: "chargement des photos", Err: err}
		}
		for _, p := range photos {
			if !s.Storage.Exists(p.Path) {
				return &domain.ArtifactError{
					Field:  fmt.Sprintf("pieces_%d_photos", r.Position),
					Reason: "artefact introuvable: " + p.Path,
				}
			}
		}
	}
	return nil
}

func mustFloat(s string) float64 {
	n, _ := strconv.ParseFloat(s, 64)
	return n
}

func optFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}

func collectStaged(mainPhoto string, roomPhotos map[int][]string) []string {
	var out []string
	if mainPhoto != "" {
		out = append(out, mainPhoto)
	}
	for _, ps := range roomPhotos {
		out = append(out, ps...)
	}
	return out
}
