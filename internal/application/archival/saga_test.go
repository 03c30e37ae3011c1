package archival

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"testing"
	"time"

	"immoci-backend/internal/application/artifacts"
	"immoci-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStorage keeps artifacts in maps so phase failures can be injected
// without touching disk.
type fakeStorage struct {
	files           map[string]bool
	archives        map[string]bool
	failArchiveCopy bool
	failRemove      bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string]bool{}, archives: map[string]bool{}}
}

func (f *fakeStorage) Store(field, dir string, r io.Reader, size int64, c artifacts.Constraints) (string, error) {
	io.Copy(io.Discard, r)
	p := path.Join(dir, uuid.New().String()+".png")
	f.files[p] = true
	return p, nil
}

func (f *fakeStorage) ArchiveCopy(sourcePath, archiveDir string) (string, error) {
	if f.failArchiveCopy {
		return "", errors.New("disque plein")
	}
	if !f.files[sourcePath] {
		return "", fmt.Errorf("artefact source absent: %s: %w", sourcePath, domain.ErrNotFound)
	}
	p := path.Join(archiveDir, path.Base(sourcePath))
	f.archives[p] = true
	return p, nil
}

func (f *fakeStorage) CopyArchived(sourcePath, archiveDir string) (string, error) {
	if !f.archives[sourcePath] {
		return "", fmt.Errorf("artefact source absent: %s: %w", sourcePath, domain.ErrNotFound)
	}
	p := path.Join(archiveDir, path.Base(sourcePath))
	f.archives[p] = true
	return p, nil
}

func (f *fakeStorage) Remove(p string) error {
	if f.failRemove {
		return errors.New("suppression refusee")
	}
	delete(f.files, p)
	return nil
}

func (f *fakeStorage) RemoveTree(dir string) error {
	if f.failRemove {
		return errors.New("suppression refusee")
	}
	prefix := path.Clean(dir) + "/"
	for p := range f.files {
		if strings.HasPrefix(p, prefix) {
			delete(f.files, p)
		}
	}
	return nil
}

func (f *fakeStorage) RemoveArchiveTree(dir string) error {
	prefix := path.Clean(dir) + "/"
	for p := range f.archives {
		if strings.HasPrefix(p, prefix) {
			delete(f.archives, p)
		}
	}
	return nil
}

func (f *fakeStorage) Exists(p string) bool { return f.files[p] }

func (f *fakeStorage) archiveCount(prefix string) int {
	n := 0
	for p := range f.archives {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func setupSaga(t *testing.T) (*Saga, *fakeStorage) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.OwnerProfile{}, &domain.AgencyProfile{}, &domain.CanvasserProfile{},
		&domain.Listing{}, &domain.Location{},
		&domain.InteriorFeature{}, &domain.ExteriorFeature{},
		&domain.ListingDocument{}, &domain.AccessibilityFeature{},
		&domain.Amenity{}, &domain.PaymentCondition{}, &domain.Bonus{},
		&domain.Room{}, &domain.RoomPhoto{}, &domain.MainPhoto{}, &domain.Video{},
		&domain.HistoryRecord{}, &domain.DeletedAccount{},
	))
	fs := newFakeStorage()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &Saga{DB: db, Storage: fs, Now: func() time.Time { return now }}, fs
}

// seedListing inserts a full listing with a main photo, one room photo, one
// payment condition and a location, and registers the photo files.
func seedListing(t *testing.T, s *Saga, fs *fakeStorage, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.DB.Create(&domain.Listing{
		ListingID: id, OwnerID: ownerID,
		TypeBien: domain.TypeMaison, TypeOffre: domain.OffreLocation,
		Titre: "Belle villa 4 pieces", Description: "Villa basse avec jardin et garage",
		Prix: 350000, FraisVisite: "Non",
		StatutOccupation: "Libre", Meuble: "Non", Disponibilite: "Immediate",
		PublicationStatus: domain.StatusPublished,
	}).Error)
	require.NoError(t, s.DB.Create(&domain.Location{ID: uuid.New(), ListingID: id, Ville: "Abidjan", Commune: "Cocody", Quartier: "Riviera"}).Error)
	require.NoError(t, s.DB.Create(&domain.PaymentCondition{ID: uuid.New(), ListingID: id, Texte: "Deux mois de caution"}).Error)

	mainPath := path.Join("biens", id.String(), "principale", "cover.png")
	fs.files[mainPath] = true
	require.NoError(t, s.DB.Create(&domain.MainPhoto{ID: uuid.New(), ListingID: id, Path: mainPath}).Error)

	room := domain.Room{ID: uuid.New(), ListingID: id, Nom: "Salon"}
	require.NoError(t, s.DB.Create(&room).Error)
	roomPath := path.Join("biens", id.String(), "pieces", "0", "salon.png")
	fs.files[roomPath] = true
	require.NoError(t, s.DB.Create(&domain.RoomPhoto{ID: uuid.New(), RoomID: room.ID, Path: roomPath}).Error)
	return id
}

const validMotif = "Le bien a deja ete vendu"

func TestDeleteListing_Success(t *testing.T) {
	s, fs := setupSaga(t)
	owner := uuid.New()
	id := seedListing(t, s, fs, owner)

	res, err := s.DeleteListing(context.Background(), domain.CallerContext{OwnerID: owner}, id, validMotif)
	require.NoError(t, err)
	assert.Equal(t, id, res.ListingID)
	assert.Equal(t, path.Join("biens", id.String(), "cover.png"), res.ArchivedPhotoPath)
	assert.True(t, fs.archives[res.ArchivedPhotoPath])

	// Exactly one history row, carrying the motif and the archive path.
	var recs []domain.HistoryRecord
	require.NoError(t, s.DB.Where("listing_id = ?", id).Find(&recs).Error)
	require.Len(t, recs, 1)
	assert.Equal(t, validMotif, recs[0].Motif)
	assert.Equal(t, res.ArchivedPhotoPath, recs[0].ArchivedPhotoPath)
	assert.Equal(t, "Abidjan", recs[0].Ville)
	assert.Equal(t, owner, recs[0].OwnerID)
	assert.JSONEq(t, `{"conditions_paiement":["Deux mois de caution"]}`, string(recs[0].Extras))

	// Relational rows gone, original files gone.
	var n int64
	require.NoError(t, s.DB.Model(&domain.Listing{}).Where("listing_id = ?", id).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	require.NoError(t, s.DB.Model(&domain.Room{}).Where("listing_id = ?", id).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	require.NoError(t, s.DB.Model(&domain.Location{}).Where("listing_id = ?", id).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	assert.Empty(t, fs.files)
}

func TestDeleteListing_NoMainPhoto(t *testing.T) {
	s, fs := setupSaga(t)
	owner := uuid.New()
	id := seedListing(t, s, fs, owner)
	require.NoError(t, s.DB.Where("listing_id = ?", id).Delete(&domain.MainPhoto{}).Error)

	res, err := s.DeleteListing(context.Background(), domain.CallerContext{OwnerID: owner}, id, validMotif)
	require.NoError(t, err)
	assert.Empty(t, res.ArchivedPhotoPath)

	var rec domain.HistoryRecord
	require.NoError(t, s.DB.Where("listing_id = ?", id).First(&rec).Error)
	assert.Empty(t, rec.ArchivedPhotoPath)
}

func TestDeleteListing_MotifTooShortCheckedFirst(t *testing.T) {
	s, fs := setupSaga(t)
	owner := uuid.New()
	id := seedListing(t, s, fs, owner)

	_, err := s.DeleteListing(context.Background(), domain.CallerContext{OwnerID: owner}, id, "vendu")
	require.EqualError(t, err, "motif trop court")

	// No phase ran: listing intact, nothing archived, no history row.
	var n int64
	require.NoError(t, s.DB.Model(&domain.Listing{}).Where("listing_id = ?", id).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, s.DB.Model(&domain.HistoryRecord{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	assert.Empty(t, fs.archives)
}

func TestDeleteListing_WrongOwner(t *testing.T) {
	s, fs := setupSaga(t)
	id := seedListing(t, s, fs, uuid.New())

	_, err := s.DeleteListing(context.Background(), domain.CallerContext{OwnerID: uuid.New()}, id, validMotif)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestDeleteListing_Unknown(t *testing.T) {
	s, _ := setupSaga(t)
	_, err := s.DeleteListing(context.Background(), domain.CallerContext{OwnerID: uuid.New()}, uuid.New(), validMotif)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteListing_ArchiveFailureHaltsSaga(t *testing.T) {
	s, fs := setupSaga(t)
	owner := uuid.New()
	id := seedListing(t, s, fs, owner)
	fs.failArchiveCopy = true

	_, err := s.DeleteListing(context.Background(), domain.CallerContext{OwnerID: owner}, id, validMotif)
	var aerr *domain.ArchivalError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, PhaseArchive, aerr.Phase)

	// Later phases never ran: no history, rows and files intact.
	var n int64
	require.NoError(t, s.DB.Model(&domain.HistoryRecord{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	require.NoError(t, s.DB.Model(&domain.Listing{}).Where("listing_id = ?", id).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	assert.Len(t, fs.files, 2)
}

func TestDeleteListing_MissingSourceIsFatal(t *testing.T) {
	s, fs := setupSaga(t)
	owner := uuid.New()
	id := seedListing(t, s, fs, owner)

	var photo domain.MainPhoto
	require.NoError(t, s.DB.Where("listing_id = ?", id).First(&photo).Error)
	delete(fs.files, photo.Path)

	_, err := s.DeleteListing(context.Background(), domain.CallerContext{OwnerID: owner}, id, validMotif)
	var aerr *domain.ArchivalError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, PhaseArchive, aerr.Phase)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteListing_FileRemovalFailureDoesNotBlock(t *testing.T) {
	s, fs := setupSaga(t)
	owner := uuid.New()
	id := seedListing(t, s, fs, owner)
	fs.failRemove = true

	res, err := s.DeleteListing(context.Background(), domain.CallerContext{OwnerID: owner}, id, validMotif)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ArchivedPhotoPath)

	var n int64
	require.NoError(t, s.DB.Model(&domain.Listing{}).Where("listing_id = ?", id).Count(&n).Error)
	assert.EqualValues(t, 0, n, "relational deletion proceeds past file warnings")
}
