package listings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	archsvc "immoci-backend/internal/application/archival"
	"immoci-backend/internal/application/artifacts"
	listsvc "immoci-backend/internal/application/listings"
	"immoci-backend/internal/domain"
	"immoci-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStorage struct {
	files    map[string]bool
	archives map[string]bool
	seq      int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string]bool{}, archives: map[string]bool{}}
}

func (f *fakeStorage) Store(field, dir string, r io.Reader, size int64, c artifacts.Constraints) (string, error) {
	io.Copy(io.Discard, r)
	f.seq++
	p := path.Join(dir, fmt.Sprintf("photo-%d.png", f.seq))
	f.files[p] = true
	return p, nil
}

func (f *fakeStorage) ArchiveCopy(sourcePath, archiveDir string) (string, error) {
	if !f.files[sourcePath] {
		return "", fmt.Errorf("artefact source absent: %s: %w", sourcePath, domain.ErrNotFound)
	}
	p := path.Join(archiveDir, path.Base(sourcePath))
	f.archives[p] = true
	return p, nil
}

func (f *fakeStorage) CopyArchived(sourcePath, archiveDir string) (string, error) {
	p := path.Join(archiveDir, path.Base(sourcePath))
	f.archives[p] = true
	return p, nil
}

func (f *fakeStorage) Remove(p string) error { delete(f.files, p); return nil }

func (f *fakeStorage) RemoveTree(dir string) error {
	prefix := path.Clean(dir) + "/"
	for p := range f.files {
		if strings.HasPrefix(p, prefix) {
			delete(f.files, p)
		}
	}
	return nil
}

func (f *fakeStorage) RemoveArchiveTree(dir string) error { return nil }

func (f *fakeStorage) Exists(p string) bool { return f.files[p] }

// sessionStub plants the session user the way the session middleware does.
func sessionStub(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": userID.String()})
		return c.Next()
	}
}

func setupApp(t *testing.T, userID uuid.UUID, authenticated bool) (*fiber.App, *gorm.DB, *fakeStorage) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Listing{}, &domain.Location{},
		&domain.InteriorFeature{}, &domain.ExteriorFeature{},
		&domain.ListingDocument{}, &domain.AccessibilityFeature{},
		&domain.Amenity{}, &domain.PaymentCondition{}, &domain.Bonus{},
		&domain.Room{}, &domain.RoomPhoto{}, &domain.MainPhoto{}, &domain.Video{},
		&domain.HistoryRecord{},
	))
	fs := newFakeStorage()
	h := &Handlers{
		Service: &listsvc.Service{DB: db, Storage: fs},
		Saga:    &archsvc.Saga{DB: db, Storage: fs, Now: time.Now},
	}

	app := fiber.New()
	if authenticated {
		app.Use(sessionStub(userID))
	}
	group := app.Group("/api/v1/biens", middleware.RequireAuth())
	group.Get("/", h.MyListings)
	group.Post("/", h.CreateListing)
	group.Post("/validate-step", h.ValidateStep)
	group.Post("/reprise", h.ResumeStep)
	group.Put("/:id_bien", h.EditListing)
	group.Post("/:id_bien/publier", h.Publish)
	group.Delete("/", h.DeleteListing)
	return app, db, fs
}

func maisonPayload() *domain.ListingPayload {
	return &domain.ListingPayload{
		InfosGenerales: domain.InfosGeneralesPayload{
			TypeBien:         domain.TypeMaison,
			TypeOffre:        domain.OffreLocation,
			Titre:            "Belle villa 4 pieces",
			Description:      "Villa basse avec jardin et garage",
			PrixBien:         "350000",
			FraisVisite:      "Non",
			StatutOccupation: "Libre",
			Meuble:           "Non",
			Disponibilite:    "Immediate",
		},
		Localisation: domain.LocalisationPayload{Ville: "Abidjan", Commune: "Cocody", Quartier: "Riviera"},
		Caracteristiques: domain.CaracteristiquesPayload{
			Pieces: []domain.RoomPayload{{Nom: "Salon"}},
		},
		Commodites: []string{"Ecole"},
	}
}

// multipartSubmission builds the wire shape the wizard submits: a JSON
// payload part plus binary photo parts.
func multipartSubmission(t *testing.T, payload *domain.ListingPayload, withMainPhoto bool, roomPhotoCounts map[int]int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("payload", string(raw)))
	if withMainPhoto {
		fw, err := w.CreateFormFile("photo_principale", "cover.png")
		require.NoError(t, err)
		fw.Write([]byte("img"))
	}
	for idx, count := range roomPhotoCounts {
		field := fmt.Sprintf("pieces_%d_photos", idx)
		for i := 0; i < count; i++ {
			fw, err := w.CreateFormFile(field, fmt.Sprintf("p%d.png", i))
			require.NoError(t, err)
			fw.Write([]byte("img"))
		}
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateListing_Multipart(t *testing.T) {
	userID := uuid.New()
	app, db, fs := setupApp(t, userID, true)

	buf, contentType := multipartSubmission(t, maisonPayload(), true, map[int]int{0: 1})
	req := httptest.NewRequest("POST", "/api/v1/biens", buf)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	id, err := uuid.Parse(body["id_bien"].(string))
	require.NoError(t, err)

	var l domain.Listing
	require.NoError(t, db.Where("listing_id = ?", id).First(&l).Error)
	assert.Equal(t, userID, l.OwnerID)
	assert.Len(t, fs.files, 2)
}

func TestCreateListing_ValidationFailureReportsStep(t *testing.T) {
	app, _, _ := setupApp(t, uuid.New(), true)

	payload := maisonPayload()
	payload.Localisation.Quartier = ""
	buf, contentType := multipartSubmission(t, payload, true, map[int]int{0: 1})
	req := httptest.NewRequest("POST", "/api/v1/biens", buf)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 400, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.EqualValues(t, 2, body["step"])
	errs := body["errors"].(map[string]interface{})
	assert.Equal(t, "obligatoire", errs["quartier"])
}

func TestValidateStep_TerrainMissingSurface(t *testing.T) {
	app, _, _ := setupApp(t, uuid.New(), true)

	body, err := json.Marshal(map[string]interface{}{
		"step": 1,
		"payload": map[string]interface{}{
			"informations_generales": map[string]interface{}{
				"type_bien":    domain.TypeTerrain,
				"type_offre":   domain.OffreVente,
				"prix_bien":    "5000000",
				"frais_visite": "Non",
				"titre":        "Parcelle A Bingerville",
				"description":  "Terrain plat de 500m2 bien situe",
			},
		},
	})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/biens/validate-step", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, false, out["valid"])
	errs := out["errors"].(map[string]interface{})
	assert.Equal(t, "obligatoire", errs["surface"])
	assert.Len(t, errs, 1)
}

func TestResumeStep(t *testing.T) {
	app, _, _ := setupApp(t, uuid.New(), true)

	payload := maisonPayload()
	payload.Localisation = domain.LocalisationPayload{}
	raw, err := json.Marshal(map[string]interface{}{"payload": payload})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/biens/reprise", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.EqualValues(t, 2, out["step"])
}

func TestDeleteListing_ShortMotif(t *testing.T) {
	app, _, _ := setupApp(t, uuid.New(), true)

	raw, _ := json.Marshal(map[string]string{"id_bien": uuid.NewString(), "motif": "vendu"})
	req := httptest.NewRequest("DELETE", "/api/v1/biens", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 400, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "motif trop court", out["erreur"])
}

func TestDeleteListing_Success(t *testing.T) {
	userID := uuid.New()
	app, db, _ := setupApp(t, userID, true)

	buf, contentType := multipartSubmission(t, maisonPayload(), true, map[int]int{0: 1})
	req := httptest.NewRequest("POST", "/api/v1/biens", buf)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	id := decodeBody(t, resp)["id_bien"].(string)

	raw, _ := json.Marshal(map[string]string{"id_bien": id, "motif": "Le bien a deja ete vendu"})
	req = httptest.NewRequest("DELETE", "/api/v1/biens", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	out := decodeBody(t, resp)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, id, out["id_bien_supprime"])
	assert.NotEmpty(t, out["photo_archivee"])

	var n int64
	require.NoError(t, db.Model(&domain.Listing{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	require.NoError(t, db.Model(&domain.HistoryRecord{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestDeleteListing_NotOwner(t *testing.T) {
	owner := uuid.New()
	app, db, fs := setupApp(t, owner, true)

	buf, contentType := multipartSubmission(t, maisonPayload(), true, map[int]int{0: 1})
	req := httptest.NewRequest("POST", "/api/v1/biens", buf)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	id := decodeBody(t, resp)["id_bien"].(string)

	// Same backend, different session user.
	intruder := fiber.New()
	intruder.Use(sessionStub(uuid.New()))
	h := &Handlers{
		Service: &listsvc.Service{DB: db, Storage: fs},
		Saga:    &archsvc.Saga{DB: db, Storage: fs, Now: time.Now},
	}
	intruder.Delete("/api/v1/biens", middleware.RequireAuth(), h.DeleteListing)

	raw, _ := json.Marshal(map[string]string{"id_bien": id, "motif": "Le bien a deja ete vendu"})
	req = httptest.NewRequest("DELETE", "/api/v1/biens", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err = intruder.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	var l domain.Listing
	require.NoError(t, db.Where("listing_id = ?", id).First(&l).Error)
	require.Equal(t, owner, l.OwnerID)
}

func TestListings_Unauthenticated(t *testing.T) {
	app, _, _ := setupApp(t, uuid.New(), false)

	req := httptest.NewRequest("GET", "/api/v1/biens", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestEditListing_BadID(t *testing.T) {
	app, _, _ := setupApp(t, uuid.New(), true)

	req := httptest.NewRequest("PUT", "/api/v1/biens/pas-un-uuid", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
