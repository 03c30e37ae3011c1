package listings

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"

	archsvc "immoci-backend/internal/application/archival"
	listsvc "immoci-backend/internal/application/listings"
	"immoci-backend/internal/application/validation"
	"immoci-backend/internal/domain"
	"immoci-backend/internal/middleware"
	"immoci-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *listsvc.Service
	Saga    *archsvc.Saga
}

// POST /api/v1/biens — create a listing from a full wizard payload.
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	return h.submit(c, nil)
}

// PUT /api/v1/biens/:id_bien — replace an existing listing.
func (h *Handlers) EditListing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id_bien"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "id_bien invalide"})
	}
	return h.submit(c, &id)
}

// submit parses the multipart submission (JSON payload part + binary parts
// photo_principale and pieces_{index}_photos) and hands it to the
// persistence coordinator.
func (h *Handlers) submit(c *fiber.Ctx, listingID *uuid.UUID) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return response.Unauthorized(c, "Non authentifie")
	}

	payload, uploads, closeFns, err := parseSubmission(c)
	defer func() {
		for _, fn := range closeFns {
			fn()
		}
	}()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	id, err := h.Service.CreateOrUpdate(c.Context(), caller, listingID, payload, uploads)
	if err != nil {
		return submissionError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "id_bien": id})
}

// POST /api/v1/biens/validate-step — pre-submit check, same engine as the
// authoritative gate.
func (h *Handlers) ValidateStep(c *fiber.Ctx) error {
	var body struct {
		Step    int                   `json:"step"`
		Payload domain.ListingPayload `json:"payload"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "corps de requete invalide"})
	}
	res := validation.ValidateStep(body.Step, &body.Payload)
	return c.JSON(fiber.Map{"valid": res.Valid, "errors": res.Errors})
}

// POST /api/v1/biens/reprise — where does an interrupted edit resume?
func (h *Handlers) ResumeStep(c *fiber.Ctx) error {
	var body struct {
		Payload domain.ListingPayload `json:"payload"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "corps de requete invalide"})
	}
	return c.JSON(fiber.Map{"step": validation.ResumeStep(&body.Payload)})
}

// GET /api/v1/biens — the caller's listings.
func (h *Handlers) MyListings(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return response.Unauthorized(c, "Non authentifie")
	}
	data, err := h.Service.Listings(c.Context(), caller)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Biens du compte", data, nil)
}

// POST /api/v1/biens/:id_bien/publier
func (h *Handlers) Publish(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return response.Unauthorized(c, "Non authentifie")
	}
	id, err := uuid.Parse(c.Params("id_bien"))
	if err != nil {
		return response.Error(c, "id_bien invalide", 400, nil)
	}
	if err := h.Service.Publish(c.Context(), caller, id); err != nil {
		var aerr *domain.ArtifactError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.Error(c, "Bien introuvable", 404, nil)
		case errors.Is(err, domain.ErrUnauthorized):
			return response.Error(c, "Acces non autorise", 403, nil)
		case errors.As(err, &aerr):
			return response.Error(c, "Photo de piece introuvable", 400, map[string]string{aerr.Field: aerr.Reason})
		default:
			return response.Error(c, "Internal Server Error", 500, nil)
		}
	}
	return response.Success(c, "Bien publie", nil, nil)
}

// DELETE /api/v1/biens — runs the deletion saga. Body: {id_bien, motif}.
func (h *Handlers) DeleteListing(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return response.Unauthorized(c, "Non authentifie")
	}
	var body struct {
		IDBien string `json:"id_bien"`
		Motif  string `json:"motif"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "erreur": "corps de requete invalide"})
	}
	id, err := uuid.Parse(body.IDBien)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "erreur": "id_bien invalide"})
	}

	res, err := h.Saga.DeleteListing(c.Context(), caller, id, body.Motif)
	if err != nil {
		var aerr *domain.ArchivalError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"success": false, "erreur": "bien introuvable"})
		case errors.Is(err, domain.ErrUnauthorized):
			return c.Status(403).JSON(fiber.Map{"success": false, "erreur": "acces non autorise"})
		case errors.As(err, &aerr):
			log.Error().Err(aerr.Err).Str("phase", aerr.Phase).Str("id_bien", id.String()).Msg("listing deletion saga halted")
			return c.Status(500).JSON(fiber.Map{"success": false, "erreur": fmt.Sprintf("echec de l'archivage (%s)", aerr.Phase)})
		default:
			// motif validation error, surfaced verbatim
			return c.Status(400).JSON(fiber.Map{"success": false, "erreur": err.Error()})
		}
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"id_bien_supprime": res.ListingID,
		"photo_archivee":   res.ArchivedPhotoPath,
	})
}

// submissionError maps a coordinator failure to the wire shape.
func submissionError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	var aerr *domain.ArtifactError
	var perr *domain.PersistenceError
	switch {
	case errors.As(err, &verr):
		return response.StepError(c, 400, verr.Step, verr.Errors, "validation echouee")
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "acces non autorise"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "bien introuvable"})
	case errors.As(err, &aerr):
		return response.StepError(c, 400, 0, map[string]string{aerr.Field: aerr.Reason}, "artefact refuse")
	case errors.As(err, &perr):
		log.Error().Err(perr).Msg("listing persistence failed")
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Internal Server Error"})
	default:
		log.Error().Err(err).Msg("listing submission failed")
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Internal Server Error"})
	}
}

// parseSubmission extracts the JSON payload part and the binary parts from
// a multipart request. A plain JSON body (no binaries) is also accepted.
func parseSubmission(c *fiber.Ctx) (*domain.ListingPayload, *listsvc.NewArtifacts, []func(), error) {
	var payload domain.ListingPayload
	var closeFns []func()

	form, err := c.MultipartForm()
	if err != nil {
		// Not multipart: the whole body is the payload.
		if jsonErr := json.Unmarshal(c.Body(), &payload); jsonErr != nil {
			return nil, nil, closeFns, errors.New("corps de requete invalide")
		}
		return &payload, nil, closeFns, nil
	}

	raw := firstValue(form, "payload")
	if raw == "" {
		return nil, nil, closeFns, errors.New("partie payload manquante")
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, nil, closeFns, errors.New("payload invalide")
	}

	uploads := &listsvc.NewArtifacts{RoomPhotos: map[int][]listsvc.Upload{}}
	open := func(field string, fh *multipart.FileHeader) (*listsvc.Upload, error) {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("lecture de %s impossible", field)
		}
		closeFns = append(closeFns, func() { f.Close() })
		return &listsvc.Upload{Field: field, Reader: f, Size: fh.Size}, nil
	}

	if fhs := form.File["photo_principale"]; len(fhs) > 0 {
		u, err := open("photo_principale", fhs[0])
		if err != nil {
			return nil, nil, closeFns, err
		}
		uploads.MainPhoto = u
	}
	for i := range payload.Caracteristiques.Pieces {
		field := fmt.Sprintf("pieces_%d_photos", i)
		for _, fh := range form.File[field] {
			u, err := open(field, fh)
			if err != nil {
				return nil, nil, closeFns, err
			}
			uploads.RoomPhotos[i] = append(uploads.RoomPhotos[i], *u)
		}
	}
	return &payload, uploads, closeFns, nil
}

func firstValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
