package account

import (
	"context"
	"encoding/json"
	"errors"

	archsvc "immoci-backend/internal/application/archival"
	"immoci-backend/internal/domain"
	"immoci-backend/internal/middleware"
	"immoci-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Saga   *archsvc.Saga
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

// DELETE /api/v1/compte — destroys the account after password confirmation.
// Body: {motif, mot_de_passe}. On success the session is terminated.
func (h *Handlers) DeleteAccount(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return response.Unauthorized(c, "Non authentifie")
	}
	var body struct {
		Motif      string `json:"motif"`
		MotDePasse string `json:"mot_de_passe"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "erreur": "corps de requete invalide"})
	}

	res, err := h.Saga.DeleteAccount(c.Context(), caller, body.Motif, body.MotDePasse)
	if err != nil {
		var aerr *domain.ArchivalError
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			return c.Status(403).JSON(fiber.Map{"success": false, "erreur": "mot de passe incorrect"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"success": false, "erreur": "compte introuvable"})
		case errors.As(err, &aerr):
			log.Error().Err(aerr.Err).Str("phase", aerr.Phase).Str("user_id", caller.OwnerID.String()).Msg("account deletion saga halted")
			return c.Status(500).JSON(fiber.Map{"success": false, "erreur": "echec de l'archivage du compte"})
		default:
			return c.Status(400).JSON(fiber.Map{"success": false, "erreur": err.Error()})
		}
	}

	// The account is gone; terminate the session.
	if sid := middleware.GetSessionID(c); sid != "" && h.Rdb != nil {
		h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+sid)
	}
	middleware.DestroySession(c)
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return c.JSON(fiber.Map{"success": true, "archive": res.ArchiveRoot, "warnings": warnings})
}
