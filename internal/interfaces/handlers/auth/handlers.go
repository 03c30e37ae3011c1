package auth

import (
	"context"

	authsvc "immoci-backend/internal/application/auth"
	"immoci-backend/internal/middleware"
	"immoci-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const userSessionsPrefix = "user_sessions:"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login — authenticate, create session, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Email et mot de passe requis", fiber.StatusBadRequest, nil)
	}
	if req.Email == "" || req.Password == "" {
		return response.Error(c, "Email et mot de passe requis", fiber.StatusBadRequest, nil)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(req.Email, req.Password)
	if err != nil {
		switch err {
		case authsvc.ErrInvalidEmail, authsvc.ErrIncorrectPassword:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:      user.UserID.String(),
		Fullname:    user.Fullname,
		Email:       user.Email,
		AccountType: user.AccountType,
	})

	ctx := context.Background()
	if err := h.Rdb.SAdd(ctx, userSessionsPrefix+user.UserID.String(), sessionID).Err(); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Connexion reussie", fiber.Map{
		"user": fiber.Map{
			"user_id":      user.UserID.String(),
			"fullname":     user.Fullname,
			"email":        user.Email,
			"account_type": user.AccountType,
		},
	}, nil)
}

// Me GET /api/v1/auth/me — return the current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c).(map[string]interface{})
	if !ok || user == nil {
		return response.Error(c, "Non authentifie", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authentifie", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout — drop the session and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	user, _ := middleware.GetUser(c).(map[string]interface{})

	ctx := context.Background()
	if sessionID != "" && h.Rdb != nil {
		if userID, _ := user["user_id"].(string); userID != "" {
			h.Rdb.SRem(ctx, userSessionsPrefix+userID, sessionID)
		}
		h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Deconnexion reussie", nil, nil)
}
