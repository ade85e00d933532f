package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tours/auth"
	"tours/entity"
)

const contextKeyUser = "user"

func currentUser(c echo.Context) (entity.User, bool) {
	u, ok := c.Get(contextKeyUser).(entity.User)
	return u, ok
}

func mustUser(c echo.Context) entity.User {
	u, _ := currentUser(c)
	return u
}

func (h handler) resolveUser(c echo.Context) (entity.User, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return entity.User{}, &echo.HTTPError{Code: http.StatusUnauthorized, Message: "missing bearer token"}
	}

	claims, err := h.tokens.Parse(token)
	if err != nil {
		return entity.User{}, &echo.HTTPError{Code: http.StatusUnauthorized, Message: "invalid token", Internal: err}
	}

	u, err := h.users.ByID(c.Request().Context(), claims.UserID())
	if errors.Is(err, entity.ErrNotFound) {
		return entity.User{}, &echo.HTTPError{Code: http.StatusUnauthorized, Message: "invalid token", Internal: err}
	}
	if err != nil {
		return entity.User{}, toHTTPError(err)
	}
	if u.Status == entity.UserBlocked {
		return entity.User{}, toHTTPError(entity.ErrUserBlocked)
	}

	return u, nil
}

// authenticate requires a valid token of a user that still exists and is not blocked.
func (h handler) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := h.resolveUser(c)
		if err != nil {
			return err
		}
		c.Set(contextKeyUser, u)
		return next(c)
	}
}

// identify is authenticate for public routes: anonymous requests pass through.
func (h handler) identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
			return next(c)
		}
		return h.authenticate(next)(c)
	}
}

func requireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := currentUser(c)
			if !ok {
				return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "authentication required"}
			}
			for _, r := range roles {
				if u.Role == r {
					return next(c)
				}
			}
			return toHTTPError(fmt.Errorf("role %s: %w", u.Role, entity.ErrForbidden))
		}
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=HOST TOURIST"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

func (h handler) Register(c echo.Context) error {
	var request registerRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	hash, err := auth.HashPassword(request.Password)
	if err != nil {
		return toHTTPError(err)
	}

	u := entity.User{
		ID:           uuid.NewString(),
		Name:         request.Name,
		Email:        strings.ToLower(request.Email),
		PasswordHash: hash,
		Role:         entity.Role(request.Role),
		Status:       entity.UserActive,
		CreatedAt:    h.now().UTC(),
	}
	if err := h.users.Add(c.Request().Context(), u); err != nil {
		return toHTTPError(err)
	}

	return h.respondWithToken(c, http.StatusCreated, u)
}

func (h handler) Login(c echo.Context) error {
	var request loginRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	u, err := h.users.ByEmail(c.Request().Context(), request.Email)
	if errors.Is(err, entity.ErrNotFound) {
		return toHTTPError(entity.ErrInvalidCredentials)
	}
	if err != nil {
		return toHTTPError(err)
	}

	if err := auth.CheckPassword(u.PasswordHash, request.Password); err != nil {
		return toHTTPError(err)
	}
	if u.Status == entity.UserBlocked {
		return toHTTPError(entity.ErrUserBlocked)
	}

	return h.respondWithToken(c, http.StatusOK, u)
}

func (h handler) respondWithToken(c echo.Context, code int, u entity.User) error {
	token, err := h.tokens.Issue(u)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(code, authResponse{Token: token, User: u})
}

func (h handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, mustUser(c))
}

type updateProfileRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	TelegramChatID *int64 `json:"telegram_chat_id"`
}

func (h handler) UpdateMe(c echo.Context) error {
	var request updateProfileRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	u := mustUser(c)
	if err := h.users.UpdateProfile(c.Request().Context(), u.ID, request.Name, request.TelegramChatID); err != nil {
		return toHTTPError(err)
	}

	u.Name = request.Name
	u.TelegramChatID = request.TelegramChatID
	return c.JSON(http.StatusOK, u)
}
