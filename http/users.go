package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tours/entity"
)

type userStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE BLOCKED"`
}

type userRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN HOST TOURIST"`
}

func (h handler) ListUsers(c echo.Context) error {
	f := entity.UserFilter{
		Role:   entity.Role(strings.ToUpper(c.QueryParam("role"))),
		Status: entity.UserStatus(strings.ToUpper(c.QueryParam("status"))),
		Query:  strings.TrimSpace(c.QueryParam("q")),
	}
	if f.Role != "" && !f.Role.Valid() {
		return toHTTPError(entity.NewValidationError(fmt.Sprintf("unknown role %s", f.Role)))
	}
	if f.Status != "" && !f.Status.Valid() {
		return toHTTPError(entity.NewValidationError(fmt.Sprintf("unknown status %s", f.Status)))
	}

	page := pageFromQuery(c)
	users, total, err := h.users.List(c.Request().Context(), f, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, users, total, page)
}

// otherUser rejects admins acting on their own account.
func otherUser(c echo.Context) (string, error) {
	id := c.Param("id")
	if id == mustUser(c).ID {
		return "", toHTTPError(entity.NewValidationError("admins cannot change their own account"))
	}
	return id, nil
}

func (h handler) respondWithUser(c echo.Context, id string) error {
	u, err := h.users.ByID(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h handler) UpdateUserStatus(c echo.Context) error {
	var request userStatusRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}
	id, err := otherUser(c)
	if err != nil {
		return err
	}

	if err := h.users.UpdateStatus(c.Request().Context(), id, entity.UserStatus(request.Status)); err != nil {
		return toHTTPError(err)
	}
	return h.respondWithUser(c, id)
}

func (h handler) UpdateUserRole(c echo.Context) error {
	var request userRoleRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}
	id, err := otherUser(c)
	if err != nil {
		return err
	}

	if err := h.users.UpdateRole(c.Request().Context(), id, entity.Role(request.Role)); err != nil {
		return toHTTPError(err)
	}
	return h.respondWithUser(c, id)
}

func (h handler) DeleteUser(c echo.Context) error {
	id, err := otherUser(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
