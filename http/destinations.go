package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tours/entity"
)

type destinationRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Country     string `json:"country" validate:"required,max=255"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

func (r destinationRequest) apply(d *entity.Destination) {
	d.Name = r.Name
	d.Country = r.Country
	d.Description = r.Description
	d.ImageURL = r.ImageURL
}

func (h handler) ListDestinations(c echo.Context) error {
	page := pageFromQuery(c)
	items, total, err := h.destinations.List(c.Request().Context(), c.QueryParam("q"), page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, items, total, page)
}

func (h handler) GetDestination(c echo.Context) error {
	d, err := h.destinations.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h handler) CreateDestination(c echo.Context) error {
	var request destinationRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	d := entity.Destination{ID: uuid.NewString(), CreatedAt: h.now().UTC()}
	request.apply(&d)

	if err := h.destinations.Add(c.Request().Context(), d); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h handler) UpdateDestination(c echo.Context) error {
	var request destinationRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	d, err := h.destinations.ByID(ctx, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	request.apply(&d)

	if err := h.destinations.Update(ctx, d); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h handler) DeleteDestination(c echo.Context) error {
	if err := h.destinations.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
