package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tours/entity"
)

type blogRequest struct {
	DestinationID *string  `json:"destination_id" validate:"omitempty,uuid"`
	Title         string   `json:"title" validate:"required,max=255"`
	Content       string   `json:"content" validate:"required"`
	CoverImage    string   `json:"cover_image" validate:"omitempty,url"`
	Tags          []string `json:"tags" validate:"max=20,dive,max=50"`
}

func (r blogRequest) apply(b *entity.Blog) {
	b.DestinationID = r.DestinationID
	b.Title = r.Title
	b.Content = r.Content
	b.CoverImage = r.CoverImage
	b.Tags = r.Tags
}

type moderateBlogRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PUBLISHED REJECTED"`
}

func canManageBlog(u entity.User, b entity.Blog) bool {
	return u.IsAdmin() || b.AuthorID == u.ID
}

func (h handler) ListBlogs(c echo.Context) error {
	f := entity.BlogFilter{
		AuthorID:      c.QueryParam("author_id"),
		DestinationID: c.QueryParam("destination_id"),
		Status:        entity.BlogStatus(strings.ToUpper(c.QueryParam("status"))),
		Query:         strings.TrimSpace(c.QueryParam("q")),
	}
	if f.Status != "" && !f.Status.Valid() {
		return toHTTPError(entity.NewValidationError(fmt.Sprintf("unknown status %s", f.Status)))
	}

	u, ok := currentUser(c)
	if !ok || !(u.IsAdmin() || f.AuthorID == u.ID) {
		f.Status = entity.BlogPublished
	}

	page := pageFromQuery(c)
	blogs, total, err := h.blogs.List(c.Request().Context(), f, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, blogs, total, page)
}

func (h handler) GetBlog(c echo.Context) error {
	b, err := h.blogs.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}

	if b.Status != entity.BlogPublished {
		u, ok := currentUser(c)
		if !ok || !canManageBlog(u, b) {
			return toHTTPError(fmt.Errorf("blog %s: %w", b.ID, entity.ErrNotFound))
		}
	}
	return c.JSON(http.StatusOK, b)
}

// CreateBlog publishes admin posts straight away; host posts count against quota and wait for moderation.
func (h handler) CreateBlog(c echo.Context) error {
	var request blogRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u := mustUser(c)
	now := h.now().UTC()

	b := entity.Blog{
		ID:        uuid.NewString(),
		AuthorID:  u.ID,
		Status:    entity.InitialBlogStatus(u.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	request.apply(&b)

	var quota *entity.Quota
	if !u.IsAdmin() {
		q, _, err := h.quotaFor(ctx, u.ID)
		if err != nil {
			return toHTTPError(err)
		}
		quota = &q
	}

	if err := h.blogs.Add(ctx, b, quota); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h handler) UpdateBlog(c echo.Context) error {
	var request blogRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u := mustUser(c)

	b, err := h.blogs.ByID(ctx, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if b.AuthorID != u.ID {
		return toHTTPError(fmt.Errorf("blog %s: %w", b.ID, entity.ErrForbidden))
	}

	request.apply(&b)
	b.Status = entity.InitialBlogStatus(u.Role)
	b.UpdatedAt = h.now().UTC()

	if err := h.blogs.Update(ctx, b); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h handler) DeleteBlog(c echo.Context) error {
	ctx := c.Request().Context()

	b, err := h.blogs.ByID(ctx, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if !canManageBlog(mustUser(c), b) {
		return toHTTPError(fmt.Errorf("blog %s: %w", b.ID, entity.ErrForbidden))
	}

	if err := h.blogs.Delete(ctx, b.ID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h handler) ModerateBlog(c echo.Context) error {
	var request moderateBlogRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.blogs.UpdateStatus(ctx, c.Param("id"), entity.BlogStatus(request.Status)); err != nil {
		return toHTTPError(err)
	}

	b, err := h.blogs.ByID(ctx, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, b)
}
