package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tours/entity"
)

const blogColumns = `blog_id, author_id, destination_id, title, content, cover_image, tags, status, created_at, updated_at`

type BlogRepo struct {
	db *sqlx.DB
}

func NewBlogRepo(db *sqlx.DB) BlogRepo {
	return BlogRepo{
		db: db,
	}
}

func countActiveBlogs(ctx context.Context, q sqlx.QueryerContext, authorID string) (int, error) {
	var used int
	err := sqlx.GetContext(ctx, q, &used, `SELECT COUNT(*) FROM blogs
		WHERE author_id = $1 AND status IN ($2, $3)`, authorID, entity.BlogPending, entity.BlogPublished)
	if err != nil {
		return 0, fmt.Errorf("counting author blogs: %w", err)
	}
	return used, nil
}

func (r BlogRepo) CountActiveByAuthor(ctx context.Context, authorID string) (int, error) {
	return countActiveBlogs(ctx, r.db, authorID)
}

// Add stores a blog post. A nil quota skips the check, as for admins.
func (r BlogRepo) Add(ctx context.Context, b entity.Blog, quota *entity.Quota) error {
	return inTx(ctx, r.db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		if quota != nil {
			used, err := countActiveBlogs(ctx, tx, b.AuthorID)
			if err != nil {
				return err
			}
			if !quota.AllowsBlog(used) {
				return fmt.Errorf("author has %d of %d blogs: %w", used, quota.Blogs, entity.ErrQuotaExceeded)
			}
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO blogs
			(blog_id, author_id, destination_id, title, content, cover_image, tags, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
			b.ID, b.AuthorID, b.DestinationID, b.Title, b.Content, b.CoverImage, b.Tags, b.Status)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("destination: %w", entity.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("inserting blog: %w", err)
		}
		return nil
	})
}

func (r BlogRepo) ByID(ctx context.Context, id string) (entity.Blog, error) {
	var b entity.Blog
	err := r.db.GetContext(ctx, &b, "SELECT "+blogColumns+" FROM blogs WHERE blog_id = $1", id)
	if err != nil {
		return entity.Blog{}, notFound(err, "blog "+id)
	}
	return b, nil
}

func (r BlogRepo) List(ctx context.Context, f entity.BlogFilter, page entity.Page) ([]entity.Blog, int, error) {
	var c conditions
	c.addIf(f.AuthorID != "", "author_id = ?", f.AuthorID)
	c.addIf(f.DestinationID != "", "destination_id = ?", f.DestinationID)
	c.addIf(f.Status != "", "status = ?", f.Status)
	if f.Query != "" {
		q := "%" + f.Query + "%"
		c.add("(title ILIKE ? OR content ILIKE ?)", q, q)
	}

	return paged[entity.Blog](ctx, r.db, blogColumns, "blogs", c, "created_at DESC", page)
}

func (r BlogRepo) Update(ctx context.Context, b entity.Blog) error {
	res, err := r.db.ExecContext(ctx, `UPDATE blogs SET
		destination_id = $1, title = $2, content = $3, cover_image = $4, tags = $5, status = $6, updated_at = NOW()
		WHERE blog_id = $7`,
		b.DestinationID, b.Title, b.Content, b.CoverImage, b.Tags, b.Status, b.ID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("destination: %w", entity.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("updating blog: %w", err)
	}
	return checkAffected(res, "blog "+b.ID)
}

func (r BlogRepo) UpdateStatus(ctx context.Context, id string, status entity.BlogStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE blogs SET status = $1, updated_at = NOW() WHERE blog_id = $2", status, id)
	if err != nil {
		return fmt.Errorf("updating blog status: %w", err)
	}
	return checkAffected(res, "blog "+id)
}

func (r BlogRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM blogs WHERE blog_id = $1", id)
	if err != nil {
		return fmt.Errorf("executing delete query: %w", err)
	}
	return checkAffected(res, "blog "+id)
}
