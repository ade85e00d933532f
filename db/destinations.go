package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tours/entity"
)

const destinationColumns = `destination_id, name, country, description, image_url, created_at`

type DestinationRepo struct {
	db *sqlx.DB
}

func NewDestinationRepo(db *sqlx.DB) DestinationRepo {
	return DestinationRepo{
		db: db,
	}
}

func (r DestinationRepo) Add(ctx context.Context, d entity.Destination) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO destinations
		(destination_id, name, country, description, image_url)
		VALUES ($1, $2, $3, $4, $5);`,
		d.ID, d.Name, d.Country, d.Description, d.ImageURL)
	if isUniqueViolation(err) {
		return fmt.Errorf("destination %s already exists: %w", d.Name, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting destination: %w", err)
	}
	return nil
}

func (r DestinationRepo) ByID(ctx context.Context, id string) (entity.Destination, error) {
	var d entity.Destination
	err := r.db.GetContext(ctx, &d, "SELECT "+destinationColumns+" FROM destinations WHERE destination_id = $1", id)
	if err != nil {
		return entity.Destination{}, notFound(err, "destination "+id)
	}
	return d, nil
}

func (r DestinationRepo) List(ctx context.Context, query string, page entity.Page) ([]entity.Destination, int, error) {
	var c conditions
	if query != "" {
		q := "%" + query + "%"
		c.add("(name ILIKE ? OR country ILIKE ?)", q, q)
	}

	return paged[entity.Destination](ctx, r.db, destinationColumns, "destinations", c, "name", page)
}

func (r DestinationRepo) Update(ctx context.Context, d entity.Destination) error {
	res, err := r.db.ExecContext(ctx, `UPDATE destinations
		SET name = $1, country = $2, description = $3, image_url = $4
		WHERE destination_id = $5`,
		d.Name, d.Country, d.Description, d.ImageURL, d.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("destination %s already exists: %w", d.Name, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating destination: %w", err)
	}
	return checkAffected(res, "destination "+d.ID)
}

func (r DestinationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM destinations WHERE destination_id = $1", id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("destination %s is used by tours: %w", id, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("executing delete query: %w", err)
	}
	return checkAffected(res, "destination "+id)
}
