package repository

import (
	"context"

	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
)

type TagRepository struct {
	db DBTX
}

func NewTagRepository(db DBTX) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Create(ctx context.Context, tag *models.ObjetivoTag) error {
	query := `
		INSERT INTO objetivo_tags (user_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query, tag.UserID, tag.Name, tag.Color).
		Scan(&tag.ID, &tag.CreatedAt)
}

func (r *TagRepository) ListByUser(ctx context.Context, userID int64) ([]models.ObjetivoTag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, color, created_at
		FROM objetivo_tags
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]models.ObjetivoTag, 0)
	for rows.Next() {
		var tag models.ObjetivoTag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *TagRepository) Delete(ctx context.Context, userID, tagID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM objetivo_tags WHERE id = $1 AND user_id = $2`, tagID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
