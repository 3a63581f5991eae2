package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// ArchiveVideo is one registered archive item. The unique index on
// ia_identifier is the dedup key: at most one row per archive item.
type ArchiveVideo struct {
	tableName struct{} `pg:"ia_videos"`

	ID           uuid.UUID `pg:"id,pk,type:uuid,default:uuid_generate_v4()"`
	IAIdentifier string    `pg:"ia_identifier,notnull"`
	Title        string    `pg:"title,notnull"`
	Description  *string   `pg:"description"`
	MovieID      int64     `pg:"movie_id,notnull,use_zero"`
	TMDBTitle    *string   `pg:"tmdb_title"`
	TMDBOverview *string   `pg:"tmdb_overview"`
	PosterPath   *string   `pg:"poster_path"`
	ReleaseYear  *int16    `pg:"release_year"`
	FileSize     *int64    `pg:"file_size"`
	Duration     *int      `pg:"duration"`
	UploadDate   time.Time `pg:"upload_date"`
	IsActive     bool      `pg:"is_active,use_zero"`
	CreatedAt    time.Time `pg:"created_at,default:now()"`
	UpdatedAt    time.Time `pg:"updated_at,default:now()"`
}

func GetKnownArchiveIdentifiers(ctx context.Context, db *pg.DB) ([]string, error) {
	var ids []string
	err := db.Model((*ArchiveVideo)(nil)).
		Column("ia_identifier").
		Context(ctx).
		Select(&ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list known archive identifiers")
	}
	return ids, nil
}

// InsertArchiveVideo inserts the row and fills the generated id.
func InsertArchiveVideo(ctx context.Context, db *pg.DB, v *ArchiveVideo) error {
	_, err := db.Model(v).
		Returning("*").
		Context(ctx).
		Insert()
	if err != nil {
		return errors.Wrapf(err, "failed to insert archive video %v", v.IAIdentifier)
	}
	return nil
}

func GetActiveVideosForMovie(ctx context.Context, db *pg.DB, movieID int64) ([]*ArchiveVideo, error) {
	var videos []*ArchiveVideo
	err := db.Model(&videos).
		Where("movie_id = ? AND is_active = ?", movieID, true).
		Order("created_at DESC").
		Context(ctx).
		Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch videos for movie %v", movieID)
	}
	return videos, nil
}

// IsConstraintViolation reports whether err is a unique or referential
// integrity violation from Postgres.
func IsConstraintViolation(err error) bool {
	var pgErr pg.Error
	if errors.As(errors.Cause(err), &pgErr) {
		return pgErr.IntegrityViolation()
	}
	return false
}
