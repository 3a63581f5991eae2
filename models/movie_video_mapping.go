package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// MovieVideoMapping links a registered archive video to a canonical movie.
type MovieVideoMapping struct {
	tableName struct{} `pg:"movie_video_mappings"`

	ID        uuid.UUID `pg:"id,pk,type:uuid,default:uuid_generate_v4()"`
	MovieID   int64     `pg:"movie_id,notnull"`
	IAVideoID uuid.UUID `pg:"ia_video_id,type:uuid,notnull"`
	IsPrimary bool      `pg:"is_primary,use_zero"`
	CreatedAt time.Time `pg:"created_at,default:now()"`
}

func InsertMovieVideoMapping(ctx context.Context, db *pg.DB, movieID int64, videoID uuid.UUID, isPrimary bool) error {
	m := &MovieVideoMapping{
		MovieID:   movieID,
		IAVideoID: videoID,
		IsPrimary: isPrimary,
	}
	_, err := db.Model(m).
		Context(ctx).
		Insert()
	if err != nil {
		return errors.Wrapf(err, "failed to insert mapping for movie %v", movieID)
	}
	return nil
}
