package sync

import (
	"context"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	cs "github.com/webtor-io/common-services"

	"github.com/movieverse/catalog/models"
)

// PGRegistry is the Postgres-backed Registry.
type PGRegistry struct {
	pg *cs.PG
}

func NewPGRegistry(pg *cs.PG) *PGRegistry {
	return &PGRegistry{
		pg: pg,
	}
}

var _ Registry = (*PGRegistry)(nil)

func (s *PGRegistry) KnownIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	db := s.pg.Get()
	if db == nil {
		return nil, errors.New("db not initialized")
	}
	ids, err := models.GetKnownArchiveIdentifiers(ctx, db)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}

func (s *PGRegistry) AddVideo(ctx context.Context, v *models.ArchiveVideo) error {
	db := s.pg.Get()
	if db == nil {
		return errors.New("db not initialized")
	}
	return models.InsertArchiveVideo(ctx, db, v)
}

func (s *PGRegistry) AddMapping(ctx context.Context, movieID int64, videoID uuid.UUID) error {
	db := s.pg.Get()
	if db == nil {
		return errors.New("db not initialized")
	}
	return models.InsertMovieVideoMapping(ctx, db, movieID, videoID, true)
}
