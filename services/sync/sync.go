package sync

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"

	"github.com/movieverse/catalog/models"
	"github.com/movieverse/catalog/services/archive"
	"github.com/movieverse/catalog/services/tmdb"
)

// Inventory lists archive uploads and per-item details.
type Inventory interface {
	ListUploads(ctx context.Context) ([]archive.Item, error)
	ItemMetadata(ctx context.Context, identifier string) (*archive.ItemMeta, error)
}

// Resolver matches a free-text title to a canonical movie record.
type Resolver interface {
	SearchByTitle(ctx context.Context, title string) (*tmdb.Movie, error)
}

// Registry is the persisted record of archive items already processed.
type Registry interface {
	KnownIdentifiers(ctx context.Context) (map[string]struct{}, error)
	AddVideo(ctx context.Context, v *models.ArchiveVideo) error
	AddMapping(ctx context.Context, movieID int64, videoID uuid.UUID) error
}

// NewVideo describes one registry entry created during a run.
type NewVideo struct {
	Identifier  string  `json:"identifier"`
	Title       string  `json:"title"`
	MovieID     *int64  `json:"movieId"`
	PosterURL   *string `json:"posterUrl"`
	ReleaseYear *int16  `json:"releaseYear"`
}

// Summary is the run report.
type Summary struct {
	TotalScanned      int        `json:"totalScanned"`
	NewVideosAdded    int        `json:"newVideosAdded"`
	DuplicatesSkipped int        `json:"duplicatesSkipped"`
	NewVideos         []NewVideo `json:"newVideos"`
	Timestamp         time.Time  `json:"timestamp"`
}

// Syncer reconciles the video registry with the archive inventory in a
// single sequential pass. Only the inventory fetch and the dedup-set load
// abort a run; every per-item failure is logged and skipped.
type Syncer struct {
	inventory Inventory
	resolver  Resolver
	registry  Registry
}

// New builds a Syncer. A nil resolver disables canonical-match enrichment:
// entries stay unlinked with movie id 0 and no mappings are written.
func New(inventory Inventory, resolver Resolver, registry Registry) *Syncer {
	return &Syncer{
		inventory: inventory,
		resolver:  resolver,
		registry:  registry,
	}
}

func (s *Syncer) Run(ctx context.Context) (*Summary, error) {
	log.Info("starting archive auto-sync")

	items, err := s.inventory.ListUploads(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch archive inventory")
	}
	log.Infof("found %v items in archive inventory", len(items))

	known, err := s.registry.KnownIdentifiers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load known identifiers")
	}
	log.Infof("found %v existing videos in registry", len(known))

	summary := &Summary{
		TotalScanned: len(items),
		NewVideos:    []NewVideo{},
		Timestamp:    time.Now().UTC(),
	}

	for _, item := range items {
		if _, ok := known[item.Identifier]; ok {
			log.Infof("skipping duplicate %v", item.Identifier)
			summary.DuplicatesSkipped++
			continue
		}
		nv, err := s.processItem(ctx, item)
		if err != nil {
			if models.IsConstraintViolation(err) {
				// Lost a check-then-insert race with a concurrent run.
				log.Warnf("archive item %v already registered, skipping", item.Identifier)
			} else {
				log.WithError(err).Errorf("failed to process archive item %v", item.Identifier)
			}
			continue
		}
		summary.NewVideos = append(summary.NewVideos, *nv)
	}
	summary.NewVideosAdded = len(summary.NewVideos)

	log.Infof("sync completed: scanned=%v added=%v skipped=%v",
		summary.TotalScanned, summary.NewVideosAdded, summary.DuplicatesSkipped)
	return summary, nil
}

func (s *Syncer) processItem(ctx context.Context, item archive.Item) (*NewVideo, error) {
	log.Infof("processing new video %v", item.Identifier)

	meta, err := s.inventory.ItemMetadata(ctx, item.Identifier)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch item metadata")
	}

	title := item.Title.String()
	if title == "" {
		title = item.Identifier
	}

	var fileSize *int64
	if f := archive.SelectVideoFile(meta.Files); f != nil {
		if size := f.SizeBytes(); size > 0 {
			fileSize = &size
		}
	}
	if fileSize == nil && item.ItemSize > 0 {
		size := item.ItemSize
		fileSize = &size
	}

	description := item.Description.String()
	if description == "" {
		description = meta.Metadata.Description.String()
	}

	movie := s.resolve(ctx, item.Title.String())

	v := &models.ArchiveVideo{
		IAIdentifier: item.Identifier,
		Title:        title,
		UploadDate:   uploadDate(item.PublicDate),
		FileSize:     fileSize,
		Duration:     durationSeconds(meta.Metadata.Runtime.String()),
		IsActive:     true,
	}
	if description != "" {
		v.Description = &description
	}
	if movie != nil {
		v.MovieID = movie.ID
		v.TMDBTitle = &movie.Title
		if movie.Overview != "" {
			v.TMDBOverview = &movie.Overview
		}
		if movie.PosterPath != "" {
			v.PosterPath = &movie.PosterPath
		}
		v.ReleaseYear = movie.Year()
	}

	if err := s.registry.AddVideo(ctx, v); err != nil {
		return nil, errors.Wrap(err, "failed to insert registry entry")
	}

	if fileSize != nil {
		log.Infof("new movie added: %v (%v)", v.Title, humanize.Bytes(uint64(*fileSize)))
	} else {
		log.Infof("new movie added: %v", v.Title)
	}

	nv := &NewVideo{
		Identifier: item.Identifier,
		Title:      title,
	}
	if movie != nil {
		movieID := movie.ID
		nv.MovieID = &movieID
		nv.Title = movie.Title
		nv.ReleaseYear = movie.Year()
		if movie.PosterPath != "" {
			posterURL := tmdb.PosterURL(movie.PosterPath)
			nv.PosterURL = &posterURL
		}
		// The entry is kept even when the mapping insert fails.
		if err := s.registry.AddMapping(ctx, movie.ID, v.ID); err != nil {
			log.WithError(err).Errorf("failed to create movie mapping for %v", item.Identifier)
		}
	}
	return nv, nil
}

func (s *Syncer) resolve(ctx context.Context, title string) *tmdb.Movie {
	if s.resolver == nil {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	log.Infof("searching canonical match for %q", title)
	movie, err := s.resolver.SearchByTitle(ctx, title)
	if err != nil {
		// Treated as no-match, the run continues.
		log.WithError(err).Errorf("canonical lookup failed for %q", title)
		return nil
	}
	if movie == nil {
		log.Infof("no canonical match found for %q", title)
		return nil
	}
	log.Infof("matched %q to movie %v (%v)", title, movie.ID, movie.Title)
	return movie
}

// durationSeconds converts the archive runtime field (minutes, possibly
// fractional) to whole seconds.
func durationSeconds(runtime string) *int {
	runtime = strings.TrimSpace(runtime)
	if runtime == "" {
		return nil
	}
	minutes, err := strconv.ParseFloat(runtime, 64)
	if err != nil {
		return nil
	}
	seconds := int(minutes * 60)
	return &seconds
}

func uploadDate(publicDate string) time.Time {
	if publicDate != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, publicDate); err == nil {
				return t
			}
		}
	}
	return time.Now().UTC()
}
