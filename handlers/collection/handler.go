package collection

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/webtor-io/lazymap"

	"github.com/movieverse/catalog/services/archive"
)

// Handler lists the public archive collection with resolved stream URLs.
// The archive is slow and the listing changes rarely, so responses are
// cached.
type Handler struct {
	api   *archive.Api
	cache *lazymap.LazyMap[*Response]
}

type Movie struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty"`
	Duration    string `json:"duration,omitempty"`
	AddedDate   string `json:"addedDate,omitempty"`
	StreamURL   string `json:"streamUrl"`
	EmbedURL    string `json:"embedUrl"`
	DetailURL   string `json:"detailUrl"`
}

type Response struct {
	Collection string  `json:"collection"`
	Count      int     `json:"count"`
	Movies     []Movie `json:"movies"`
}

func RegisterHandler(r *gin.Engine, api *archive.Api) {
	h := &Handler{
		api: api,
		cache: lazymap.New[*Response](&lazymap.Config{
			Expire:      10 * time.Minute,
			ErrorExpire: 30 * time.Second,
		}),
	}
	gr := r.Group("/collection")
	gr.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}))
	gr.GET("", h.index)
	gr.OPTIONS("", h.preflight)
}

func (s *Handler) preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (s *Handler) index(c *gin.Context) {
	res, err := s.cache.Get(s.api.Collection(), func() (*Response, error) {
		return s.fetch(c.Request.Context())
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Handler) fetch(ctx context.Context) (*Response, error) {
	items, err := s.api.ListCollection(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch collection")
	}
	movies := make([]Movie, 0, len(items))
	for _, item := range items {
		m := Movie{
			Identifier:  item.Identifier,
			Title:       item.Title.String(),
			Description: item.Description.String(),
			FileSize:    item.ItemSize,
			Duration:    item.Runtime.String(),
			AddedDate:   item.AddedDate,
			StreamURL:   s.api.EmbedURL(item.Identifier),
			EmbedURL:    s.api.EmbedURL(item.Identifier),
			DetailURL:   s.api.DetailsURL(item.Identifier),
		}
		// A failed per-item metadata fetch degrades to the embed URL.
		meta, err := s.api.ItemMetadata(ctx, item.Identifier)
		if err != nil {
			log.WithError(err).Errorf("failed to fetch metadata for %v", item.Identifier)
		} else if f := archive.SelectVideoFile(meta.Files); f != nil {
			m.StreamURL = s.api.DownloadURL(item.Identifier, f.Name)
		}
		movies = append(movies, m)
	}
	return &Response{
		Collection: s.api.Collection(),
		Count:      len(movies),
		Movies:     movies,
	}, nil
}
