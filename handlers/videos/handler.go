package videos

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	cs "github.com/webtor-io/common-services"

	"github.com/movieverse/catalog/models"
	"github.com/movieverse/catalog/services/archive"
)

// Handler exposes the registry rows linked to a movie.
type Handler struct {
	pg  *cs.PG
	api *archive.Api
}

type Video struct {
	ID           string `json:"id"`
	MovieID      int64  `json:"movie_id"`
	IAIdentifier string `json:"ia_identifier"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	FileSize     *int64 `json:"file_size,omitempty"`
	Duration     *int   `json:"duration,omitempty"`
	StreamURL    string `json:"streamUrl"`
	EmbedURL     string `json:"embedUrl"`
	DetailURL    string `json:"detailUrl"`
}

func RegisterHandler(r *gin.Engine, pg *cs.PG, api *archive.Api) {
	h := &Handler{
		pg:  pg,
		api: api,
	}
	gr := r.Group("/videos")
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
	movieID, err := strconv.ParseInt(c.Query("movieId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movieId"})
		return
	}
	db := s.pg.Get()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db not initialized"})
		return
	}
	list, err := models.GetActiveVideosForMovie(c.Request.Context(), db, movieID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	videos := make([]Video, 0, len(list))
	for _, v := range list {
		video := Video{
			ID:           v.ID.String(),
			MovieID:      v.MovieID,
			IAIdentifier: v.IAIdentifier,
			Title:        v.Title,
			FileSize:     v.FileSize,
			Duration:     v.Duration,
			StreamURL:    s.api.DownloadURL(v.IAIdentifier, fmt.Sprintf("%v.mp4", v.IAIdentifier)),
			EmbedURL:     s.api.EmbedURL(v.IAIdentifier),
			DetailURL:    s.api.DetailsURL(v.IAIdentifier),
		}
		if v.Description != nil {
			video.Description = *v.Description
		}
		videos = append(videos, video)
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}
