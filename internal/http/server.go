// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradedispatch/internal/http/middleware"
	"tradedispatch/internal/maps"
	"tradedispatch/internal/modules/recommend"
	"tradedispatch/internal/types"
)

type ServerDeps struct {
	Recommend *recommend.Service
	Geocode   *maps.GeocodeService
	Log       *zap.Logger
}

type Server struct {
	recommend *recommend.Service
	geocode   *maps.GeocodeService
	log       *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		recommend: deps.Recommend,
		geocode:   deps.Geocode,
		log:       deps.Log,
	}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.Logging(s.log))

	r.GET("/api/jobs/:id/recommendations", s.HandleRecommendations)
	r.GET("/api/geocode", s.HandleGeocode)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return r
}

// HandleRecommendations serves GET /api/jobs/:id/recommendations.
// Query params: dispatcher_id, curated_only (defaults to false).
func (s *Server) HandleRecommendations(c *gin.Context) {
	jobID := types.ID(c.Param("id"))
	if jobID == "" {
		writeError(c, http.StatusBadRequest, "missing job id")
		return
	}

	curatedOnly := false
	if raw := c.Query("curated_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "curated_only must be a boolean")
			return
		}
		curatedOnly = v
	}

	dispatcherID := types.ID(c.Query("dispatcher_id"))
	if curatedOnly && dispatcherID == "" {
		writeError(c, http.StatusBadRequest, "curated_only requires dispatcher_id")
		return
	}

	res, err := s.recommend.GetRecommendations(c.Request.Context(), jobID, dispatcherID, curatedOnly)
	if err != nil {
		if c.Request.Context().Err() != context.Canceled {
			s.log.Error("recommendation request failed",
				zap.String("jobId", string(jobID)),
				zap.Error(err),
			)
		}
		writeRecommendError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleGeocode serves GET /api/geocode?address=...
func (s *Server) HandleGeocode(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		writeError(c, http.StatusBadRequest, "missing address")
		return
	}

	p, err := s.geocode.Lookup(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, maps.ErrAddressNotFound) {
			writeError(c, http.StatusNotFound, "address not found")
			return
		}
		s.log.Error("geocode failed", zap.String("address", address), zap.Error(err))
		writeError(c, http.StatusBadGateway, "geocoding unavailable")
		return
	}
	c.JSON(http.StatusOK, p)
}
