package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
	"github.com/herdirudian/pressflow/internal/usecase"
)

// Pinger is the health-check surface of the database handle.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Router binds the API routes to the use cases.
type Router struct {
	e           *echo.Echo
	coordinator *usecase.Coordinator
	importer    *usecase.Importer
	sources     ports.SourceRepository
	db          Pinger
}

// NewRouter wires the handlers.
func NewRouter(e *echo.Echo, coordinator *usecase.Coordinator, importer *usecase.Importer, sources ports.SourceRepository, db Pinger) *Router {
	return &Router{
		e:           e,
		coordinator: coordinator,
		importer:    importer,
		sources:     sources,
		db:          db,
	}
}

// Bind registers all routes.
func (r *Router) Bind() {
	r.e.GET("/healthz", r.healthHandler)

	// The cron trigger answers GET so a bare curl in a crontab works.
	r.e.GET("/api/cron", r.triggerHandler)
	r.e.POST("/api/pipeline/run", r.triggerHandler)

	r.e.POST("/api/articles/import", r.importHandler)

	r.e.GET("/api/sources", r.listSourcesHandler)
	r.e.POST("/api/sources", r.createSourceHandler)
	r.e.PATCH("/api/sources/:id/active", r.setSourceActiveHandler)
	r.e.DELETE("/api/sources/:id", r.deleteSourceHandler)
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (r *Router) triggerHandler(c echo.Context) error {
	if err := r.coordinator.Trigger(); err != nil {
		if errors.Is(err, usecase.ErrAlreadyRunning) {
			return c.JSON(http.StatusTooManyRequests, statusResponse{
				Success: false,
				Message: "A run is already in progress.",
			})
		}
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusAccepted, statusResponse{
		Success: true,
		Message: "Run started in background. Check system logs for progress.",
	})
}

type importRequest struct {
	URL string `json:"url"`
}

type articleResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Category     string `json:"category"`
	QualityScore int    `json:"qualityScore"`
	Status       string `json:"status"`
}

func (r *Router) importHandler(c echo.Context) error {
	var req importRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "url is required"})
	}

	article, err := r.importer.Import(c.Request().Context(), req.URL)
	if err != nil {
		return c.JSON(http.StatusBadGateway, statusResponse{Success: false, Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, toArticleResponse(article))
}

type sourceRequest struct {
	Name        string `json:"name"`
	RSSURL      string `json:"rssUrl"`
	Category    string `json:"category"`
	HourlyLimit int    `json:"hourlyLimit"`
}

type sourceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RSSURL      string `json:"rssUrl"`
	Category    string `json:"category,omitempty"`
	IsActive    bool   `json:"isActive"`
	HourlyLimit int    `json:"hourlyLimit"`
}

func (r *Router) listSourcesHandler(c echo.Context) error {
	sources, err := r.sources.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "internal server error"})
	}

	out := make([]sourceResponse, 0, len(sources))
	for _, source := range sources {
		out = append(out, toSourceResponse(source))
	}
	return c.JSON(http.StatusOK, out)
}

func (r *Router) createSourceHandler(c echo.Context) error {
	var req sourceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "invalid payload"})
	}
	if req.Name == "" || req.RSSURL == "" {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "name and rssUrl are required"})
	}
	if req.HourlyLimit <= 0 {
		req.HourlyLimit = 5
	}

	source := &domain.Source{
		Name:        req.Name,
		RSSURL:      req.RSSURL,
		Category:    req.Category,
		IsActive:    true,
		HourlyLimit: req.HourlyLimit,
	}
	if err := r.sources.Create(c.Request().Context(), source); err != nil {
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "failed to create source"})
	}

	return c.JSON(http.StatusCreated, toSourceResponse(*source))
}

type setActiveRequest struct {
	IsActive bool `json:"isActive"`
}

func (r *Router) setSourceActiveHandler(c echo.Context) error {
	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "invalid payload"})
	}

	err := r.sources.SetActive(c.Request().Context(), c.Param("id"), req.IsActive)
	if errors.Is(err, ports.ErrNotFound) {
		return c.JSON(http.StatusNotFound, statusResponse{Success: false, Message: "source not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "failed to update source"})
	}

	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "updated"})
}

func (r *Router) deleteSourceHandler(c echo.Context) error {
	err := r.sources.Delete(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ports.ErrNotFound) {
		return c.JSON(http.StatusNotFound, statusResponse{Success: false, Message: "source not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "failed to delete source"})
	}

	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "deleted"})
}

func (r *Router) healthHandler(c echo.Context) error {
	if err := r.db.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, statusResponse{Success: false, Message: "database unreachable"})
	}
	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "ok"})
}

func toArticleResponse(article *domain.Article) articleResponse {
	return articleResponse{
		ID:           article.ID,
		Title:        article.Title,
		Slug:         article.Slug,
		Category:     article.Category,
		QualityScore: article.QualityScore,
		Status:       string(article.Status),
	}
}

func toSourceResponse(source domain.Source) sourceResponse {
	return sourceResponse{
		ID:          source.ID,
		Name:        source.Name,
		RSSURL:      source.RSSURL,
		Category:    source.Category,
		IsActive:    source.IsActive,
		HourlyLimit: source.HourlyLimit,
	}
}
