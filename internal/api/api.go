package api

import (
	"context"
	"net/http"

	"mightstone-backend/internal/components/assert"
	"mightstone-backend/internal/components/telemetry"
	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	report_request_panic = "request.panic"
	report_request_error = "request.error"
)

// Service is the subset of service.Service the HTTP surface serves.
type Service interface {
	SearchCards(ctx context.Context, query string, limit int) ([]service.CardSummary, error)
	CommanderSummary(ctx context.Context, name, budget string) (service.CommanderSummary, error)
	CommanderTags(ctx context.Context, name string) (service.CommanderTags, error)
	AverageDeck(ctx context.Context, req service.AverageDeckRequest) (service.AverageDeck, error)
	Resolve(ctx context.Context, commander, bracket string) (edhrec.Resolution, error)
	Theme(ctx context.Context, req service.ThemeRequest) (service.ThemePage, error)
	CommanderTheme(ctx context.Context, req service.CommanderThemeRequest) (service.ThemePage, error)
	TagIndex(ctx context.Context) ([]edhrec.TagIndexEntry, error)
	Brackets() []string
}

type Handler struct {
	svc Service
	tel telemetry.API
}

func NewHandler(svc Service, tel telemetry.API) *Handler {
	assert.NotNil(svc)
	assert.NotNil(tel)
	return &Handler{svc: svc, tel: telemetry.NewScopedAPI("api", tel)}
}

// NewRouter builds the engine with the request id, access log and recovery
// middleware in front of every route.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(), recovery(h.tel))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	h.RegisterRoutes(&r.RouterGroup)
	return r
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cards/search", h.searchCards)

	commander := rg.Group("/commander")
	commander.GET("/summary", h.commanderSummary)
	commander.GET("/tags", h.commanderTags)

	ed := rg.Group("/edhrec")
	ed.GET("/average-deck", h.averageDeck)
	ed.GET("/resolve", h.resolve)
	ed.GET("/theme", h.theme)
	ed.GET("/commander-theme", h.commanderTheme)
	ed.GET("/tags", h.tagIndex)
	ed.GET("/brackets", h.brackets)
}
