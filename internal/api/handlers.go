package api

import (
	"net/http"
	"strconv"
	"strings"

	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/scrapers/scryfall"
	"mightstone-backend/internal/service"

	"github.com/gin-gonic/gin"
)

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// hydrateOptions reads hydrate, images and image_size.
func hydrateOptions(c *gin.Context) (service.HydrateOptions, error) {
	opts := service.HydrateOptions{
		Hydrate:       parseBool(c.Query("hydrate")),
		IncludeImages: parseBool(c.Query("images")),
	}
	if raw := c.Query("image_size"); raw != "" {
		size, err := scryfall.ParseImageSize(raw)
		if err != nil {
			return opts, edhrec.NewValidationError("IMAGE_SIZE_UNSUPPORTED", err.Error())
		}
		opts.ImageSize = size
	}
	return opts, nil
}

func (h *Handler) searchCards(c *gin.Context) {
	cards, err := h.svc.SearchCards(c.Request.Context(), c.Query("q"), parseInt(c.Query("limit"), service.DefaultSearchLimit))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (h *Handler) commanderSummary(c *gin.Context) {
	summary, err := h.svc.CommanderSummary(c.Request.Context(), c.Query("name"), c.Query("budget"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) commanderTags(c *gin.Context) {
	tags, err := h.svc.CommanderTags(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handler) averageDeck(c *gin.Context) {
	opts, err := hydrateOptions(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	req := service.AverageDeckRequest{
		Commander:      c.Query("name"),
		Bracket:        c.Query("bracket"),
		HydrateOptions: opts,
	}
	deck, err := h.svc.AverageDeck(c.Request.Context(), req)
	if err != nil {
		// deck consumers read the same shape on failure
		e := edhrec.AsError(err)
		c.JSON(statusOf(e), edhrec.DeckListResult{
			Commander: strings.TrimSpace(req.Commander),
			Bracket:   req.Bracket,
			SourceURL: e.URL,
			Cards:     []edhrec.DeckCard{},
			Error:     e.Payload(),
		})
		return
	}
	c.JSON(http.StatusOK, deck)
}

func (h *Handler) resolve(c *gin.Context) {
	res, err := h.svc.Resolve(c.Request.Context(), c.Query("name"), c.Query("bracket"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) theme(c *gin.Context) {
	opts, err := hydrateOptions(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Theme(c.Request.Context(), service.ThemeRequest{
		Tag:            c.Query("name"),
		Identity:       c.Query("identity"),
		HydrateOptions: opts,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) commanderTheme(c *gin.Context) {
	opts, err := hydrateOptions(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.CommanderTheme(c.Request.Context(), service.CommanderThemeRequest{
		Commander:      c.Query("name"),
		Tag:            c.Query("tag"),
		HydrateOptions: opts,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) tagIndex(c *gin.Context) {
	entries, err := h.svc.TagIndex(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": entries})
}

func (h *Handler) brackets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"brackets": h.svc.Brackets()})
}
