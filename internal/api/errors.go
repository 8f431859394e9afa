package api

import (
	"net/http"

	"mightstone-backend/internal/scrapers/edhrec"

	"github.com/gin-gonic/gin"
)

// statusOf maps an error kind to the response status. Timeouts talking to
// upstream answer 504, every other upstream failure 502.
func statusOf(e *edhrec.Error) int {
	switch e.Kind {
	case edhrec.KindValidation:
		return http.StatusBadRequest
	case edhrec.KindNotFound:
		return http.StatusNotFound
	}
	if e.Status == 0 && edhrec.IsTimeout(e.Err) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func (h *Handler) fail(c *gin.Context, err error) {
	e := edhrec.AsError(err)
	status := statusOf(e)
	if status >= 500 {
		h.tel.ReportWarning(report_request_error, c.GetString(requestIDKey), c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": e.Payload()})
}
