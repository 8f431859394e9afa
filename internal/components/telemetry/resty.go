package telemetry

import (
	"net/http"

	"github.com/go-resty/resty/v2"
)

const (
	report_upstream_request  = "upstream.request"
	report_upstream_response = "upstream.response"
	report_upstream_throttle = "upstream.throttled"
	report_upstream_status   = "upstream.server-error"
	report_upstream_failure  = "upstream.failure"
)

// InstrumentResty reports every exchange of the client. Throttling and 5xx
// answers are warnings, transport failures are broken.
func InstrumentResty(client *resty.Client, tel API) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		tel.ReportDebug(report_upstream_request, req.Method, req.URL, req.Attempt)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		req := res.Request
		tel.ReportDebug(report_upstream_response, req.URL, res.StatusCode(), res.Time().String())
		switch code := res.StatusCode(); {
		case code == http.StatusTooManyRequests:
			tel.ReportWarning(report_upstream_throttle, req.URL, res.Header().Get("Retry-After"))
		case code >= 500:
			tel.ReportWarning(report_upstream_status, req.Method, req.URL, code)
		}
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		tel.ReportBroken(report_upstream_failure, err, req.Method, req.URL, req.Attempt)
	})
}
