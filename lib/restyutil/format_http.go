package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

// EDHREC pages run to megabytes of inline JSON, dumps keep the head.
const maxDumpBody = 256 << 10

func writeHeaders(b *strings.Builder, prefix string, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(b, "%s %s: %s\n", prefix, k, v)
		}
	}
}

func writeBody(b *strings.Builder, body []byte) {
	if len(body) == 0 {
		return
	}
	b.WriteByte('\n')
	if len(body) > maxDumpBody {
		b.Write(body[:maxDumpBody])
		fmt.Fprintf(b, "\n[truncated %d bytes]", len(body)-maxDumpBody)
	} else {
		b.Write(body)
	}
	b.WriteByte('\n')
}

func requestBody(req *http.Request) []byte {
	if req == nil || req.GetBody == nil {
		return nil
	}
	rc, err := req.GetBody()
	if err != nil {
		return []byte("[unreadable: " + err.Error() + "]")
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return []byte("[unreadable: " + err.Error() + "]")
	}
	return body
}

// formatExchange renders a request/response pair in a curl -v like layout,
// request lines prefixed with ">" and response lines with "<".
func formatExchange(res *resty.Response) string {
	var b strings.Builder
	req := res.Request

	fmt.Fprintf(&b, "> %s %s\n", req.Method, req.URL)
	if req.RawRequest != nil {
		writeHeaders(&b, ">", req.RawRequest.Header)
		writeBody(&b, requestBody(req.RawRequest))
	}

	b.WriteByte('\n')
	fmt.Fprintf(&b, "< %d %s (%s)\n", res.StatusCode(), http.StatusText(res.StatusCode()), res.Time())
	if res.RawResponse != nil {
		if loc, err := res.RawResponse.Location(); err == nil {
			fmt.Fprintf(&b, "< redirected to %s\n", loc)
		}
	}
	writeHeaders(&b, "<", res.Header())
	writeBody(&b, res.Body())
	return b.String()
}
