package telemetry

import "strings"

// API is how components report what happened to them. Nothing below the
// cmd packages logs directly, which lets tests assert on reports through
// MemoryAPI.
//
// Ids are `<type>.<operation>` in lowercase, with dashes inside the
// operation (`client.fetch-page`, `resolver.stage-b`). The package name is
// added by ScopedAPI, so ids never repeat it. Details such as the URL, the
// status or the wrapped error go into params.
type API interface {
	// ReportBroken is for failures an operator should look at: an upstream
	// that keeps erroring, a cache that cannot be written.
	ReportBroken(id string, params ...any)
	// ReportWarning is for degraded but handled situations, like a layout
	// tier that no longer matches and a fallback being used instead.
	ReportWarning(id string, params ...any)
	// ReportDebug is dropped unless the process runs verbose.
	ReportDebug(msg string, params ...any)
	// ReportCount records a gauge reading. Readings are not cumulative.
	ReportCount(id string, count int64)
}

const scopeSeparator = "/"

// ScopedAPI prefixes ids with a namespace. Scoping an already scoped API
// extends its namespace instead of nesting wrappers.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	if parent, ok := inner.(ScopedAPI); ok {
		return ScopedAPI{
			namespace: parent.namespace + scopeSeparator + namespace,
			inner:     parent.inner,
		}
	}
	return ScopedAPI{namespace: namespace, inner: inner}
}

// Namespace returns the full namespace, e.g. "app/edhrec".
func (s ScopedAPI) Namespace() string {
	return s.namespace
}

func (s ScopedAPI) id(id string) string {
	var b strings.Builder
	b.Grow(len(s.namespace) + len(id) + 2)
	b.WriteString(s.namespace)
	b.WriteString(": ")
	b.WriteString(id)
	return b.String()
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.id(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.id(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.id(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.id(id), count)
}
