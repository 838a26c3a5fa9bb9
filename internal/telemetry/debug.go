package telemetry

import (
	"net/http"
	"net/http/pprof"
)

// RegisterDebugHandlers mounts the pprof endpoints under /debug/pprof/ on
// the given mux. The server only exposes them in debug mode.
func RegisterDebugHandlers(mux *http.ServeMux) {
	const prefix = "/debug/pprof/"

	mux.HandleFunc(prefix, pprof.Index)
	mux.HandleFunc(prefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(prefix+"profile", pprof.Profile)
	mux.HandleFunc(prefix+"symbol", pprof.Symbol)
	mux.HandleFunc(prefix+"trace", pprof.Trace)

	for _, profile := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle(prefix+profile, pprof.Handler(profile))
	}
}
