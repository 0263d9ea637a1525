package server

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
)

// Cross-origin headers added to every response.
const (
	HeaderAllowOrigin       = "Access-Control-Allow-Origin"
	HeaderTimingAllowOrigin = "Timing-Allow-Origin"
)

// sleepFunc blocks for d. Swapped out in tests.
type sleepFunc func(d time.Duration)

// delayHandler sleeps before handing GET requests to next, and sleeps again
// right before the response headers are emitted, at which point the
// cross-origin headers are added. A GET therefore waits twice.
type delayHandler struct {
	next    http.Handler
	latency time.Duration
	sleep   sleepFunc
	onDone  func(r *http.Request, status int, elapsed time.Duration)
}

func (h *delayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method == http.MethodGet {
		h.sleep(h.latency)
	}

	fw := &finalizer{w: w, latency: h.latency, sleep: h.sleep}
	h.next.ServeHTTP(fw.wrap(), r)

	// Nothing was written; net/http sends an empty 200 once we return.
	fw.finalize(http.StatusOK)

	if h.onDone != nil {
		h.onDone(r, fw.status, time.Since(start))
	}
}

// finalizer runs the header-finalization step exactly once, on the first
// call that commits the response headers.
type finalizer struct {
	w       http.ResponseWriter
	latency time.Duration
	sleep   sleepFunc

	once   sync.Once
	status int
}

func (f *finalizer) finalize(status int) {
	f.once.Do(func() {
		f.sleep(f.latency)
		h := f.w.Header()
		h.Set(HeaderAllowOrigin, "*")
		h.Set(HeaderTimingAllowOrigin, "*")
		f.status = status
	})
}

// wrap returns a ResponseWriter that finalizes before anything reaches the
// wire, while keeping the optional interfaces of the underlying writer
// (Flusher, ReaderFrom, Hijacker) intact.
func (f *finalizer) wrap() http.ResponseWriter {
	return httpsnoop.Wrap(f.w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				f.finalize(code)
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				f.finalize(http.StatusOK)
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				f.finalize(http.StatusOK)
				return next(src)
			}
		},
		Flush: func(next httpsnoop.FlushFunc) httpsnoop.FlushFunc {
			return func() {
				f.finalize(http.StatusOK)
				next()
			}
		},
	})
}
