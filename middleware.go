// Package safesubmit provides HTTP middleware that suppresses duplicate
// form and API submissions. Each logical submission attempt carries an
// idempotency token — in a header, a form field, or a JSON field — and the
// middleware reserves that token in a pluggable store before the wrapped
// handler runs. A second request bearing the same token within the TTL
// window is rejected with 409 instead of re-executing the handler; a failed
// attempt releases its reservation so a legitimate retry goes through.
package safesubmit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/madebyankur/use-safe-submit/store"
)

const (
	// HeaderKey is the primary request header carrying the idempotency token.
	HeaderKey = "Idempotency-Key"
	// HeaderKeyFallback is the secondary request header checked when HeaderKey is empty.
	HeaderKeyFallback = "X-Idempotency-Key"
	// HeaderProcessed is set on successful responses and carries the reservation marker.
	HeaderProcessed = "X-Idempotency-Key-Processed"
	// HeaderUsed is set on 409 responses and carries the marker stored by the earlier request.
	HeaderUsed = "X-Idempotency-Key-Used"
	// FormField is the form or JSON field name carrying the idempotency token.
	FormField = "idempotency-key"
	// DefaultTTL is the default lifetime of a reservation.
	DefaultTTL = 24 * time.Hour
)

// Middleware returns an HTTP middleware that enforces submission idempotency.
// It extracts an idempotency token from the request, reserves it in the
// configured store before invoking the wrapped handler, and short-circuits
// with 409 Conflict when the token was already reserved within the TTL.
// Requests with a side-effect-free method or no extractable token pass
// through untouched, with no store interaction at all.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	config := defaultConfig()

	for _, opt := range opts {
		opt(config)
	}

	if config.Store == nil {
		config.Store = store.NewMemoryStore()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			token := config.extractToken(r)
			if token == "" {
				// No idempotency token, process normally
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := StorageKey(token)

			// Read failures are treated as absent: the store being down must
			// not block submissions, only weaken deduplication.
			marker, found, err := config.Store.Get(ctx, key)
			if err != nil {
				config.Logger.Warn().Err(err).Msg("idempotency store read failed, treating key as absent")
			}
			if found {
				writeConflict(w, marker)
				return
			}

			marker = newMarker()
			if err := reserve(config, r, key, marker, w); err != nil {
				return
			}

			// The marker header goes on before the handler writes anything,
			// since headers are committed on the first WriteHeader.
			w.Header().Set(HeaderProcessed, marker)

			r = r.WithContext(WithToken(ctx, token))
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				if rv := recover(); rv != nil {
					releaseReservation(config, r, key)
					panic(rv)
				}
			}()

			next.ServeHTTP(recorder, r)

			if recorder.statusCode >= http.StatusInternalServerError {
				releaseReservation(config, r, key)
			}
		})
	}
}

// reserve writes the marker for key before the handler runs. Stores with a
// native set-if-absent primitive get the atomic path, which closes the window
// where two simultaneous requests both observe an absent key; the plain Set
// path remains for stores without one, and that get-then-set sequence is not
// atomic against true simultaneous requests.
//
// A non-nil return means the response has already been written and the
// handler must not run.
func reserve(config *Config, r *http.Request, key, marker string, w http.ResponseWriter) error {
	ctx := r.Context()

	if atomic, ok := config.Store.(AtomicStore); ok {
		acquired, err := atomic.SetIfAbsent(ctx, key, marker, config.TTL)
		if err != nil {
			failReservation(config, w, err)
			return err
		}
		if !acquired {
			// Lost the race to a concurrent duplicate. Re-read for the
			// winner's marker; best effort, the 409 stands either way.
			prev, _, _ := config.Store.Get(ctx, key)
			writeConflict(w, prev)
			return ErrAlreadyReserved
		}
		return nil
	}

	if err := config.Store.Set(ctx, key, marker, config.TTL); err != nil {
		failReservation(config, w, err)
		return err
	}
	return nil
}

// failReservation reports a store write failure. Unlike reads, a failed
// reservation aborts the request: running the handler without one would
// silently drop the duplicate-suppression guarantee.
func failReservation(config *Config, w http.ResponseWriter, err error) {
	config.Logger.Error().Err(err).Msg("idempotency reservation failed")
	http.Error(w, "failed to reserve idempotency key", http.StatusInternalServerError)
}

// releaseReservation undoes the reservation after a failed handler so a
// retry of the same attempt is accepted. Delete failures are logged and
// swallowed; the entry then lingers until TTL expiry.
func releaseReservation(config *Config, r *http.Request, key string) {
	if err := config.Store.Delete(r.Context(), key); err != nil {
		config.Logger.Warn().Err(err).Msg("failed to release idempotency reservation")
	}
}

// isSafeMethod returns true for methods with no side effects, which bypass
// idempotency entirely.
func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// newMarker generates the opaque value stored with a reservation. It is a
// diagnostics aid exposed through response headers, not a correctness
// mechanism, so a millisecond timestamp plus a short random suffix is enough.
func newMarker() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// writeConflict short-circuits a duplicate submission with a structured 409.
func writeConflict(w http.ResponseWriter, marker string) {
	if marker != "" {
		w.Header().Set(HeaderUsed, marker)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(ConflictResponse{
		Error:   "Idempotency key already used",
		Message: "This request has already been processed",
	})
}

// statusRecorder captures the response status so the middleware can tell a
// failed handler from a successful one. Writes pass straight through.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
