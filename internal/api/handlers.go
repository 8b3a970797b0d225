package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"userinfo-service/internal/config"
	"userinfo-service/internal/models"
	"userinfo-service/internal/store"
	"userinfo-service/internal/telemetry"
)

// Error messages returned in the "Error" field.
const (
	MsgInvalidUserID    = models.MsgInvalidUserID
	MsgUndefinedID      = "undefined id parameter."
	MsgNotFound         = "Not found."
	MsgMethodNotAllowed = "Method not allowed."
	MsgInternal         = "Internal server error."
	MsgTooManyRequests  = "Too many requests."
)

var (
	errMissingID  = errors.New("id parameter is missing")
	errBadID      = errors.New("id parameter is not an integer")
	errIDTooLarge = errors.New("id parameter is outside the int range")
)

// Cache is the read-through store used for user lookups.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// LookupObserver receives the outcome of each user lookup.
type LookupObserver interface {
	ObserveLookup(result string)
}

type Options struct {
	Mode     config.ErrorMode
	Debug    bool
	Cache    Cache
	CacheTTL time.Duration
	Clock    func() time.Time
	Observer LookupObserver
}

type Handler struct {
	users    *store.Table
	mode     config.ErrorMode
	debug    bool
	cache    Cache
	cacheTTL time.Duration
	clock    func() time.Time
	observer LookupObserver
}

func NewHandler(users *store.Table, opts Options) *Handler {
	h := &Handler{
		users:    users,
		mode:     opts.Mode,
		debug:    opts.Debug,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		clock:    opts.Clock,
		observer: opts.Observer,
	}
	if h.mode == "" {
		h.mode = config.ModeParity
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	if h.observer == nil {
		h.observer = nopObserver{}
	}
	return h
}

// Routes registers the three endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/user", h.GetUser)
	r.Get("/greet", h.Greet)
	r.Get("/time", h.CurrentTime)
}

// GetUser answers GET /user?id=<int>.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, digits, err := parseID(r)
	switch {
	case errors.Is(err, errIDTooLarge):
		// a well-formed integer, just not one the table can hold
		h.unknownUser(w, digits)
		return
	case err != nil:
		h.observer.ObserveLookup(telemetry.LookupInvalid)
		slog.Debug("Rejected user lookup", "query", r.URL.RawQuery, "error", err)
		WriteError(w, http.StatusBadRequest, MsgUndefinedID, err.Error(), h.debug)
		return
	}

	key := cacheKey(id)
	if h.cache != nil {
		if data, err := h.cache.Get(ctx, key); err == nil {
			h.observer.ObserveLookup(telemetry.LookupCacheHit)
			slog.Debug("Cache HIT", "user_id", id)
			writeRaw(w, http.StatusOK, data)
			return
		}
	}

	user, ok := h.users.Lookup(id)
	if !ok {
		h.unknownUser(w, digits)
		return
	}
	h.observer.ObserveLookup(telemetry.LookupFound)

	data, err := json.Marshal(user)
	if err != nil {
		slog.Error("JSON marshal error", "user_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, MsgInternal, err.Error(), h.debug)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, data, h.cacheTTL); err != nil {
			slog.Debug("Cache set failed", "user_id", id, "error", err)
		}
	}
	writeRaw(w, http.StatusOK, data)
}

func (h *Handler) unknownUser(w http.ResponseWriter, digits string) {
	h.observer.ObserveLookup(telemetry.LookupUnknown)
	status := http.StatusOK
	if h.mode == config.ModeHardened {
		status = http.StatusNotFound
	}
	WriteError(w, status, MsgInvalidUserID, "no user with id "+digits, h.debug)
}

// Greet answers GET /greet. Query parameters are ignored.
func (h *Handler) Greet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.GreetResponse{Message: "Hello!"})
}

// CurrentTime answers GET /time with the local wall clock.
func (h *Handler) CurrentTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.TimeResponse{Time: h.clock().Format(models.TimeLayout)})
}

// parseID coerces the id query parameter to an int. Surrounding whitespace,
// an optional sign and single underscores between digits are accepted. It also returns the normalised digits so
// integers too large for an int can still be reported.
func parseID(r *http.Request) (int, string, error) {
	values, ok := r.URL.Query()["id"]
	if !ok || len(values) == 0 {
		return 0, "", errMissingID
	}
	digits, ok := stripGrouping(strings.TrimSpace(values[0]))
	if !ok {
		return 0, "", fmt.Errorf("%w: %q", errBadID, values[0])
	}
	id, err := strconv.Atoi(digits)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return 0, digits, fmt.Errorf("%w: %s", errIDTooLarge, digits)
	case err != nil:
		return 0, "", fmt.Errorf("%w: %q", errBadID, values[0])
	}
	return id, strconv.Itoa(id), nil
}

// stripGrouping drops underscores that sit between two digits. Any other
// underscore makes the input invalid.
func stripGrouping(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	isDigit := func(i int) bool { return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9' }
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			if !isDigit(i-1) || !isDigit(i+1) {
				return "", false
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String(), true
}

func cacheKey(id int) string {
	return "user:" + strconv.Itoa(id)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string) {}
