package bridge

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cuekiterrors "github.com/cuekit-dev/cuekit/internal/errors"
	"github.com/cuekit-dev/cuekit/pkg/props"
)

// Handler returns the bridge's HTTP handler.
func (b *Bridge) Handler() http.Handler {
	return b.router
}

func (b *Bridge) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/objects", b.handleList)
	r.Get("/objects/{name}", b.handleGet)
	r.Patch("/objects/{name}", b.handlePatch)
	r.Get("/ws", b.handleWebSocket)
	return r
}

// handleList returns the registered object names.
func (b *Bridge) handleList(w http.ResponseWriter, r *http.Request) {
	names := b.ObjectNames()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string]any{"objects": names})
}

// handleGet returns an object's property export: full by default, sparse
// with ?sparse=1.
func (b *Bridge) handleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	obj := b.Object(name)
	if obj == nil {
		writeError(w, http.StatusNotFound, cuekiterrors.New("E201").WithDetail("no object %q", name))
		return
	}

	includeDefaults := r.URL.Query().Get("sparse") != "1"

	var export props.Map
	if err := b.call(r.Context(), func() {
		export = obj.Properties(includeDefaults, nil)
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, cuekiterrors.Newf(cuekiterrors.CategoryBridge, "snapshot timed out").Wrap(err))
		return
	}

	writeJSON(w, http.StatusOK, export)
}

// handlePatch merges a JSON property mapping into the object.
func (b *Bridge) handlePatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	obj := b.Object(name)
	if obj == nil {
		b.metrics.updateError("unknown_object").Inc()
		writeError(w, http.StatusNotFound, cuekiterrors.New("E201").WithDetail("no object %q", name))
		return
	}

	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		b.metrics.updateError("bad_payload").Inc()
		writeError(w, http.StatusBadRequest, cuekiterrors.New("E202").Wrap(err))
		return
	}

	ctx, span := b.tracer.Start(r.Context(), "bridge.update",
		trace.WithAttributes(attribute.String("object", name)))
	defer span.End()

	if err := b.call(ctx, func() {
		obj.UpdateProperties(props.Map(values))
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update not applied")
		b.metrics.updateError("loop_unavailable").Inc()
		writeError(w, http.StatusServiceUnavailable, cuekiterrors.Newf(cuekiterrors.CategoryBridge, "update timed out").Wrap(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *cuekiterrors.Error) {
	writeJSON(w, status, map[string]any{
		"code":   err.Code,
		"error":  err.Message,
		"detail": err.Detail,
	})
}
