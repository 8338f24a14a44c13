package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/pkg/httputil"
	"github.com/emailpilot/emailpilot/internal/service/plan"
)

// ListSegments returns a client's segments with revenue shares when the
// segment count is covered by a share table.
func (h *Handlers) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.plans.Segments(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if segments == nil {
		segments = []domain.Segment{}
	}
	httputil.OK(w, map[string]any{"segments": segments, "total": len(segments)})
}

// SaveSegment upserts one segment. The URL name wins over the body.
func (h *Handlers) SaveSegment(w http.ResponseWriter, r *http.Request) {
	var seg domain.Segment
	if !httputil.Decode(w, r, &seg) {
		return
	}
	seg.ClientID = chi.URLParam(r, "clientID")
	seg.Name = chi.URLParam(r, "name")

	err := h.plans.SaveSegment(r.Context(), &seg)
	if errors.Is(err, plan.ErrReservedSegment) {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, seg)
}

// DeleteSegment removes one segment.
func (h *Handlers) DeleteSegment(w http.ResponseWriter, r *http.Request) {
	err := h.plans.DeleteSegment(r.Context(), chi.URLParam(r, "clientID"), chi.URLParam(r, "name"))
	if errors.Is(err, plan.ErrNotFound) {
		httputil.NotFound(w, "segment not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}
