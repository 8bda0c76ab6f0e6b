package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pngsquare/pkg/buildinfo"
	perrors "github.com/matzehuels/pngsquare/pkg/errors"
	"github.com/matzehuels/pngsquare/pkg/pack"
	"github.com/matzehuels/pngsquare/pkg/pipeline"
	"github.com/matzehuels/pngsquare/pkg/storage"
)

// PackRequest is the body of POST /v1/pack.
type PackRequest struct {
	Name    string          `json:"name"`
	Unit    int             `json:"unit"`
	Sprites []SpriteRequest `json:"sprites"`
}

// SpriteRequest is one sprite to place, by pixel size.
type SpriteRequest struct {
	Name string `json:"name"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// artifactTypes are the outputs the API can render without pixels.
var artifactTypes = map[string]string{
	pipeline.ArtifactC:  "text/x-c; charset=utf-8",
	pipeline.ArtifactH:  "text/x-c; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handlePack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req PackRequest
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	items, err := s.validatePack(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	a, hit, err := s.runner.PackWithCacheInfo(r.Context(), req.Name, items, req.Unit, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), a); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("X-Cache", cacheStatus(hit))
	w.Header().Set("Location", "/v1/atlases/"+a.ID)
	writeJSON(w, http.StatusOK, a)
}

// validatePack checks what [pack.Pack] leaves to its callers: sprite names
// must be C identifiers and the request must stay within the sprite count
// and footprint limits.
func (s *Server) validatePack(req PackRequest) ([]pack.Item, error) {
	if err := perrors.ValidateName(req.Name); err != nil {
		return nil, err
	}
	if len(req.Sprites) > s.maxSprites {
		return nil, perrors.New(perrors.ErrCodeInvalidInput,
			"too many sprites: %d (max %d)", len(req.Sprites), s.maxSprites)
	}
	items := make([]pack.Item, len(req.Sprites))
	area := 0
	for i, sp := range req.Sprites {
		if err := perrors.ValidateName(sp.Name); err != nil {
			return nil, err
		}
		// Non-positive sizes and units are reported by pack.Pack.
		if req.Unit > 0 && sp.W > 0 && sp.H > 0 {
			wu, hu := pack.Footprint(sp.W, sp.H, req.Unit)
			if wu > s.maxSide || hu > s.maxSide {
				return nil, perrors.New(perrors.ErrCodeInvalidDimension,
					"sprite '%s' spans %dx%d units (max %d per side)", sp.Name, wu, hu, s.maxSide)
			}
			area += wu * hu
			if area > s.maxSide*s.maxSide {
				return nil, perrors.New(perrors.ErrCodeInvalidDimension,
					"sprites cover more than %dx%d units", s.maxSide, s.maxSide)
			}
		}
		items[i] = pack.Item{Name: sp.Name, W: sp.W, H: sp.H}
	}
	return items, nil
}

func (s *Server) handleListAtlases(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetAtlas(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAtlas(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleArtifact renders one artifact of a stored atlas. The C outputs
// take the sheet path and header include from the png and include query
// parameters, defaulting to <name>.png and <name>.h.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	contentType, ok := artifactTypes[name]
	if !ok {
		s.writeError(w, perrors.New(perrors.ErrCodeUnsupported,
			"artifact %q is not available over the API (use c, h, json or xlsx)", name))
		return
	}

	a, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	src := pipeline.Sources{
		PNGPath: orDefault(q.Get("png"), a.Name+".png"),
		Include: orDefault(q.Get("include"), a.Name+".h"),
	}
	format := name
	if name == pipeline.ArtifactH {
		format = pipeline.FormatC
	}
	opts := pipeline.Options{Formats: []string{format}}

	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), a, src, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache", cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[name])
}

// =============================================================================
// Responses
// =============================================================================

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := string(perrors.GetCode(err))
	if code == "" {
		code = string(perrors.ErrCodeInternal)
		if status == http.StatusNotFound {
			code = string(perrors.ErrCodeAtlasNotFound)
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Error: perrors.UserMessage(err)})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case perrors.IsValidation(err):
		return http.StatusBadRequest
	case perrors.Is(err, perrors.ErrCodeUnsupported):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
