package handlers

import (
	"errors"
	"itinerary-planner-service/internal/adapters/tiles"
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

type TileHandler struct {
	Source ports.TileSource
	// Stats is optional.
	Stats func() tiles.Stats
}

// Tile serves /tiles/{z}/{x}/{y}.png.
func (h *TileHandler) Tile(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	file, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		writeError(w, r, http.StatusNotFound, "tile not found")
		return
	}

	z, errZ := strconv.Atoi(r.PathValue("z"))
	x, errX := strconv.Atoi(r.PathValue("x"))
	y, errY := strconv.Atoi(file)
	if errZ != nil || errX != nil || errY != nil {
		writeError(w, r, http.StatusBadRequest, "tile coordinates must be integers")
		return
	}

	data, err := h.Source.Tile(r.Context(), ports.TileKey{Z: z, X: x, Y: y})
	if err != nil {
		if errors.Is(err, tiles.ErrInvalidTile) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.Warn().Err(err).
			Str("req_id", obs.RequestID(r.Context())).
			Int("z", z).Int("x", x).Int("y", y).
			Msg("tile fetch failed")
		writeError(w, r, http.StatusBadGateway, "tile upstream unavailable")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// TileStats reports cache counters (GET /tiles/stats).
func (h *TileHandler) TileStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if h.Stats == nil {
		writeError(w, r, http.StatusNotFound, "tile stats unavailable")
		return
	}

	s := h.Stats()
	writeJSON(w, r, http.StatusOK, dto.TileStatsResponse{
		Hits:        s.Hits,
		Misses:      s.Misses,
		Errors:      s.Errors,
		Entries:     s.Entries,
		BytesServed: s.BytesServed,
		Served:      humanize.Bytes(s.BytesServed),
	})
}
