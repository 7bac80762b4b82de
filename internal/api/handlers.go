package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"matchday/internal/match"
	"matchday/internal/store"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the full Server.

// handleSimulate accepts a MatchPlan, simulates it to full time
// synchronously and archives the result. Instant simulation: a full match
// is a few hundred milliseconds of engine time, so the handler just runs it.
func (h *routerHandlers) handleSimulate(w http.ResponseWriter, r *http.Request) {
	// Start from NewMatchPlan so fields the body omits keep their
	// no-value meaning (an absent userSlot must not become slot 0).
	plan := match.NewMatchPlan()
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeError(w, "invalid plan body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.applySimDefaults(&plan)

	eng, err := match.NewMatchEngine(plan, match.WithTelemetry(h.telemetry))
	if err != nil {
		// Malformed plans are rejected before any simulation starts.
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := eng.Play()
	RecordMatchDone()

	id, err := h.archive.SaveResult(res, plan)
	if err != nil {
		h.log.Error().Err(err).Msg("archive simulated match")
		writeError(w, "simulated but not archived", http.StatusInternalServerError)
		return
	}

	homePoss, awayPoss := res.Stats.PossessionPct()
	writeJSON(w, map[string]interface{}{
		"id":        id,
		"homeTeam":  res.HomeTeam,
		"awayTeam":  res.AwayTeam,
		"homeGoals": res.HomeGoals,
		"awayGoals": res.AwayGoals,
		"seed":      res.Seed,
		"events":    len(res.Events),
		"possession": map[string]float64{
			"home": homePoss,
			"away": awayPoss,
		},
	})
}

// applySimDefaults fills plan fields the submitter left unset from the
// configured defaults. It never overrides anything the plan specifies.
func (h *routerHandlers) applySimDefaults(plan *match.MatchPlan) {
	if plan.HalfTicks == 0 && h.sim.HalfMinutes > 0 && h.sim.HalfMinutes != 45 {
		plan.HalfTicks = uint32(h.sim.HalfMinutes) * 60 * match.TickHz
	}
	if plan.HomeDifficulty == 0 && h.sim.Difficulty > 0 {
		plan.HomeDifficulty = uint8(h.sim.Difficulty)
	}
	if plan.AwayDifficulty == 0 && h.sim.Difficulty > 0 {
		plan.AwayDifficulty = uint8(h.sim.Difficulty)
	}
	if h.sim.Trace {
		plan.Capabilities.Trace = true
	}
}

func (h *routerHandlers) handleListMatches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := h.archive.ListMatches(limit, offset)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (h *routerHandlers) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	row, err := h.archive.GetMatch(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, row)
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	rows, err := h.archive.EventsFor(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	// Optional ?kind= filter over the timeline.
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.KindStr == kind {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	writeJSON(w, rows)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	rows, err := h.archive.StatsFor(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, rows)
}

func (h *routerHandlers) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	tr, err := h.archive.TraceFor(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, tr)
}

func (h *routerHandlers) handleStandings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.archive.Standings()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (h *routerHandlers) handleLiveStart(w http.ResponseWriter, r *http.Request) {
	plan := match.NewMatchPlan()
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeError(w, "invalid plan body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.applySimDefaults(&plan)

	if err := h.live.Start(plan); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrLiveRunning) {
			status = http.StatusConflict
		}
		writeError(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleLiveStop(w http.ResponseWriter, r *http.Request) {
	h.live.Stop()
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleLiveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.live.Status())
}

func (h *routerHandlers) handleLiveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.live.LatestSnapshot()
	if snap == nil {
		writeError(w, "no live match", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"live":   h.live.Running(),
	})
}

// matchID parses the {id} route parameter, writing the error response on
// failure.
func matchID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, "invalid match id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// writeStoreError maps archive lookup failures onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrNoTrace):
		writeError(w, err.Error(), http.StatusNotFound)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
