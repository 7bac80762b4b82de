package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"matchday/internal/match"
	"matchday/internal/scenario"
	"matchday/internal/store"
)

// memArchive is an in-memory ArchiveInterface for handler tests.
type memArchive struct {
	mu      sync.Mutex
	nextID  uint
	matches map[uint]store.MatchRow
	events  map[uint][]store.EventRow
	stats   map[uint][]store.TeamStatRow
	traces  map[uint]*match.Trace
}

func newMemArchive() *memArchive {
	return &memArchive{
		matches: make(map[uint]store.MatchRow),
		events:  make(map[uint][]store.EventRow),
		stats:   make(map[uint][]store.TeamStatRow),
		traces:  make(map[uint]*match.Trace),
	}
}

func (m *memArchive) SaveResult(res match.MatchResult, plan match.MatchPlan) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.matches[id] = store.MatchRow{
		HomeTeam:  res.HomeTeam,
		AwayTeam:  res.AwayTeam,
		HomeGoals: res.HomeGoals,
		AwayGoals: res.AwayGoals,
		Seed:      res.Seed,
	}
	rows := make([]store.EventRow, 0, len(res.Events))
	for _, ev := range res.Events {
		rows = append(rows, store.EventRow{MatchID: id, Seq: ev.Seq, Kind: uint8(ev.Kind), KindStr: ev.KindStr})
	}
	m.events[id] = rows
	m.stats[id] = []store.TeamStatRow{
		{MatchID: id, Team: uint8(match.TeamHome), Stats: res.Stats.Home},
		{MatchID: id, Team: uint8(match.TeamAway), Stats: res.Stats.Away},
	}
	if res.Trace != nil {
		m.traces[id] = res.Trace
	}
	return id, nil
}

func (m *memArchive) GetMatch(id uint) (store.MatchRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.matches[id]
	if !ok {
		return store.MatchRow{}, fmt.Errorf("match %d: %w", id, store.ErrNotFound)
	}
	return row, nil
}

func (m *memArchive) ListMatches(limit, offset int) ([]store.MatchRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]store.MatchRow, 0, len(m.matches))
	for _, row := range m.matches {
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *memArchive) EventsFor(id uint) ([]store.EventRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id], nil
}

func (m *memArchive) StatsFor(id uint) ([]store.TeamStatRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[id], nil
}

func (m *memArchive) TraceFor(id uint) (*match.Trace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.traces[id]
	if !ok {
		return nil, fmt.Errorf("match %d: %w", id, store.ErrNoTrace)
	}
	return tr, nil
}

func (m *memArchive) Standings() ([]store.StandingRow, error) {
	return []store.StandingRow{}, nil
}

// stubLive satisfies LiveInterface without running anything.
type stubLive struct {
	running bool
	started int
}

func (s *stubLive) Start(plan match.MatchPlan) error {
	if s.running {
		return ErrLiveRunning
	}
	s.started++
	return nil
}
func (s *stubLive) Stop()                           {}
func (s *stubLive) Running() bool                   { return s.running }
func (s *stubLive) Status() map[string]interface{}  { return map[string]interface{}{"running": s.running} }
func (s *stubLive) LatestSnapshot() *match.Snapshot { return nil }

// testServer builds an httptest server around the pure router.
func testServer(t *testing.T, archive ArchiveInterface, live LiveInterface, adminToken string) *httptest.Server {
	t.Helper()
	router := NewRouter(RouterConfig{
		Archive:    archive,
		Live:       live,
		AdminToken: adminToken,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
		},
		DisableLogging: true,
		Log:            zerolog.Nop(),
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func shortPlanBody(t *testing.T) []byte {
	t.Helper()
	plan := scenario.DefaultPlan(7)
	plan.HalfTicks = 30 * match.TickHz
	body, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("marshal plan: %v", err)
	}
	return body
}

// TestHealthEndpoint verifies the health probe responds without auth.
func TestHealthEndpoint(t *testing.T) {
	ts := testServer(t, newMemArchive(), &stubLive{}, "")

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
}

// TestSimulateRequiresAdmin verifies mutating endpoints are guarded.
func TestSimulateRequiresAdmin(t *testing.T) {
	archive := newMemArchive()
	body := shortPlanBody(t)

	t.Run("disabled without configured token", func(t *testing.T) {
		ts := testServer(t, archive, &stubLive{}, "")
		resp, err := http.Post(ts.URL+"/api/matches", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("rejected with wrong token", func(t *testing.T) {
		ts := testServer(t, archive, &stubLive{}, "secret")
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/matches", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer nope")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
	})
}

// TestSimulateAndFetch runs a short match through the handler and reads it
// back through the archive endpoints.
func TestSimulateAndFetch(t *testing.T) {
	archive := newMemArchive()
	ts := testServer(t, archive, &stubLive{}, "secret")

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/matches", bytes.NewReader(shortPlanBody(t)))
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/matches: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("simulate status = %d, want 200", resp.StatusCode)
	}

	var summary struct {
		ID        uint   `json:"id"`
		HomeTeam  string `json:"homeTeam"`
		HomeGoals int    `json:"homeGoals"`
		Events    int    `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.ID == 0 {
		t.Fatal("summary carries no archive id")
	}
	if summary.Events == 0 {
		t.Fatal("a simulated match recorded zero events")
	}

	t.Run("match header", func(t *testing.T) {
		r, err := http.Get(fmt.Sprintf("%s/api/matches/%d", ts.URL, summary.ID))
		if err != nil {
			t.Fatalf("GET match: %v", err)
		}
		defer r.Body.Close()
		if r.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", r.StatusCode)
		}
	})

	t.Run("events timeline", func(t *testing.T) {
		r, err := http.Get(fmt.Sprintf("%s/api/matches/%d/events", ts.URL, summary.ID))
		if err != nil {
			t.Fatalf("GET events: %v", err)
		}
		defer r.Body.Close()
		var rows []store.EventRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			t.Fatalf("decode events: %v", err)
		}
		if len(rows) != summary.Events {
			t.Fatalf("timeline has %d rows, summary said %d", len(rows), summary.Events)
		}
	})

	t.Run("missing match is 404", func(t *testing.T) {
		r, err := http.Get(ts.URL + "/api/matches/99999")
		if err != nil {
			t.Fatalf("GET missing: %v", err)
		}
		defer r.Body.Close()
		if r.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", r.StatusCode)
		}
	})
}

// TestLiveEndpoints drives the live control surface against the stub.
func TestLiveEndpoints(t *testing.T) {
	live := &stubLive{}
	ts := testServer(t, newMemArchive(), live, "secret")

	r, err := http.Get(ts.URL + "/api/live/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint = %d, want 200", r.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/live/start", bytes.NewReader(shortPlanBody(t)))
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST start: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start = %d, want 200", resp.StatusCode)
	}
	if live.started != 1 {
		t.Fatalf("runner started %d times, want 1", live.started)
	}

	t.Run("second start conflicts", func(t *testing.T) {
		live.running = true
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/live/start", bytes.NewReader(shortPlanBody(t)))
		req.Header.Set("Authorization", "Bearer secret")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST start: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("start while running = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("snapshot without live match is 404", func(t *testing.T) {
		r, err := http.Get(ts.URL + "/api/live/snapshot")
		if err != nil {
			t.Fatalf("GET snapshot: %v", err)
		}
		r.Body.Close()
		if r.StatusCode != http.StatusNotFound {
			t.Fatalf("snapshot = %d, want 404", r.StatusCode)
		}
	})
}

// TestMalformedPlanRejected verifies construction errors surface as 400s
// and nothing is archived.
func TestMalformedPlanRejected(t *testing.T) {
	archive := newMemArchive()
	ts := testServer(t, archive, &stubLive{}, "secret")

	plan := scenario.DefaultPlan(1)
	plan.Home.Starters = plan.Home.Starters[:5] // too few starters
	body, _ := json.Marshal(plan)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/matches", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(archive.matches) != 0 {
		t.Fatal("a rejected plan must not be archived")
	}
}

// TestIPRateLimiter verifies per-IP throttling and release behavior.
func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             2,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst of 2 should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("third immediate request should be limited")
	}
	// Other IPs are independent.
	if !rl.Allow("10.0.0.2") {
		t.Fatal("separate IP should have its own bucket")
	}

	stats := rl.GetStats()
	if stats["rejected"] != 1 {
		t.Fatalf("rejected = %d, want 1", stats["rejected"])
	}
}

// TestWebSocketRateLimiter covers the per-IP concurrent connection cap.
func TestWebSocketRateLimiter(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)

	if !wrl.Allow("a") || !wrl.Allow("a") {
		t.Fatal("two connections should fit")
	}
	if wrl.Allow("a") {
		t.Fatal("third connection should be rejected")
	}
	wrl.Release("a")
	if !wrl.Allow("a") {
		t.Fatal("released slot should be reusable")
	}
	if got := wrl.GetConnectionCount("a"); got != 2 {
		t.Fatalf("connection count = %d, want 2", got)
	}
}
