package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"itinerary-planner-service/internal/adapters/geocode"
	"itinerary-planner-service/internal/adapters/storage"
	"itinerary-planner-service/internal/adapters/tiles"
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/services"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

var paris = domain.Coordinates{Lat: 48.8566, Lng: 2.3522}

type testServer struct {
	srv     *httptest.Server
	manager *services.ItineraryManager
	store   *storage.MemoryKVStore
}

func newTestServer(t *testing.T, tileUpstream string) *testServer {
	t.Helper()

	store := storage.NewMemoryKVStore()
	resolver := services.NewGeocodeResolver(
		geocode.NewMockGeocoder(map[domain.Coordinates]string{paris: "Paris, France"}), nil, 0,
	)

	manager := services.NewItineraryManager(store, services.ManagerOptions{Resolver: resolver})
	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	deps := Deps{Manager: manager, Resolver: resolver}
	if tileUpstream != "" {
		proxy, err := tiles.NewProxy(tiles.Config{Upstream: tileUpstream + "/{z}/{x}/{y}.png"})
		if err != nil {
			t.Fatal(err)
		}
		deps.Tiles = proxy
		deps.TileStats = proxy.Stats
	}

	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(func() {
		srv.Close()
		manager.Close()
	})

	return &testServer{srv: srv, manager: manager, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()

	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status %d, want %d, body=%s",
			resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")

	resp := s.do(t, http.MethodGet, "/health", "")
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}

	resp = s.do(t, http.MethodPost, "/health", "")
	expectStatus(t, resp, http.StatusMethodNotAllowed)
	if got := resp.Header.Get("Allow"); got != http.MethodGet {
		t.Fatalf("Allow = %q", got)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, "")

	req, _ := http.NewRequest(http.MethodGet, s.srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := s.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestParisScenarioOverHTTP(t *testing.T) {
	s := newTestServer(t, "")

	resp := s.do(t, http.MethodPost, "/markers", `{"lat":48.8566,"lng":2.3522}`)
	expectStatus(t, resp, http.StatusCreated)
	created := decode[dto.MarkerResponse](t, resp)
	if created.Label != "New marker at 48.8566, 2.3522" {
		t.Fatalf("label = %q", created.Label)
	}

	s.manager.Wait()

	resp = s.do(t, http.MethodGet, "/markers", "")
	expectStatus(t, resp, http.StatusOK)
	markers := decode[dto.ListMarkerResponse](t, resp)
	if len(markers.Markers) != 1 || markers.Markers[0].Address != "Paris, France" {
		t.Fatalf("unexpected markers: %+v", markers)
	}

	resp = s.do(t, http.MethodGet, "/draft", "")
	expectStatus(t, resp, http.StatusOK)
	if d := decode[dto.DraftResponse](t, resp); d.From != "Paris, France" || d.Pending != 0 {
		t.Fatalf("unexpected draft: %+v", d)
	}

	body := `{"title":"Paris Trip","arrival_date":"2024-06-01","stay_duration_days":5,"from":"A","to":"B"}`
	resp = s.do(t, http.MethodPost, "/itinerary", body)
	expectStatus(t, resp, http.StatusCreated)
	entry := decode[dto.EntryResponse](t, resp)
	if entry.RouteDescription != "A - B" || entry.StayDurationDays != 5 || entry.ArrivalDate != "2024-06-01" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.DepartureDate != "2024-06-06" {
		t.Fatalf("departure = %q", entry.DepartureDate)
	}

	resp = s.do(t, http.MethodGet, "/itinerary", "")
	expectStatus(t, resp, http.StatusOK)
	if list := decode[dto.ListEntryResponse](t, resp); len(list.Entries) != 1 || list.Entries[0].Title != "Paris Trip" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestItineraryValidation(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"negative duration", `{"title":"T","arrival_date":"2024-06-01","stay_duration_days":-1,"from":"A","to":"B"}`, http.StatusBadRequest},
		{"missing title", `{"arrival_date":"2024-06-01","stay_duration_days":1,"from":"A"}`, http.StatusBadRequest},
		{"missing duration", `{"title":"T","arrival_date":"2024-06-01","from":"A"}`, http.StatusBadRequest},
		{"no locations", `{"title":"T","arrival_date":"2024-06-01","stay_duration_days":1}`, http.StatusBadRequest},
		{"bad date", `{"title":"T","arrival_date":"June 1","stay_duration_days":1,"from":"A"}`, http.StatusBadRequest},
		{"unknown marker", `{"title":"T","arrival_date":"2024-06-01","stay_duration_days":1,"from":"A","marker_ids":["nope"]}`, http.StatusBadRequest},
		{"unknown field", `{"title":"T","colour":"red"}`, http.StatusBadRequest},
		{"two objects", `{"title":"T"}{"title":"U"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodPost, "/itinerary", tt.body)
			expectStatus(t, resp, tt.want)
		})
	}

	if got := len(s.manager.Entries()); got != 0 {
		t.Fatalf("rejected submissions changed state: %d entries", got)
	}
	if _, ok, _ := s.store.Load(context.Background(), services.KeyItinerary); ok {
		t.Fatal("rejected submissions were persisted")
	}
}

func TestItineraryEditAndDelete(t *testing.T) {
	s := newTestServer(t, "")

	for _, title := range []string{"One", "Two", "Three"} {
		body := `{"title":"` + title + `","arrival_date":"2024-06-01","stay_duration_days":1,"stops":["A"]}`
		expectStatus(t, s.do(t, http.MethodPost, "/itinerary", body), http.StatusCreated)
	}
	ids := make([]string, 0, 3)
	for _, e := range s.manager.Entries() {
		ids = append(ids, e.ID)
	}

	edit := `{"title":"Two!","arrival_date":"2024-06-02","stay_duration_days":2,"from":"X","to":"Y","edit_index":1}`
	resp := s.do(t, http.MethodPost, "/itinerary", edit)
	expectStatus(t, resp, http.StatusOK)
	e := decode[dto.EntryResponse](t, resp)
	if e.ID != ids[1] || e.RouteDescription != "X - Y" {
		t.Fatalf("unexpected edit result: %+v", e)
	}
	if !reflect.DeepEqual(e.Stops, []string{"X", "Y"}) || e.From != "X" || e.To != "Y" {
		t.Fatalf("unexpected stops: %q from %q to %q", e.Stops, e.From, e.To)
	}

	update := `{"title":"Three!","arrival_date":"2024-06-03","stay_duration_days":0,"from":"Z"}`
	resp = s.do(t, http.MethodPut, "/itinerary/"+ids[2], update)
	expectStatus(t, resp, http.StatusOK)
	if e := decode[dto.EntryResponse](t, resp); !reflect.DeepEqual(e.Stops, []string{"Z"}) || e.From != "Z" || e.To != "" {
		t.Fatalf("unexpected single stop: %q from %q to %q", e.Stops, e.From, e.To)
	}

	expectStatus(t, s.do(t, http.MethodDelete, "/itinerary/at/0", ""), http.StatusNoContent)
	expectStatus(t, s.do(t, http.MethodDelete, "/itinerary/at/9", ""), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodDelete, "/itinerary/at/x", ""), http.StatusBadRequest)

	entries := s.manager.Entries()
	if len(entries) != 2 || entries[0].Title != "Two!" || entries[1].Title != "Three!" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	expectStatus(t, s.do(t, http.MethodDelete, "/itinerary/"+ids[1], ""), http.StatusNoContent)
	expectStatus(t, s.do(t, http.MethodDelete, "/itinerary/"+ids[1], ""), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodPatch, "/itinerary/"+ids[2], ""), http.StatusMethodNotAllowed)
}

func TestReplaceMarkerAndClearState(t *testing.T) {
	s := newTestServer(t, "")

	resp := s.do(t, http.MethodPost, "/markers", `{"lat":1,"lng":2}`)
	expectStatus(t, resp, http.StatusCreated)
	m := decode[dto.MarkerResponse](t, resp)

	resp = s.do(t, http.MethodPut, "/markers/"+m.ID, `{"lat":48.8566,"lng":2.3522}`)
	expectStatus(t, resp, http.StatusOK)
	if moved := decode[dto.MarkerResponse](t, resp); moved.ID != m.ID || moved.Lat != 48.8566 {
		t.Fatalf("unexpected marker: %+v", moved)
	}

	expectStatus(t, s.do(t, http.MethodPut, "/markers/missing", `{"lat":1,"lng":2}`), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodPost, "/markers", `{"lat":1}`), http.StatusBadRequest)

	s.manager.Wait()
	expectStatus(t, s.do(t, http.MethodDelete, "/state", ""), http.StatusNoContent)
	if len(s.manager.Markers()) != 0 {
		t.Fatal("markers not cleared")
	}
	if _, ok, _ := s.store.Load(context.Background(), services.KeyMarkers); ok {
		t.Fatal("markers key not removed")
	}
}

func TestReverseGeocodeEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	resp := s.do(t, http.MethodGet, "/geocode/reverse?lat=48.8566&lon=2.3522", "")
	expectStatus(t, resp, http.StatusOK)
	if r := decode[dto.ReverseGeocodeResponse](t, resp); r.Address != "Paris, France" || !r.Found {
		t.Fatalf("unexpected response: %+v", r)
	}

	resp = s.do(t, http.MethodGet, "/geocode/reverse?lat=10&lon=10", "")
	expectStatus(t, resp, http.StatusOK)
	if r := decode[dto.ReverseGeocodeResponse](t, resp); r.Address != "" || r.Found {
		t.Fatalf("unexpected response: %+v", r)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/geocode/reverse?lat=abc&lon=1", ""), http.StatusBadRequest)
}

func TestRouteAndMapConfig(t *testing.T) {
	s := newTestServer(t, "")

	expectStatus(t, s.do(t, http.MethodPost, "/markers", `{"lat":48.8606,"lng":2.3376}`), http.StatusCreated)
	expectStatus(t, s.do(t, http.MethodPost, "/markers", `{"lat":48.8584,"lng":2.2945}`), http.StatusCreated)
	s.manager.Wait()

	resp := s.do(t, http.MethodGet, "/route", "")
	expectStatus(t, resp, http.StatusOK)
	route := decode[dto.RouteResponse](t, resp)
	if route.SRID != 4326 || len(route.MarkerIDs) != 2 || route.DistanceMeters <= 0 {
		t.Fatalf("unexpected route: %+v", route)
	}
	if !bytes.Contains(route.Geometry, []byte("LineString")) {
		t.Fatalf("geometry = %s", route.Geometry)
	}
	if want := "LINESTRING(2.3376 48.8606,2.2945 48.8584)"; route.WKT != want {
		t.Fatalf("wkt = %q, want %q", route.WKT, want)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/route?srid=3857", ""), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/route?srid=1234", ""), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodGet, "/route?order=random", ""), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodGet, "/route?order=nearest&start=nope", ""), http.StatusNotFound)

	resp = s.do(t, http.MethodGet, "/route?order=nearest&start="+route.MarkerIDs[1], "")
	expectStatus(t, resp, http.StatusOK)
	if nn := decode[dto.RouteResponse](t, resp); nn.MarkerIDs[0] != route.MarkerIDs[1] {
		t.Fatalf("nearest route must start at the requested marker: %v", nn.MarkerIDs)
	}

	resp = s.do(t, http.MethodGet, "/map/config", "")
	expectStatus(t, resp, http.StatusOK)
	cfg := decode[dto.MapConfigResponse](t, resp)
	if cfg.Center.Lat != 48.8566 || cfg.Center.Lng != 2.3522 || cfg.Zoom != 13 {
		t.Fatalf("unexpected map config: %+v", cfg)
	}
	if cfg.TileURL != tiles.DefaultUpstream || !strings.Contains(cfg.Attribution, "OpenStreetMap") {
		t.Fatalf("unexpected tile settings: %+v", cfg)
	}
}

func TestTileProxyEndpoints(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png:" + r.URL.Path))
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream.URL)

	for i := 0; i < 2; i++ {
		resp := s.do(t, http.MethodGet, "/tiles/13/4150/2818.png", "")
		expectStatus(t, resp, http.StatusOK)
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "png:/13/4150/2818.png" {
			t.Fatalf("body = %q", body)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Fatalf("content type = %q", ct)
		}
	}

	expectStatus(t, s.do(t, http.MethodGet, "/tiles/25/0/0.png", ""), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodGet, "/tiles/1/0/0.jpg", ""), http.StatusNotFound)

	resp := s.do(t, http.MethodGet, "/tiles/stats", "")
	expectStatus(t, resp, http.StatusOK)
	stats := decode[dto.TileStatsResponse](t, resp)
	if stats.Hits != 1 || stats.Misses != 1 || stats.Served == "" {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	resp = s.do(t, http.MethodGet, "/map/config", "")
	if cfg := decode[dto.MapConfigResponse](t, resp); cfg.TileURL != "/tiles/{z}/{x}/{y}.png" {
		t.Fatalf("tile url = %q", cfg.TileURL)
	}
}
