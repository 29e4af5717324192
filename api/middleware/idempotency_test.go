package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgredis "github.com/aerotrack-io/aerotrack-backend/pkg/redis"
)

type fakeIdempotencyStore struct {
	records map[string]string
	gets    int
	sets    int
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{records: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	s.gets++
	value, ok := s.records[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.sets++
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	s.records[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "at:idempotency:" + scope + ":" + id
}

func (s *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

// idempotencyTestRouter mirrors the production layout: the middleware is
// mounted on the /api/v1 group, before chi resolves the leaf route.
func idempotencyTestRouter(store pkgredis.IdempotencyStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Idempotency(store, nil))
		r.Post("/aircraft", func(w http.ResponseWriter, _ *http.Request) {
			*hits++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"data":{"n":%d}}`, *hits)
		})
		r.Patch("/aircraft/{id}/status", func(w http.ResponseWriter, _ *http.Request) {
			*hits++
			w.WriteHeader(http.StatusOK)
		})
		r.Get("/aircraft", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func postAircraft(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/aircraft", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	handler := idempotencyTestRouter(store, &hits)

	first := postAircraft(handler, "key-1", `{"tailNumber":"N1"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("first request status = %d, want 201", first.Code)
	}
	if store.sets != 1 {
		t.Fatalf("store sets = %d, want 1; the middleware must persist the response", store.sets)
	}

	second := postAircraft(handler, "key-1", `{"tailNumber":"N1"}`)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay status = %d, want 201", second.Code)
	}
	if hits != 1 {
		t.Fatalf("handler hits = %d, want 1; the replay must be served from the store", hits)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("replayed Content-Type = %q", ct)
	}
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	handler := idempotencyTestRouter(store, &hits)

	if w := postAircraft(handler, "key-1", `{"tailNumber":"N1"}`); w.Code != http.StatusCreated {
		t.Fatalf("first request status = %d, want 201", w.Code)
	}

	w := postAircraft(handler, "key-1", `{"tailNumber":"N2"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("reused key with new body status = %d, want 409", w.Code)
	}
	if hits != 1 {
		t.Fatalf("handler hits = %d, want 1; the mismatched request must not execute", hits)
	}
	if !strings.Contains(w.Body.String(), "idempotency") {
		t.Errorf("body %q should name the idempotency conflict", w.Body.String())
	}
}

func TestIdempotencyRequiresKeyOnMutations(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	handler := idempotencyTestRouter(store, &hits)

	w := postAircraft(handler, "", `{"tailNumber":"N1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing key status = %d, want 400", w.Code)
	}
	if hits != 0 {
		t.Fatalf("handler hits = %d, want 0", hits)
	}
}

func TestIdempotencyGuardsPatchStatusRoute(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	handler := idempotencyTestRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/aircraft/5f0c7b46-1111-2222-3333-444455556666/status", strings.NewReader(`{"phase":"delivered"}`))
	req.Header.Set("Idempotency-Key", "key-2")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status route = %d, want 200", w.Code)
	}
	if store.sets != 1 {
		t.Fatalf("store sets = %d, want 1; PATCH status must be idempotency-guarded", store.sets)
	}
}

func TestIdempotencySkipsReadsAndNilStore(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	handler := idempotencyTestRouter(store, &hits)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/aircraft", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", w.Code)
	}
	if store.gets != 0 || store.sets != 0 {
		t.Fatalf("reads must bypass the store, got gets=%d sets=%d", store.gets, store.sets)
	}

	nilStoreHandler := idempotencyTestRouter(nil, &hits)
	w = httptest.NewRecorder()
	nilStoreHandler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/aircraft", strings.NewReader("{}")))
	if w.Code != http.StatusCreated {
		t.Fatalf("nil store must pass through, got %d", w.Code)
	}
}
