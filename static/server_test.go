package static

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesIndexForRoutes(t *testing.T) {
	h := Handler()
	for _, p := range []string{"/", "/game?mode=city", "/anything"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", p, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Pinpoint") {
			t.Fatalf("%s: expected index.html", p)
		}
	}
}

func TestHandlerServesAssets(t *testing.T) {
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/api/games") {
		t.Fatal("expected the client script")
	}

	w = httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing.js", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing asset, got %d", w.Code)
	}
}

func TestIndexOffersBackToMenu(t *testing.T) {
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/game?mode=country", nil))
	if !strings.Contains(w.Body.String(), `id="back"`) {
		t.Fatal("game page should always offer a way back to the menu")
	}

	w = httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if !strings.Contains(w.Body.String(), "res.status === 404") {
		t.Fatal("client should leave a game that no longer exists")
	}
}
