package generichttp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goji.io"
)

func TestSubMuxSanitize(t *testing.T) {
	cases := map[string]string{
		"omc/nkt":    "/omc/nkt",
		"/omc/nkt/*": "/omc/nkt",
		"/cam1/":     "/cam1",
	}
	for in, expected := range cases {
		if got := SubMuxSanitize(in); got != expected {
			t.Errorf("SubMuxSanitize(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestEndpointsSorted(t *testing.T) {
	rt := RouteTable{
		{http.MethodPost, "/b"}: nil,
		{http.MethodGet, "/b"}:  nil,
		{http.MethodGet, "/a"}:  nil,
	}
	got := strings.Join(rt.Endpoints(), ",")
	expected := "GET /a,GET /b,POST /b"
	if got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestBindAndPayloads(t *testing.T) {
	var stored int
	rt := RouteTable{
		{http.MethodGet, "/zero"}: GetInt(func() (int, error) { return 0, nil }),
		{http.MethodPost, "/int"}: SetInt(func(i int) error { stored = i; return nil }),
		{http.MethodGet, "/fail"}: GetBool(func() (bool, error) { return false, errors.New("boom") }),
	}
	mux := goji.NewMux()
	rt.Bind(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zero", nil))
	if body := strings.TrimSpace(w.Body.String()); body != `{"int":0}` {
		t.Errorf("expected zero value to be encoded, got %s", body)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/int", strings.NewReader(`{"int":42}`)))
	if w.Code != http.StatusOK || stored != 42 {
		t.Errorf("expected 200 and 42, got %d and %d", w.Code, stored)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/int", strings.NewReader(`nope`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad body, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 when the getter fails, got %d", w.Code)
	}
}
