package aotapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/titandle/titandle-backend/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(config.AOTConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, zerolog.Nop())
	c.randAge = func() int { return 25 }
	return c
}

func TestFetchByID_AppliesDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/characters/7" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"name":"Falco Grice"}`))
	})

	got, err := c.FetchByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	want := CharacterData{
		Name:    "Falco Grice",
		Image:   "",
		Species: []string{"Human"},
		Gender:  "Unknown",
		Age:     25,
		Status:  "Unknown",
	}
	if got.Name != want.Name || got.Image != want.Image || got.Gender != want.Gender ||
		got.Age != want.Age || got.Status != want.Status ||
		len(got.Species) != 1 || got.Species[0] != "Human" {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestFetchByID_PresentFieldsKept(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Eren Yeager","img":"https://x/eren.png","species":["Human","Intelligent Titan"],"gender":"Male","age":19,"status":"Alive"}`))
	})

	got, err := c.FetchByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if got.Image != "https://x/eren.png" || got.Gender != "Male" || got.Age != 19 ||
		got.Status != "Alive" || len(got.Species) != 2 {
		t.Fatalf("present fields overwritten: %+v", got)
	}
}

func TestFetchByID_ImageKeyVariant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Pieck Finger","image":"https://x/pieck.png"}`))
	})

	got, err := c.FetchByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if got.Image != "https://x/pieck.png" {
		t.Fatalf("expected image key accepted, got %+v", got)
	}
}

func TestFetchByID_MissingName_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"age":19}`))
	})

	_, err := c.FetchByID(context.Background(), 3)
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
}

func TestFetchByID_NonJSON_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.FetchByID(context.Background(), 3)
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
}

func TestFetchByID_Non2xx_ClientError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	_, err := c.FetchByID(context.Background(), 999)
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected ClientError 404, got %v", err)
	}
}

func TestFetchByID_Unreachable_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens anymore

	c := New(config.AOTConfig{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	_, err := c.FetchByID(context.Background(), 1)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestGet_RetriesTransportFailuresOnly(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Kill the connection mid-response to force a transport failure.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatalf("no hijacker")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.Write([]byte(`{"name":"Gabi Braun"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(config.AOTConfig{BaseURL: srv.URL, Timeout: time.Second, MaxRetries: 1}, zerolog.Nop())
	got, err := c.FetchByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got.Name != "Gabi Braun" || attempts != 2 {
		t.Fatalf("unexpected result %+v after %d attempts", got, attempts)
	}
}

func TestSearchByName_EnvelopeAndBareArray(t *testing.T) {
	bodies := []string{
		`{"results":[{"name":"Eren Yeager"},{"name":"Zeke Yeager"}]}`,
		`[{"name":"Eren Yeager"},{"name":"Zeke Yeager"}]`,
	}
	for _, body := range bodies {
		b := body
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("name"); got != "yeager" {
				t.Errorf("unexpected query %q", got)
			}
			w.Write([]byte(b))
		})

		got, err := c.SearchByName(context.Background(), "yeager")
		if err != nil {
			t.Fatalf("SearchByName(%s): %v", b, err)
		}
		if len(got) != 2 || got[0].Name != "Eren Yeager" || got[1].Name != "Zeke Yeager" {
			t.Fatalf("unexpected results for %s: %+v", b, got)
		}
	}
}

func TestSearchByName_SkipsNamelessRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"name":"Levi Ackermann"},{"age":30},{"name":""}]}`))
	})

	got, err := c.SearchByName(context.Background(), "levi")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Levi Ackermann" {
		t.Fatalf("expected nameless records skipped, got %+v", got)
	}
}

func TestSearchByName_EmptyResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	got, err := c.SearchByName(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %+v", got)
	}
}

func TestSearchByName_NegativeAge_Defaulted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Ymir","age":-1}]`))
	})

	got, err := c.SearchByName(context.Background(), "ymir")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(got) != 1 || got[0].Age != 25 {
		t.Fatalf("expected defaulted age, got %+v", got)
	}
}
