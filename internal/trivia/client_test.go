package trivia

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_Fact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "fact for %s", r.URL.Path[1:])
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	got := c.Fact(context.Background(), 42)
	if got != "fact for 42" {
		t.Errorf("Fact(42) = %q", got)
	}
}

func TestClient_FactFallbacks(t *testing.T) {
	t.Run("non-200 response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second)
		if got := c.Fact(context.Background(), 7); got != FallbackFact {
			t.Errorf("Fact = %q, want fallback", got)
		}
	})

	t.Run("server unreachable", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", 100*time.Millisecond)
		if got := c.Fact(context.Background(), 7); got != FallbackFact {
			t.Errorf("Fact = %q, want fallback", got)
		}
	})

	t.Run("slow server times out", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 50*time.Millisecond)
		if got := c.Fact(context.Background(), 7); got != FallbackFact {
			t.Errorf("Fact = %q, want fallback", got)
		}
	})
}

func TestClient_FactCached(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "once")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	first := c.Fact(context.Background(), 99)
	second := c.Fact(context.Background(), 99)

	if first != "once" || second != "once" {
		t.Errorf("facts = %q, %q", first, second)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
}
