package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"retromoney/internal/core"
	"retromoney/internal/fx"
	"retromoney/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/dolares/blue":
			w.Write([]byte(`{"compra":980,"venta":1000,"fechaActualizacion":"2024-03-01T12:00:00.000Z"}`))
		case "/v1/dolares/tarjeta":
			w.Write([]byte(`{"compra":1550,"venta":1600,"fechaActualizacion":"2024-03-01T12:00:00.000Z"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())

	blue, err := c.Get(context.Background(), fx.RateBlue)
	if err != nil {
		t.Fatal(err)
	}
	if blue.USDToARS != 1000 {
		t.Fatalf("blue venta: got %v", blue.USDToARS)
	}
	if blue.Updated != "2024-03-01T12:00:00.000Z" {
		t.Fatalf("updated: got %q", blue.Updated)
	}

	tarjeta, err := c.Get(context.Background(), fx.RateTarjeta)
	if err != nil {
		t.Fatal(err)
	}
	if tarjeta.USDToARS != 1600 {
		t.Fatalf("tarjeta venta: got %v", tarjeta.USDToARS)
	}
}

func TestClientGetUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	if _, err := c.Get(context.Background(), fx.RateBlue); err == nil {
		t.Fatal("expected error")
	}
}

func TestClientGetUnknownType(t *testing.T) {
	c := NewClient("http://localhost", testLogger())
	if _, err := c.Get(context.Background(), fx.RateType("oficial")); err == nil {
		t.Fatal("expected error")
	}
}

type fakeSource struct {
	rate  core.ExchangeRate
	err   error
	calls int
}

func (f *fakeSource) Get(ctx context.Context, t fx.RateType) (core.ExchangeRate, error) {
	f.calls++
	if f.err != nil {
		return core.ExchangeRate{}, f.err
	}
	return f.rate, nil
}

func TestCachedSource(t *testing.T) {
	src := &fakeSource{rate: core.ExchangeRate{USDToARS: 1000}}
	cached := NewCachedSource(src)

	for i := 0; i < 3; i++ {
		rate, err := cached.Get(context.Background(), fx.RateBlue)
		if err != nil {
			t.Fatal(err)
		}
		if rate.USDToARS != 1000 {
			t.Fatalf("got %v", rate.USDToARS)
		}
	}
	if src.calls != 1 {
		t.Fatalf("upstream called %d times, want 1", src.calls)
	}

	cached.Invalidate(fx.RateBlue)
	if _, err := cached.Get(context.Background(), fx.RateBlue); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Fatalf("upstream called %d times after invalidate, want 2", src.calls)
	}
}

func TestCachedSourceFallsBackOnOutage(t *testing.T) {
	src := &fakeSource{rate: core.ExchangeRate{USDToARS: 1000}}
	cached := NewCachedSource(src)

	if _, err := cached.Get(context.Background(), fx.RateBlue); err != nil {
		t.Fatal(err)
	}

	src.err = errors.New("upstream down")
	cached.Invalidate(fx.RateBlue)

	rate, err := cached.Get(context.Background(), fx.RateBlue)
	if err != nil {
		t.Fatalf("expected stale fallback, got %v", err)
	}
	if rate.USDToARS != 1000 {
		t.Fatalf("got %v", rate.USDToARS)
	}
}

func TestCachedSourceErrorWithNoFallback(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream down")}
	cached := NewCachedSource(src)
	if _, err := cached.Get(context.Background(), fx.RateBlue); err == nil {
		t.Fatal("expected error")
	}
}
