package rgs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MJE43/freefall-wager/internal/authority"
	"github.com/MJE43/freefall-wager/internal/outcome"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	srv := httptest.NewServer(NewServer(cfg).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var hr HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		t.Fatal(err)
	}
	if hr.Status != "ok" {
		t.Errorf("status field: %q", hr.Status)
	}
}

func TestBetValidation(t *testing.T) {
	srv := newTestServer(t, Config{MaxBet: 1000})

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{`},
		{name: "zero bet", body: `{"betAmount":0,"mode":"base"}`},
		{name: "negative bet", body: `{"betAmount":-5,"mode":"base"}`},
		{name: "unknown mode", body: `{"betAmount":5,"mode":"turbo"}`},
		{name: "over max", body: `{"betAmount":5000,"mode":"base"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/bet", "application/json", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", resp.StatusCode)
			}
			var er ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
				t.Fatal(err)
			}
			if er.Type != ErrTypeValidation || er.Message == "" {
				t.Errorf("unexpected error body %+v", er)
			}
			if er.RequestID == "" {
				t.Errorf("request id missing")
			}
		})
	}
}

func TestBetPaysTableMultiples(t *testing.T) {
	srv := newTestServer(t, Config{ServerSeed: "fixed"})
	client := authority.NewClient(authority.Config{BaseURL: srv.URL})

	multipliers := map[string]float64{}
	for _, tier := range outcome.DefaultTables()[outcome.ModeBase] {
		multipliers[tier.Name] = tier.Multiplier
	}

	for i := 0; i < 200; i++ {
		resp, err := client.PlaceBet(context.Background(), authority.BetRequest{BetAmount: 10, Mode: "base"})
		if err != nil {
			t.Fatalf("bet %d: %v", i, err)
		}
		if resp.Malformed {
			t.Fatalf("bet %d: malformed reply", i)
		}
		mult, ok := multipliers[resp.Tier]
		if !ok {
			t.Fatalf("bet %d: unknown tier %q", i, resp.Tier)
		}
		if got := resp.TargetPayout.InexactFloat64(); got != 10*mult {
			t.Errorf("bet %d: payout %f for tier %s", i, got, resp.Tier)
		}
		if resp.BetID == "" {
			t.Errorf("bet %d: missing bet id", i)
		}
	}
}

func TestRemoteResolverAgainstServer(t *testing.T) {
	srv := newTestServer(t, Config{})
	quiet := log.New(io.Discard, "", 0)
	r := outcome.NewRemoteResolver(authority.NewClient(authority.Config{BaseURL: srv.URL}), quiet)

	if err := r.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	res, err := r.Resolve(context.Background(), 50, outcome.ModeNoZero)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.ZeroPayout || res.TargetPayout < 50 {
		t.Errorf("noZero round paid %f", res.TargetPayout)
	}
}

func TestTablesEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/tables")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var tables []TableInfo
	if err := json.NewDecoder(resp.Body).Decode(&tables); err != nil {
		t.Fatal(err)
	}
	if len(tables) != len(outcome.Modes) {
		t.Fatalf("got %d tables", len(tables))
	}
	for _, ti := range tables {
		if ti.RTP <= 0 || len(ti.Tiers) == 0 {
			t.Errorf("%s: empty table info", ti.Mode)
		}
	}
}

func TestSeedHashIsStable(t *testing.T) {
	srv := newTestServer(t, Config{ServerSeed: "seed"})

	get := func() string {
		resp, err := http.Get(srv.URL + "/seed/hash")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		return body["hash"]
	}
	first := get()
	if len(first) != 64 || first != get() {
		t.Errorf("unexpected hash %q", first)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := NewServer(Config{Logger: log.New(io.Discard, "", 0)})
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	client := authority.NewClient(authority.Config{BaseURL: "http://" + s.Addr()})
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health over TCP: %v", err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := client.Health(context.Background()); err == nil {
		t.Error("server still answering after shutdown")
	}
}
