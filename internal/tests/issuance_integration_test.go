package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/core/service"
	"github.com/yndnr/sasmint-go/internal/server/httpserver"
	"github.com/yndnr/sasmint-go/internal/storage"
	"github.com/yndnr/sasmint-go/pkg/sas"
)

// TestIssuanceEndToEnd drives the full stack: Badger-backed repos,
// the domain services, and the HTTP router, from device registration
// through credential issuance and revocation.
func TestIssuanceEndToEnd(t *testing.T) {
	cfg := storage.KVConfig{
		Dir:    t.TempDir(),
		Badger: storage.DefaultBadgerConfig(),
	}
	cfg.Badger.SyncWrites = false

	engine, err := storage.NewBadgerEngine(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewBadgerEngine() error = %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	deviceRepo := storage.NewDeviceRepo(engine)
	apiKeyRepo := storage.NewAPIKeyRepo(engine)

	issuer := service.NewIssuerService(deviceRepo, nil, nil, nil).
		WithClock(sas.ClockFunc(func() uint64 { return 1700000000 }))
	registry := service.NewRegistryService(deviceRepo, nil, nil, nil)
	auth := service.NewAuthService(apiKeyRepo, nil, nil)

	adminKey, adminSecret, err := auth.CreateKey(context.Background(), "it-admin", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Issuer:   issuer,
		Registry: registry,
		Auth:     auth,
		Store:    engine,
	})

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatal(err)
			}
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("X-API-Key-ID", adminKey.ID)
		req.Header.Set("X-API-Key", adminSecret)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// Register a device.
	rec := do(http.MethodPost, "/v1/devices", map[string]string{
		"id": "pump-17", "hub": "plant.example.net",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Issue a credential for it.
	rec = do(http.MethodPost, "/v1/devices/pump-17/token", map[string]any{
		"lifetime_minutes": 30,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("issue status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var issued struct {
		Data struct {
			Token     string `json:"token"`
			ExpiresAt uint64 `json:"expires_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &issued); err != nil {
		t.Fatalf("decode issue response: %v", err)
	}
	if issued.Data.ExpiresAt != 1700000000+30*60 {
		t.Errorf("expires_at = %d", issued.Data.ExpiresAt)
	}
	wantPrefix := "SharedAccessSignature sr=plant.example.net/devices/pump-17&sig="
	if len(issued.Data.Token) < len(wantPrefix) || issued.Data.Token[:len(wantPrefix)] != wantPrefix {
		t.Errorf("token = %q", issued.Data.Token)
	}

	// The registry state survives an engine restart.
	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	engine2, err := storage.NewBadgerEngine(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	t.Cleanup(func() { engine2.Close() })

	if _, err := storage.NewDeviceRepo(engine2).GetDevice(context.Background(), "pump-17"); err != nil {
		t.Errorf("device lost after restart: %v", err)
	}
	keys, err := storage.NewAPIKeyRepo(engine2).ListAPIKeys(context.Background())
	if err != nil || len(keys) != 1 {
		t.Errorf("api keys after restart = %d, err = %v", len(keys), err)
	}
}
