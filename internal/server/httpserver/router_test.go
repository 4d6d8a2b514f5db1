package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/core/service"
	"github.com/yndnr/sasmint-go/pkg/sas"
)

type memDeviceRepo struct {
	devices map[string]*domain.Device
}

func (r *memDeviceRepo) GetDevice(_ context.Context, id string) (*domain.Device, error) {
	dev, ok := r.devices[id]
	if !ok {
		return nil, domain.ErrDeviceNotFound.WithDetails(id)
	}
	cp := *dev
	return &cp, nil
}

func (r *memDeviceRepo) PutDevice(_ context.Context, dev *domain.Device) error {
	cp := *dev
	r.devices[dev.ID] = &cp
	return nil
}

func (r *memDeviceRepo) DeleteDevice(_ context.Context, id string) error {
	if _, ok := r.devices[id]; !ok {
		return domain.ErrDeviceNotFound.WithDetails(id)
	}
	delete(r.devices, id)
	return nil
}

func (r *memDeviceRepo) ListDevices(_ context.Context) ([]*domain.Device, error) {
	out := make([]*domain.Device, 0, len(r.devices))
	for _, dev := range r.devices {
		cp := *dev
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memDeviceRepo) CountDevices(_ context.Context) (int, error) {
	return len(r.devices), nil
}

type memAPIKeyRepo struct {
	keys map[string]*domain.APIKey
}

func (r *memAPIKeyRepo) GetAPIKey(_ context.Context, id string) (*domain.APIKey, error) {
	key, ok := r.keys[id]
	if !ok {
		return nil, domain.ErrAPIKeyNotFound.WithDetails(id)
	}
	cp := *key
	return &cp, nil
}

func (r *memAPIKeyRepo) PutAPIKey(_ context.Context, key *domain.APIKey) error {
	cp := *key
	r.keys[key.ID] = &cp
	return nil
}

func (r *memAPIKeyRepo) DeleteAPIKey(_ context.Context, id string) error {
	delete(r.keys, id)
	return nil
}

func (r *memAPIKeyRepo) ListAPIKeys(_ context.Context) ([]*domain.APIKey, error) {
	out := make([]*domain.APIKey, 0, len(r.keys))
	for _, key := range r.keys {
		cp := *key
		out = append(out, &cp)
	}
	return out, nil
}

const (
	testDeviceKey = "AAECAwQFBgcICQoLDA0ODw=="
	testHub       = "myhub.example.net"
	testNow       = uint64(1700000000)
	testToken     = "SharedAccessSignature sr=myhub.example.net/devices/device1" +
		"&sig=WCH5R7wjFpydriFMtli1LRM5dC4b4bHfjueQ3OH9ZRU%3D&se=1700003600"
)

type testEnv struct {
	router http.Handler
}

// newTestEnv builds a router over in-memory repositories and returns
// one API key credential pair per role.
func newTestEnv(t *testing.T) (*testEnv, map[domain.Role][2]string) {
	t.Helper()

	devRepo := &memDeviceRepo{devices: map[string]*domain.Device{
		"device1": {
			ID:           "device1",
			Hub:          testHub,
			PrimaryKey:   testDeviceKey,
			SecondaryKey: testDeviceKey,
		},
	}}
	keyRepo := &memAPIKeyRepo{keys: make(map[string]*domain.APIKey)}

	issuer := service.NewIssuerService(devRepo, nil, nil, nil).
		WithClock(sas.ClockFunc(func() uint64 { return testNow }))
	registry := service.NewRegistryService(devRepo, nil, nil, nil)
	auth := service.NewAuthService(keyRepo, nil, nil)

	creds := make(map[domain.Role][2]string)
	for _, role := range []domain.Role{domain.RoleMetrics, domain.RoleIssuer, domain.RoleAdmin} {
		key, secret, err := auth.CreateKey(context.Background(), string(role)+"-key", role)
		if err != nil {
			t.Fatalf("CreateKey(%s) error = %v", role, err)
		}
		creds[role] = [2]string{key.ID, secret}
	}

	router := NewRouter(&RouterConfig{
		Issuer:   issuer,
		Registry: registry,
		Auth:     auth,
	})
	return &testEnv{router: router}, creds
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any, cred [2]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if cred[0] != "" {
		req.Header.Set("X-API-Key-ID", cred[0])
		req.Header.Set("X-API-Key", cred[1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Code string          `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data: %v (%s)", err, rec.Body.String())
		}
	}
}

func TestRouter_Health(t *testing.T) {
	env, _ := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodGet, "/health", nil, [2]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRouter_IssueToken(t *testing.T) {
	env, creds := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/v1/devices/device1/token",
		map[string]any{"lifetime_minutes": 60}, creds[domain.RoleIssuer])
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token     string `json:"token"`
		ExpiresAt uint64 `json:"expires_at"`
	}
	decodeData(t, rec, &resp)
	if resp.Token != testToken {
		t.Errorf("token = %q, want %q", resp.Token, testToken)
	}
	if resp.ExpiresAt != testNow+3600 {
		t.Errorf("expires_at = %d, want %d", resp.ExpiresAt, testNow+3600)
	}
}

func TestRouter_IssueToken_Unauthenticated(t *testing.T) {
	env, _ := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/v1/devices/device1/token",
		map[string]any{"lifetime_minutes": 60}, [2]string{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRouter_IssueToken_WrongSecret(t *testing.T) {
	env, creds := newTestEnv(t)

	cred := creds[domain.RoleIssuer]
	cred[1] = "smas_wrong"
	rec := doRequest(t, env.router, http.MethodPost, "/v1/devices/device1/token",
		map[string]any{"lifetime_minutes": 60}, cred)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRouter_PermissionDenied(t *testing.T) {
	env, creds := newTestEnv(t)

	// Issuer role may not register devices.
	rec := doRequest(t, env.router, http.MethodPost, "/v1/devices",
		map[string]any{"id": "new-device", "hub": testHub}, creds[domain.RoleIssuer])
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	// Metrics role may not issue tokens.
	rec = doRequest(t, env.router, http.MethodPost, "/v1/devices/device1/token",
		map[string]any{"lifetime_minutes": 60}, creds[domain.RoleMetrics])
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRouter_DeviceLifecycle(t *testing.T) {
	env, creds := newTestEnv(t)
	admin := creds[domain.RoleAdmin]

	rec := doRequest(t, env.router, http.MethodPost, "/v1/devices",
		map[string]any{"id": "sensor-02", "hub": testHub}, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}
	// Key material never crosses the API.
	if bytes.Contains(rec.Body.Bytes(), []byte("primary_key")) {
		t.Error("register response leaks key material")
	}

	rec = doRequest(t, env.router, http.MethodGet, "/v1/devices/sensor-02", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doRequest(t, env.router, http.MethodPost, "/v1/devices/sensor-02/status",
		map[string]any{"disabled": true}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status = %d", rec.Code)
	}

	// Disabled devices refuse issuance.
	rec = doRequest(t, env.router, http.MethodPost, "/v1/devices/sensor-02/token",
		map[string]any{"lifetime_minutes": 60}, creds[domain.RoleIssuer])
	if rec.Code != http.StatusForbidden {
		t.Fatalf("issue for disabled device status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, env.router, http.MethodDelete, "/v1/devices/sensor-02", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doRequest(t, env.router, http.MethodGet, "/v1/devices/sensor-02", nil, admin)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestRouter_UnknownDevice(t *testing.T) {
	env, creds := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/v1/devices/ghost/token",
		map[string]any{"lifetime_minutes": 60}, creds[domain.RoleIssuer])
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRouter_APIKeyAdmin(t *testing.T) {
	env, creds := newTestEnv(t)
	admin := creds[domain.RoleAdmin]

	rec := doRequest(t, env.router, http.MethodPost, "/admin/v1/keys",
		map[string]any{"name": "ci", "role": "issuer"}, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create key status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created struct {
		KeyID  string `json:"key_id"`
		Secret string `json:"secret"`
	}
	decodeData(t, rec, &created)
	if created.Secret == "" {
		t.Fatal("created key has no secret")
	}

	// The fresh key works immediately.
	rec = doRequest(t, env.router, http.MethodPost, "/v1/devices/device1/token",
		map[string]any{"lifetime_minutes": 60}, [2]string{created.KeyID, created.Secret})
	if rec.Code != http.StatusOK {
		t.Fatalf("issue with new key status = %d", rec.Code)
	}

	// Disable it and watch it stop working.
	rec = doRequest(t, env.router, http.MethodPost, "/admin/v1/keys/"+created.KeyID+"/status",
		map[string]any{"disabled": true}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("disable key status = %d", rec.Code)
	}
	rec = doRequest(t, env.router, http.MethodPost, "/v1/devices/device1/token",
		map[string]any{"lifetime_minutes": 60}, [2]string{created.KeyID, created.Secret})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("issue with disabled key status = %d, want 401", rec.Code)
	}

	// Listing never includes secrets.
	rec = doRequest(t, env.router, http.MethodGet, "/admin/v1/keys", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("list keys status = %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte(created.Secret)) {
		t.Error("key listing leaks a secret")
	}
}

func TestRouter_BearerAuth(t *testing.T) {
	env, creds := newTestEnv(t)
	cred := creds[domain.RoleIssuer]

	req := httptest.NewRequest(http.MethodPost, "/v1/devices/device1/token",
		bytes.NewBufferString(`{"lifetime_minutes":60}`))
	req.Header.Set("Authorization", "Bearer "+cred[0]+":"+cred[1])
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_StatusSummary(t *testing.T) {
	env, creds := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodGet, "/admin/v1/status/summary",
		nil, creds[domain.RoleIssuer])
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		DeviceCount int `json:"device_count"`
	}
	decodeData(t, rec, &resp)
	if resp.DeviceCount != 1 {
		t.Errorf("device_count = %d, want 1", resp.DeviceCount)
	}
}
