package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/pkg/sas"
)

// fakeDeviceRepo is an in-memory DeviceRepository for service tests.
type fakeDeviceRepo struct {
	devices map[string]*domain.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[string]*domain.Device)}
}

func (r *fakeDeviceRepo) GetDevice(_ context.Context, id string) (*domain.Device, error) {
	dev, ok := r.devices[id]
	if !ok {
		return nil, domain.ErrDeviceNotFound.WithDetails(id)
	}
	cp := *dev
	return &cp, nil
}

func (r *fakeDeviceRepo) PutDevice(_ context.Context, dev *domain.Device) error {
	cp := *dev
	r.devices[dev.ID] = &cp
	return nil
}

func (r *fakeDeviceRepo) DeleteDevice(_ context.Context, id string) error {
	if _, ok := r.devices[id]; !ok {
		return domain.ErrDeviceNotFound.WithDetails(id)
	}
	delete(r.devices, id)
	return nil
}

func (r *fakeDeviceRepo) ListDevices(_ context.Context) ([]*domain.Device, error) {
	out := make([]*domain.Device, 0, len(r.devices))
	for _, dev := range r.devices {
		cp := *dev
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeDeviceRepo) CountDevices(_ context.Context) (int, error) {
	return len(r.devices), nil
}

const (
	testDeviceKey = "AAECAwQFBgcICQoLDA0ODw=="
	testHub       = "myhub.example.net"
	testNow       = uint64(1700000000)
	testToken     = "SharedAccessSignature sr=myhub.example.net/devices/device1" +
		"&sig=WCH5R7wjFpydriFMtli1LRM5dC4b4bHfjueQ3OH9ZRU%3D&se=1700003600"
)

func newTestIssuer(t *testing.T) (*IssuerService, *fakeDeviceRepo) {
	t.Helper()
	repo := newFakeDeviceRepo()
	repo.devices["device1"] = &domain.Device{
		ID:           "device1",
		Hub:          testHub,
		PrimaryKey:   testDeviceKey,
		SecondaryKey: testDeviceKey,
	}
	svc := NewIssuerService(repo, nil, nil, nil).
		WithClock(sas.ClockFunc(func() uint64 { return testNow }))
	return svc, repo
}

func TestIssuerService_Issue(t *testing.T) {
	svc, _ := newTestIssuer(t)

	cred, err := svc.Issue(context.Background(), &IssueRequest{
		DeviceID:        "device1",
		LifetimeMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if cred.Token != testToken {
		t.Errorf("Token = %q, want %q", cred.Token, testToken)
	}
	if cred.Resource != testHub+"/devices/device1" {
		t.Errorf("Resource = %q", cred.Resource)
	}
	if cred.KeySlot != domain.SlotPrimary {
		t.Errorf("KeySlot = %q, want primary", cred.KeySlot)
	}
	if cred.ExpiresAt != testNow+3600 {
		t.Errorf("ExpiresAt = %d, want %d", cred.ExpiresAt, testNow+3600)
	}
	if cred.IssuedAt != testNow {
		t.Errorf("IssuedAt = %d, want %d", cred.IssuedAt, testNow)
	}
}

func TestIssuerService_IssueSecondarySlot(t *testing.T) {
	svc, _ := newTestIssuer(t)

	cred, err := svc.Issue(context.Background(), &IssueRequest{
		DeviceID:        "device1",
		LifetimeMinutes: 60,
		KeySlot:         domain.SlotSecondary,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	// Both slots hold the same key here, so the token matches too.
	if cred.Token != testToken {
		t.Errorf("Token = %q, want %q", cred.Token, testToken)
	}
	if cred.KeySlot != domain.SlotSecondary {
		t.Errorf("KeySlot = %q, want secondary", cred.KeySlot)
	}
}

func TestIssuerService_LifetimeBounds(t *testing.T) {
	svc, _ := newTestIssuer(t)

	for _, lifetime := range []uint32{0, 24*60 + 1} {
		_, err := svc.Issue(context.Background(), &IssueRequest{
			DeviceID:        "device1",
			LifetimeMinutes: lifetime,
		})
		if !errors.Is(err, domain.ErrLifetimeOutOfRange) {
			t.Errorf("Issue(lifetime=%d) error = %v, want ErrLifetimeOutOfRange", lifetime, err)
		}
	}
}

func TestIssuerService_UnknownDevice(t *testing.T) {
	svc, _ := newTestIssuer(t)

	_, err := svc.Issue(context.Background(), &IssueRequest{
		DeviceID:        "ghost",
		LifetimeMinutes: 60,
	})
	if !errors.Is(err, domain.ErrDeviceNotFound) {
		t.Fatalf("Issue() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestIssuerService_DisabledDevice(t *testing.T) {
	svc, repo := newTestIssuer(t)
	repo.devices["device1"].Disabled = true

	_, err := svc.Issue(context.Background(), &IssueRequest{
		DeviceID:        "device1",
		LifetimeMinutes: 60,
	})
	if !errors.Is(err, domain.ErrDeviceDisabled) {
		t.Fatalf("Issue() error = %v, want ErrDeviceDisabled", err)
	}
}

func TestIssuerService_BadKeySlot(t *testing.T) {
	svc, _ := newTestIssuer(t)

	_, err := svc.Issue(context.Background(), &IssueRequest{
		DeviceID:        "device1",
		LifetimeMinutes: 60,
		KeySlot:         domain.KeySlot("tertiary"),
	})
	if !errors.Is(err, domain.ErrBadKeySlot) {
		t.Fatalf("Issue() error = %v, want ErrBadKeySlot", err)
	}
}

func TestIssuerService_CorruptKey(t *testing.T) {
	svc, repo := newTestIssuer(t)
	repo.devices["device1"].PrimaryKey = "not-base64!!!"

	_, err := svc.Issue(context.Background(), &IssueRequest{
		DeviceID:        "device1",
		LifetimeMinutes: 60,
	})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("Issue() error = %v, want ErrGenerationFailed", err)
	}
}

func TestIssuerService_ConcurrentIssue(t *testing.T) {
	svc, _ := newTestIssuer(t)

	const workers = 8
	errc := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				cred, err := svc.Issue(context.Background(), &IssueRequest{
					DeviceID:        "device1",
					LifetimeMinutes: 60,
				})
				if err != nil {
					errc <- err
					return
				}
				if cred.Token != testToken {
					errc <- errors.New("token mismatch under concurrency")
					return
				}
			}
			errc <- nil
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-errc; err != nil {
			t.Fatalf("concurrent Issue() error = %v", err)
		}
	}
}

func TestIssuerService_RealDeviceKey(t *testing.T) {
	repo := newFakeDeviceRepo()
	dev, err := domain.NewDevice("sensor-01", testHub)
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	repo.devices[dev.ID] = dev

	svc := NewIssuerService(repo, nil, nil, nil).
		WithClock(sas.ClockFunc(func() uint64 { return testNow }))

	cred, err := svc.Issue(context.Background(), &IssueRequest{
		DeviceID:        "sensor-01",
		LifetimeMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !strings.HasPrefix(cred.Token, "SharedAccessSignature sr="+testHub+"/devices/sensor-01&sig=") {
		t.Errorf("Token = %q, unexpected shape", cred.Token)
	}
	if !strings.HasSuffix(cred.Token, "&se=1700001800") {
		t.Errorf("Token = %q, want se=1700001800 suffix", cred.Token)
	}
}
