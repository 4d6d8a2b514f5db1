package sas_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/yndnr/sasmint-go/pkg/sas"
	"github.com/yndnr/sasmint-go/pkg/sas/iothub"
)

// Reference vector: HMAC-SHA256 of
// "myhub.example.net/devices/device1\n1700003600" under key bytes
// 00..0f, base64 encoded, percent-escaped in the assembled credential.
const (
	refKey   = "AAECAwQFBgcICQoLDA0ODw=="
	refHost  = "myhub.example.net"
	refDev   = "device1"
	refNow   = uint64(1700000000)
	refExp   = uint64(1700003600)
	refToken = "SharedAccessSignature sr=myhub.example.net/devices/device1" +
		"&sig=WCH5R7wjFpydriFMtli1LRM5dC4b4bHfjueQ3OH9ZRU%3D&se=1700003600"
)

func fixedClock(epoch *uint64) sas.Clock {
	return sas.ClockFunc(func() uint64 { return *epoch })
}

func newRefGenerator(t *testing.T, now *uint64) *sas.Generator {
	t.Helper()
	canon, err := iothub.New(iothub.Scope{Host: refHost, DeviceID: refDev})
	if err != nil {
		t.Fatalf("iothub.New() error = %v", err)
	}
	sigBuf := make([]byte, 64)
	tokenBuf := make([]byte, 256)
	return sas.New([]byte(refKey), canon, canon, sigBuf, tokenBuf).WithClock(fixedClock(now))
}

func TestGenerate_ReferenceVector(t *testing.T) {
	now := refNow
	g := newRefGenerator(t, &now)

	if err := g.Generate(60); err != nil {
		t.Fatalf("Generate(60) error = %v", err)
	}

	if got := string(g.Get()); got != refToken {
		t.Errorf("Get() = %q, want %q", got, refToken)
	}
	if g.Expiration() != refExp {
		t.Errorf("Expiration() = %d, want %d", g.Expiration(), refExp)
	}
	if g.IsExpired() {
		t.Error("IsExpired() = true immediately after Generate")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	now1, now2 := refNow, refNow
	g1 := newRefGenerator(t, &now1)
	g2 := newRefGenerator(t, &now2)

	if err := g1.Generate(60); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := g2.Generate(60); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !bytes.Equal(g1.Get(), g2.Get()) {
		t.Errorf("independent generations differ: %q vs %q", g1.Get(), g2.Get())
	}
}

func TestIsExpired_FreshGenerator(t *testing.T) {
	now := refNow
	g := newRefGenerator(t, &now)

	if !g.IsExpired() {
		t.Error("IsExpired() = false for a generator that never generated")
	}
	if g.Get() != nil {
		t.Errorf("Get() = %q, want nil before first Generate", g.Get())
	}
	if g.Expiration() != 0 {
		t.Errorf("Expiration() = %d, want 0 before first Generate", g.Expiration())
	}
}

func TestIsExpired_Boundary(t *testing.T) {
	now := refNow
	g := newRefGenerator(t, &now)

	if err := g.Generate(60); err != nil {
		t.Fatalf("Generate(60) error = %v", err)
	}

	now = refExp - 1
	if g.IsExpired() {
		t.Error("IsExpired() = true one second before expiration")
	}

	// Boundary is inclusive: expired exactly at the expiration second.
	now = refExp
	if !g.IsExpired() {
		t.Error("IsExpired() = false at the expiration second")
	}
}

func TestGenerate_ZeroLifetime(t *testing.T) {
	now := refNow
	g := newRefGenerator(t, &now)

	if err := g.Generate(0); !errors.Is(err, sas.ErrLifetime) {
		t.Errorf("Generate(0) error = %v, want ErrLifetime", err)
	}
}

func TestGenerate_CorruptKey(t *testing.T) {
	now := refNow
	g := newRefGenerator(t, &now)

	if err := g.Generate(60); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	previous := string(g.Get())

	g.Rekey([]byte("!!!not-base64!!!"))
	err := g.Generate(60)
	if !errors.Is(err, sas.ErrKeyDecode) {
		t.Fatalf("Generate() with corrupt key error = %v, want ErrKeyDecode", err)
	}

	// Failure must leave the last good token and expiration untouched.
	if got := string(g.Get()); got != previous {
		t.Errorf("Get() after failed Generate = %q, want previous token", got)
	}
	if g.Expiration() != refExp {
		t.Errorf("Expiration() after failed Generate = %d, want %d", g.Expiration(), refExp)
	}
	if g.IsExpired() {
		t.Error("IsExpired() = true while the previous token is still live")
	}
}

func TestGenerate_SignatureBufferTooSmall(t *testing.T) {
	now := refNow
	canon, err := iothub.New(iothub.Scope{Host: refHost, DeviceID: refDev})
	if err != nil {
		t.Fatalf("iothub.New() error = %v", err)
	}

	g := sas.New([]byte(refKey), canon, canon, make([]byte, 8), make([]byte, 256)).
		WithClock(fixedClock(&now))

	genErr := g.Generate(60)
	if !errors.Is(genErr, sas.ErrKeyDecode) {
		t.Errorf("Generate() error = %v, want ErrKeyDecode", genErr)
	}
	if !errors.Is(genErr, sas.ErrBufferTooSmall) {
		t.Errorf("Generate() error = %v, want ErrBufferTooSmall", genErr)
	}
	if g.Get() != nil {
		t.Errorf("Get() = %q after failed Generate, want nil", g.Get())
	}
}

func TestGenerate_MinimalSignatureBuffer(t *testing.T) {
	// The signature buffer only needs max(decoded key, SignatureSize)
	// bytes; the base64-encoded signature lives in internal scratch and
	// never consumes caller space.
	now := refNow
	canon, err := iothub.New(iothub.Scope{Host: refHost, DeviceID: refDev})
	if err != nil {
		t.Fatalf("iothub.New() error = %v", err)
	}

	g := sas.New([]byte(refKey), canon, canon,
		make([]byte, sas.SignatureSize), make([]byte, 256)).
		WithClock(fixedClock(&now))

	if err := g.Generate(60); err != nil {
		t.Fatalf("Generate(60) error = %v", err)
	}
	if got := string(g.Get()); got != refToken {
		t.Errorf("Get() = %q, want %q", got, refToken)
	}
}

func TestGenerate_TokenBufferTooSmall(t *testing.T) {
	now := refNow
	canon, err := iothub.New(iothub.Scope{Host: refHost, DeviceID: refDev})
	if err != nil {
		t.Fatalf("iothub.New() error = %v", err)
	}

	tokenBuf := make([]byte, 16)
	for i := range tokenBuf {
		tokenBuf[i] = 0xAA
	}
	g := sas.New([]byte(refKey), canon, canon, make([]byte, 64), tokenBuf).
		WithClock(fixedClock(&now))

	genErr := g.Generate(60)
	if !errors.Is(genErr, sas.ErrTokenFormat) {
		t.Errorf("Generate() error = %v, want ErrTokenFormat", genErr)
	}
	if !errors.Is(genErr, sas.ErrBufferTooSmall) {
		t.Errorf("Generate() error = %v, want ErrBufferTooSmall", genErr)
	}

	// The formatter sizes before writing: no partial output.
	for i, b := range tokenBuf {
		if b != 0xAA {
			t.Fatalf("tokenBuf[%d] = %#x, token buffer written on failed Generate", i, b)
		}
	}
	if g.Get() != nil {
		t.Errorf("Get() = %q after failed Generate, want nil", g.Get())
	}
	if !g.IsExpired() {
		t.Error("IsExpired() = false although no token was ever generated")
	}
}

func TestGenerate_ExpirationMonotonic(t *testing.T) {
	now := refNow
	g := newRefGenerator(t, &now)

	var last uint64
	for i := 0; i < 5; i++ {
		if err := g.Generate(5); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if g.Expiration() < last {
			t.Fatalf("Expiration() = %d decreased below %d", g.Expiration(), last)
		}
		last = g.Expiration()
		now += 30
	}
}

func TestGenerate_ReusesBuffers(t *testing.T) {
	now := refNow
	g := newRefGenerator(t, &now)

	if err := g.Generate(60); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	first := g.Get()

	now += 120
	if err := g.Generate(60); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second := g.Get()

	// Same backing storage: the previous view is invalidated, not kept.
	if &first[0] != &second[0] {
		t.Error("Generate() did not reuse the token buffer")
	}
	if g.Expiration() != refExp+120 {
		t.Errorf("Expiration() = %d, want %d", g.Expiration(), refExp+120)
	}
}
