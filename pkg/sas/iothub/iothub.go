// Package iothub canonicalizes and formats hub-style SAS credentials.
//
// It implements sas.Canonicalizer and sas.Formatter for message brokers
// that follow the IoT-hub convention:
//
//	string-to-sign: <host>/devices/<deviceID> "\n" <expiration>
//	credential:     SharedAccessSignature sr=<resource>&sig=<escaped
//	                base64 signature>&se=<expiration>[&skn=<keyName>]
//
// The resource URI is signed raw (no percent-encoding); only the
// signature value is percent-escaped in the assembled credential. Both
// operations write into caller-owned buffers and allocate nothing,
// matching the bounded-buffer contract of package sas.
package iothub

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yndnr/sasmint-go/pkg/sas"
)

// ErrScope indicates a malformed token scope (empty or unsafe host,
// device ID, or key name).
var ErrScope = errors.New("iothub: malformed scope")

// Scope names the hub resource a token grants access to.
type Scope struct {
	// Host is the hub hostname, e.g. "myhub.example.net".
	Host string

	// DeviceID identifies the device under the hub's device registry.
	DeviceID string

	// KeyName optionally names a shared access policy; empty for
	// device-scoped credentials.
	KeyName string
}

func (s Scope) validate() error {
	if s.Host == "" || s.DeviceID == "" {
		return fmt.Errorf("%w: host and device id are required", ErrScope)
	}
	for _, part := range []string{s.Host, s.DeviceID, s.KeyName} {
		if strings.ContainsAny(part, " \t\r\n&") {
			return fmt.Errorf("%w: %q contains reserved characters", ErrScope, part)
		}
	}
	return nil
}

// Canon canonicalizes signature payloads and formats credentials for
// one scope. It is immutable after construction and safe to share
// across generators for the same device.
type Canon struct {
	resource string
	keyName  string
}

var (
	_ sas.Canonicalizer = (*Canon)(nil)
	_ sas.Formatter     = (*Canon)(nil)
)

// New validates the scope and returns its canonicalizer/formatter.
func New(scope Scope) (*Canon, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	return &Canon{
		resource: scope.Host + "/devices/" + scope.DeviceID,
		keyName:  scope.KeyName,
	}, nil
}

// Resource returns the canonical resource URI, <host>/devices/<deviceID>.
func (c *Canon) Resource() string { return c.resource }

// SignaturePayload writes "<resource>\n<expiration>" into dst and
// returns the written prefix.
func (c *Canon) SignaturePayload(dst []byte, expiration uint64) ([]byte, error) {
	need := len(c.resource) + 1 + decimalLen(expiration)
	if need > len(dst) {
		return nil, fmt.Errorf("%w: payload needs %d bytes, have %d",
			sas.ErrBufferTooSmall, need, len(dst))
	}
	b := append(dst[:0], c.resource...)
	b = append(b, '\n')
	return appendUint(b, expiration), nil
}

// FormatToken writes the SharedAccessSignature credential into dst and
// returns the written prefix. The required size is computed before any
// byte is written, so on failure dst is untouched.
func (c *Canon) FormatToken(dst []byte, signatureB64 []byte, expiration uint64) ([]byte, error) {
	if len(signatureB64) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrScope)
	}

	need := len(tokenPrefix) + len(c.resource) +
		len("&sig=") + escapedLen(signatureB64) +
		len("&se=") + decimalLen(expiration)
	if c.keyName != "" {
		need += len("&skn=") + len(c.keyName)
	}
	if need > len(dst) {
		return nil, fmt.Errorf("%w: token needs %d bytes, have %d",
			sas.ErrBufferTooSmall, need, len(dst))
	}

	b := append(dst[:0], tokenPrefix...)
	b = append(b, c.resource...)
	b = append(b, "&sig="...)
	b = appendEscaped(b, signatureB64)
	b = append(b, "&se="...)
	b = appendUint(b, expiration)
	if c.keyName != "" {
		b = append(b, "&skn="...)
		b = append(b, c.keyName...)
	}
	return b, nil
}

const tokenPrefix = "SharedAccessSignature sr="

const upperhex = "0123456789ABCDEF"

// unreserved reports whether ch needs no percent-escaping (RFC 3986
// unreserved set). Base64 '+', '/' and '=' all escape.
func unreserved(ch byte) bool {
	switch {
	case 'A' <= ch && ch <= 'Z', 'a' <= ch && ch <= 'z', '0' <= ch && ch <= '9':
		return true
	case ch == '-' || ch == '_' || ch == '.' || ch == '~':
		return true
	}
	return false
}

func escapedLen(src []byte) int {
	n := len(src)
	for _, ch := range src {
		if !unreserved(ch) {
			n += 2
		}
	}
	return n
}

func appendEscaped(dst []byte, src []byte) []byte {
	for _, ch := range src {
		if unreserved(ch) {
			dst = append(dst, ch)
			continue
		}
		dst = append(dst, '%', upperhex[ch>>4], upperhex[ch&0x0f])
	}
	return dst
}

// decimalLen returns the number of decimal digits in v.
func decimalLen(v uint64) int {
	n := 1
	for v >= 10 {
		v /= 10
		n++
	}
	return n
}

func appendUint(dst []byte, v uint64) []byte {
	return strconv.AppendUint(dst, v, 10)
}
