// Package sas implements Shared Access Signature (SAS) credentials:
// short-lived, HMAC-SHA256 signed tokens granting time-bounded access
// to a named broker resource.
//
// The package was written for constrained callers (device firmware and
// the SasMint issuing service share it), so the generator works entirely
// inside caller-owned scratch buffers and never allocates on the
// generation path:
//
//   - The caller supplies a signature buffer and a token buffer once,
//     at construction time.
//   - Generate overwrites both buffers in place on every call.
//   - Get returns a view into the token buffer, not a copy.
//
// Token Pipeline:
//
//  1. expiration = now + lifetime
//  2. Canonicalizer builds the string-to-sign for that expiration
//  3. the base64 device key is decoded into the signature buffer
//  4. HMAC-SHA256(decodedKey, stringToSign) overwrites the same buffer
//  5. the 32-byte MAC is base64 encoded
//  6. Formatter assembles the final credential into the token buffer
//
// Expiration is committed only when the whole pipeline succeeds, so a
// failed Generate never reports a live validity window for a token that
// was not produced, and never disturbs the previous good token.
//
// Security:
//
//   - The secret key is borrowed, never copied beyond the signature
//     buffer, and never logged.
//   - HMAC-SHA256 via crypto/hmac; determinism is covered by tests.
//
// @design DS-0801
package sas
