// Package adaptive provides authenticated encryption with automatic
// algorithm selection: AES-256-GCM where the CPU accelerates AES,
// ChaCha20-Poly1305 everywhere else. Ciphertexts carry their nonce,
// so a Cipher value is all a caller needs to round-trip data.
package adaptive
