package sas

// Canonicalizer builds the broker's canonical string-to-sign for a
// protected resource at a given expiration epoch. The resource
// identifier itself is fixed when the Canonicalizer is constructed.
//
// Implementations write into dst and return the written prefix of dst;
// they must not retain dst, and must fail (wrapping ErrBufferTooSmall)
// rather than write a truncated payload.
type Canonicalizer interface {
	SignaturePayload(dst []byte, expiration uint64) ([]byte, error)
}

// Formatter assembles the final credential string from the resource
// identifier it was constructed with, the base64 signature, and the
// expiration epoch, in the broker's required layout.
//
// Implementations write into dst and return the written prefix of dst.
// When dst is too small they must leave it untouched and fail wrapping
// ErrBufferTooSmall, so a previous token occupying the same storage
// survives a failed regeneration.
type Formatter interface {
	FormatToken(dst []byte, signatureB64 []byte, expiration uint64) ([]byte, error)
}
