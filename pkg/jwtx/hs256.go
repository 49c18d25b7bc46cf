package jwtx

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Codec signs and verifies invite tokens with a shared HMAC-SHA256
// secret. Issuer and verifier live in the same trust domain so a symmetric
// key is enough.
type HS256Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// Option configures an HS256Codec.
type Option func(*HS256Codec)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *HS256Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewHS256Codec creates a codec for the given secret.
func NewHS256Codec(secret []byte, opts ...Option) (*HS256Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	c := &HS256Codec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Sign stamps the temporal claims and returns header.payload.signature.
//
// iat defaults to now and nbf defaults to iat. exp is always overwritten with
// iat + ttl so a caller can't smuggle a longer lifetime in.
func (c *HS256Codec) Sign(claims Claims, ttl time.Duration) (string, error) {
	if ttl < MinTTL {
		return "", ErrInvalidTTL
	}

	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(c.now())
	}
	iat := claims.IssuedAt.Truncate(time.Second)
	claims.IssuedAt = jwt.NewNumericDate(iat)

	if claims.NotBefore == nil {
		claims.NotBefore = jwt.NewNumericDate(iat)
	}
	claims.ExpiresAt = jwt.NewNumericDate(iat.Add(ttl.Truncate(time.Second)))

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature first and only then looks at the payload.
//
//  1. token must have exactly three segments
//  2. signature must match in constant time (hmac.Equal inside golang-jwt)
//  3. header and claims must decode and the header must say HS256
//  4. nbf and exp are enforced against the codec clock
func (c *HS256Codec) Verify(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrMalformed
	}

	// Strict decoding rejects non-canonical trailing bits, otherwise two
	// different strings would carry the same signature bytes.
	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return Claims{}, ErrInvalidSig
	}

	signingInput := parts[0] + "." + parts[1]
	if err := jwt.SigningMethodHS256.Verify(signingInput, sig, c.secret); err != nil {
		return Claims{}, ErrInvalidSig
	}

	var claims Claims
	parsed, _, err := c.parser.ParseUnverified(token, &claims)
	if err != nil {
		return Claims{}, ErrMalformed
	}
	if parsed.Method == nil || parsed.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateTime(c.now()); err != nil {
		return Claims{}, err
	}

	return claims, nil
}
