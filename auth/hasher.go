package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/aidetectsai/detector-api/logger"
)

// ErrNoSecret is returned by Hash when the secret is empty. An absent
// credential is a degraded input, not a reason to panic the request.
var ErrNoSecret = errors.New("auth: no secret to hash")

// Hasher hashes and verifies passwords with argon2id. Every hash embeds a
// fresh random salt, so hashing the same secret twice yields different
// strings; equality is only observable through Verify. Stateless and safe
// for concurrent use.
type Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
	log     *logger.Logger
}

// HasherOption configures the hasher.
type HasherOption func(*Hasher)

// WithTime sets the number of argon2 iterations.
func WithTime(t uint32) HasherOption {
	return func(h *Hasher) { h.time = t }
}

// WithMemory sets the argon2 memory usage in KiB.
func WithMemory(m uint32) HasherOption {
	return func(h *Hasher) { h.memory = m }
}

// WithThreads sets the argon2 parallelism.
func WithThreads(t uint8) HasherOption {
	return func(h *Hasher) { h.threads = t }
}

// NewHasher creates an argon2id password hasher. Defaults match the
// service's historical parameters: 2 iterations, 64MiB, single lane,
// 32-byte salt, 64-byte key.
func NewHasher(opts ...HasherOption) *Hasher {
	h := &Hasher{
		time:    2,
		memory:  64 * 1024,
		threads: 1,
		keyLen:  64,
		saltLen: 32,
		log:     logger.WithComponent("hasher"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns the PHC-encoded argon2id hash of secret. An empty secret
// yields ErrNoSecret and is never hashed.
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		h.log.Warn("refusing to hash an empty secret")
		return "", ErrNoSecret
	}

	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, h.time, h.memory, h.threads, h.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether secret produced encoded. It returns false, never
// an error, for empty or malformed inputs, and compares in constant time.
func (h *Hasher) Verify(secret, encoded string) bool {
	if secret == "" || encoded == "" {
		return false
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(secret), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
