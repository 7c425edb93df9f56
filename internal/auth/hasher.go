package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownHashFormat is returned by Verify when no hasher recognises the
// stored encoding.
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// CredentialHasher turns passwords into salted one-way encodings and checks
// passwords against them. Implementations must embed their parameters in the
// encoded string so stored hashes stay verifiable after a config change.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
	// Recognizes reports whether encoded was produced by this algorithm.
	Recognizes(encoded string) bool
}

// Argon2idParams are the cost parameters for Argon2idHasher.
type Argon2idParams struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2idParams follows the RFC 9106 second recommended option.
var DefaultArgon2idParams = Argon2idParams{
	Memory:  64 * 1024,
	Time:    3,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Argon2idHasher encodes hashes in the PHC string format:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
type Argon2idHasher struct {
	params Argon2idParams
}

// NewArgon2idHasher returns a hasher that derives new hashes with p.
func NewArgon2idHasher(p Argon2idParams) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

// Hash derives a key from password with a fresh random salt and returns it
// PHC-encoded together with the parameters used.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth.Argon2idHasher.Hash: salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. The cost parameters are
// read from encoded, so hashes made with older parameters still verify.
func (h *Argon2idHasher) Verify(encoded, password string) (bool, error) {
	p, salt, key, err := decodeArgon2id(encoded)
	if err != nil {
		return false, fmt.Errorf("auth.Argon2idHasher.Verify: %w", err)
	}
	other := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// Recognizes reports whether encoded is an argon2id PHC string.
func (h *Argon2idHasher) Recognizes(encoded string) bool {
	return strings.HasPrefix(encoded, "$argon2id$")
}

func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrUnknownHashFormat
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("version: %w", err)
	}
	if version != argon2.Version {
		return Argon2idParams{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}
	var p Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("params: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("hash: %w", err)
	}
	return p, salt, key, nil
}

// BcryptHasher wraps golang.org/x/crypto/bcrypt. It also verifies the "$2y$"
// variant written by PHP's password_hash.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a BcryptHasher; cost <= 0 means bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth.BcryptHasher.Hash: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(encoded, password string) (bool, error) {
	// $2y$ and $2b$ are the same algorithm; x/crypto only parses $2a$/$2b$.
	if strings.HasPrefix(encoded, "$2y$") {
		encoded = "$2b$" + encoded[len("$2y$"):]
	}
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("auth.BcryptHasher.Verify: %w", err)
	}
}

func (h *BcryptHasher) Recognizes(encoded string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, prefix) {
			return true
		}
	}
	return false
}

// MultiHasher hashes with its primary and verifies with whichever of its
// hashers recognises the stored encoding.
type MultiHasher struct {
	primary CredentialHasher
	all     []CredentialHasher
}

// NewMultiHasher builds a MultiHasher. primary is also tried for verification.
func NewMultiHasher(primary CredentialHasher, others ...CredentialHasher) *MultiHasher {
	return &MultiHasher{primary: primary, all: append([]CredentialHasher{primary}, others...)}
}

func (m *MultiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *MultiHasher) Verify(encoded, password string) (bool, error) {
	for _, h := range m.all {
		if h.Recognizes(encoded) {
			return h.Verify(encoded, password)
		}
	}
	return false, ErrUnknownHashFormat
}

func (m *MultiHasher) Recognizes(encoded string) bool {
	for _, h := range m.all {
		if h.Recognizes(encoded) {
			return true
		}
	}
	return false
}

// NewHasher returns the MultiHasher for a PASSWORD_HASHER config value.
func NewHasher(name string) (*MultiHasher, error) {
	argon := NewArgon2idHasher(DefaultArgon2idParams)
	bc := NewBcryptHasher(0)
	switch name {
	case "", "argon2id":
		return NewMultiHasher(argon, bc), nil
	case "bcrypt":
		return NewMultiHasher(bc, argon), nil
	default:
		return nil, fmt.Errorf("auth.NewHasher: unknown hasher %q", name)
	}
}
