package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Scheme names a password hashing algorithm.
type Scheme string

const (
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
	// SchemeLegacyPBKDF2 covers ASP.NET Identity V2/V3 hashes imported from the
	// previous identity store. It is verify-only.
	SchemeLegacyPBKDF2 Scheme = "pbkdf2-legacy"
)

// MaxPasswordBytes is the longest password bcrypt accepts. Every scheme
// enforces it.
const MaxPasswordBytes = 72

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
)

// Verification is the outcome of checking a password against a stored hash.
type Verification int

const (
	VerificationFailed Verification = iota
	VerificationSuccess
	// VerificationSuccessRehashNeeded means the password matched but the hash
	// uses an older scheme or weaker parameters than the current default.
	VerificationSuccessRehashNeeded
)

// OK reports whether the password matched.
func (v Verification) OK() bool {
	return v == VerificationSuccess || v == VerificationSuccessRehashNeeded
}

// Argon2Params tunes argon2id hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params follows the RFC 9106 second recommended option.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher hashes new passwords with one scheme and verifies any
// supported scheme. Encoded hashes carry their algorithm, parameters and salt.
type PasswordHasher struct {
	scheme     Scheme
	bcryptCost int
	argon      Argon2Params
}

// HasherOption customises a PasswordHasher.
type HasherOption func(*PasswordHasher)

// WithArgon2Params overrides the argon2id parameters used for new hashes.
func WithArgon2Params(params Argon2Params) HasherOption {
	return func(h *PasswordHasher) {
		h.argon = params
	}
}

// NewPasswordHasher builds a hasher producing hashes with scheme.
func NewPasswordHasher(scheme string, bcryptCost int, opts ...HasherOption) (*PasswordHasher, error) {
	h := &PasswordHasher{scheme: SchemeBcrypt, bcryptCost: bcryptCost, argon: DefaultArgon2Params}
	switch Scheme(strings.ToLower(scheme)) {
	case "", SchemeBcrypt:
	case SchemeArgon2id:
		h.scheme = SchemeArgon2id
	default:
		return nil, fmt.Errorf("unsupported password scheme %q", scheme)
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Scheme returns the scheme used for new hashes.
func (h *PasswordHasher) Scheme() Scheme {
	return h.scheme
}

// Hash returns the encoded hash of password using a fresh random salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if h.scheme == SchemeArgon2id {
		return h.hashArgon2(password)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hashed), nil
}

// Verify checks password against encoded. Malformed or unknown hashes fail.
func (h *PasswordHasher) Verify(password, encoded string) Verification {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return h.verifyArgon2(password, encoded)
	case strings.HasPrefix(encoded, "$2"):
		return h.verifyBcrypt(password, encoded)
	default:
		return verifyLegacyPBKDF2(password, encoded)
	}
}

func (h *PasswordHasher) verifyBcrypt(password, encoded string) Verification {
	if err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)); err != nil {
		return VerificationFailed
	}
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil || h.scheme != SchemeBcrypt || cost < h.bcryptCost {
		return VerificationSuccessRehashNeeded
	}
	return VerificationSuccess
}

func (h *PasswordHasher) hashArgon2(password string) (string, error) {
	salt := make([]byte, h.argon.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.argon.Iterations, h.argon.Memory, h.argon.Parallelism, h.argon.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.argon.Memory, h.argon.Iterations, h.argon.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *PasswordHasher) verifyArgon2(password, encoded string) Verification {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return VerificationFailed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return VerificationFailed
	}

	var params Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return VerificationFailed
	}
	if params.Iterations == 0 || params.Parallelism == 0 {
		return VerificationFailed
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return VerificationFailed
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return VerificationFailed
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
	if subtle.ConstantTimeCompare(candidate, key) != 1 {
		return VerificationFailed
	}

	if h.scheme != SchemeArgon2id ||
		params.Memory < h.argon.Memory ||
		params.Iterations < h.argon.Iterations ||
		params.Parallelism < h.argon.Parallelism ||
		uint32(len(key)) < h.argon.KeyLength {
		return VerificationSuccessRehashNeeded
	}
	return VerificationSuccess
}

// ASP.NET Identity binary layouts:
//
//	V2: 0x00 | salt(16) | subkey(32), PBKDF2-HMAC-SHA1, 1000 iterations
//	V3: 0x01 | prf(u32) | iterations(u32) | saltLen(u32) | salt | subkey, big-endian
const (
	legacyV2SaltLen   = 16
	legacyV2KeyLen    = 32
	legacyV2Iter      = 1000
	legacyV3HeaderLen = 13
	legacyMinSaltLen  = 16
	legacyMinKeyLen   = 16
)

func verifyLegacyPBKDF2(password, encoded string) Verification {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		return VerificationFailed
	}

	var (
		salt, subkey []byte
		iterations   int
		prf          func() hash.Hash
	)

	switch raw[0] {
	case 0x00:
		if len(raw) != 1+legacyV2SaltLen+legacyV2KeyLen {
			return VerificationFailed
		}
		salt = raw[1 : 1+legacyV2SaltLen]
		subkey = raw[1+legacyV2SaltLen:]
		iterations = legacyV2Iter
		prf = sha1.New
	case 0x01:
		if len(raw) < legacyV3HeaderLen {
			return VerificationFailed
		}
		switch binary.BigEndian.Uint32(raw[1:5]) {
		case 0:
			prf = sha1.New
		case 1:
			prf = sha256.New
		case 2:
			prf = sha512.New
		default:
			return VerificationFailed
		}
		iterations = int(binary.BigEndian.Uint32(raw[5:9]))
		saltLen := int(binary.BigEndian.Uint32(raw[9:13]))
		if iterations <= 0 || saltLen < legacyMinSaltLen || len(raw) < legacyV3HeaderLen+saltLen+legacyMinKeyLen {
			return VerificationFailed
		}
		salt = raw[legacyV3HeaderLen : legacyV3HeaderLen+saltLen]
		subkey = raw[legacyV3HeaderLen+saltLen:]
	default:
		return VerificationFailed
	}

	candidate := pbkdf2.Key([]byte(password), salt, iterations, len(subkey), prf)
	if subtle.ConstantTimeCompare(candidate, subkey) != 1 {
		return VerificationFailed
	}
	return VerificationSuccessRehashNeeded
}
