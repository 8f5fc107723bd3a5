package calico

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// HashAlgo names a hashing algorithm for the export.hash tag.
type HashAlgo string

const (
	// HashSHA256 is deterministic hex SHA-256. Use for fingerprints, not passwords.
	HashSHA256 HashAlgo = "sha256"

	// HashSHA512 is deterministic hex SHA-512. Use for fingerprints, not passwords.
	HashSHA512 HashAlgo = "sha512"

	// HashArgon2 is salted Argon2id in PHC string format.
	HashArgon2 HashAlgo = "argon2"

	// HashBcrypt is salted bcrypt.
	HashBcrypt HashAlgo = "bcrypt"
)

// Hasher performs one-way hashing of exported field values.
type Hasher interface {
	Hash(plaintext []byte) (string, error)
}

// digestHasher hex-encodes a standard library digest.
type digestHasher struct {
	newHash func() hash.Hash
}

func (h digestHasher) Hash(plaintext []byte) (string, error) {
	d := h.newHash()
	d.Write(plaintext)
	return hex.EncodeToString(d.Sum(nil)), nil
}

// SHA256Hasher returns a hasher producing 64 hex characters.
func SHA256Hasher() Hasher { return digestHasher{newHash: sha256.New} }

// SHA512Hasher returns a hasher producing 128 hex characters.
func SHA512Hasher() Hasher { return digestHasher{newHash: sha512.New} }

// Argon2Params configures Argon2id hashing.
type Argon2Params struct {
	Time    uint32 // Number of iterations
	Memory  uint32 // Memory usage in KiB
	Threads uint8  // Parallelism factor
	KeyLen  uint32 // Output key length
	SaltLen uint32 // Salt length
}

// DefaultArgon2Params returns the OWASP-recommended Argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

type argon2Hasher struct {
	p Argon2Params
}

// Argon2Hasher returns an Argon2id hasher with the given parameters.
func Argon2Hasher(p Argon2Params) Hasher { return argon2Hasher{p: p} }

func (h argon2Hasher) Hash(plaintext []byte) (string, error) {
	salt := make([]byte, h.p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey(plaintext, salt, h.p.Time, h.p.Memory, h.p.Threads, h.p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.p.Memory, h.p.Time, h.p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

type bcryptHasher struct {
	cost int
}

// BcryptHasher returns a bcrypt hasher. Costs outside bcrypt's range fall
// back to bcrypt.DefaultCost.
func BcryptHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcryptHasher{cost: cost}
}

func (h bcryptHasher) Hash(plaintext []byte) (string, error) {
	out, err := bcrypt.GenerateFromPassword(plaintext, h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// builtinHashers returns a fresh copy of the default hasher table.
func builtinHashers() map[HashAlgo]Hasher {
	return map[HashAlgo]Hasher{
		HashSHA256: SHA256Hasher(),
		HashSHA512: SHA512Hasher(),
		HashArgon2: Argon2Hasher(DefaultArgon2Params()),
		HashBcrypt: BcryptHasher(bcrypt.DefaultCost),
	}
}
