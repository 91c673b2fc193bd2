package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

const argon2idPrefix = "$argon2id$"

// HashParams are the Argon2id parameters used for new hashes.
var HashParams = argon2id.DefaultParams //nolint:gochecknoglobals // lowered in tests

// HashPassword hashes password with Argon2id and returns the encoded hash and
// its salt in base64.
func HashPassword(password string) (hash, salt string, err error) {
	hash, err = argon2id.CreateHash(password, HashParams)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}

	_, rawSalt, _, err := argon2id.DecodeHash(hash)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode password hash: %w", err)
	}

	return hash, base64.RawStdEncoding.EncodeToString(rawSalt), nil
}

// VerifyPassword reports whether password matches hash. Hashes not in Argon2id
// format are legacy base64(SHA-256(password || salt)) digests with a base64 salt.
// Both comparisons are constant-time.
func VerifyPassword(password, hash, salt string) bool {
	if strings.HasPrefix(hash, argon2idPrefix) {
		match, err := argon2id.ComparePasswordAndHash(password, hash)
		if err != nil {
			log.Error().Err(err).Msg("failed to compare password hash")
			return false
		}

		return match
	}

	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false
	}

	sum := sha256.Sum256(append([]byte(password), rawSalt...))
	computed := base64.StdEncoding.EncodeToString(sum[:])

	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
