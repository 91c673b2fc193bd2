package auth

import (
	"os"
	"testing"

	"github.com/alexedwards/argon2id"
)

func TestMain(m *testing.M) {
	// keep hashing fast, the format is unchanged
	HashParams = &argon2id.Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}

	os.Exit(m.Run())
}
