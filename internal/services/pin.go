package services

import (
	cryptorand "crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

func setArgon2Defaults() {
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)
}

// PINs are stored as argon2id digests, never verbatim. Cost parameters come
// from config and are baked into each digest, so operators can tune cost
// without invalidating hashes written under the old parameters.
func hashPIN(pin string) (string, error) {
	setArgon2Defaults()

	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	time := uint32(viper.GetInt("argon2.time"))
	memory := uint32(viper.GetInt("argon2.memory"))
	threads := uint8(viper.GetInt("argon2.threads"))

	key := argon2.IDKey([]byte(pin), salt, time, memory, threads,
		uint32(viper.GetInt("argon2.key_length")))

	return fmt.Sprintf("%d:%d:%d:%s:%s", time, memory, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func verifyPIN(pin, encoded string) bool {
	parts := strings.SplitN(encoded, ":", 5)
	if len(parts) != 5 {
		return false
	}

	time, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return false
	}
	memory, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return false
	}
	threads, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	key := argon2.IDKey([]byte(pin), salt,
		uint32(time), uint32(memory), uint8(threads), uint32(len(expected)))

	return subtle.ConstantTimeCompare(key, expected) == 1
}
