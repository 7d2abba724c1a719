// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"crypto/md5" //nolint:gosec // MD5 is mandated by the router login protocol
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
)

// Crypt algorithm ids announced by the router in a challenge
const (
	AlgMD5    = "1"
	AlgSHA256 = "5"
	AlgSHA512 = "6"
)

// crypters maps algorithm ids to crypt implementations. SHA-2 variants use
// the implicit 5000 rounds, so no "rounds=" segment appears in the output.
var crypters = map[string]func() crypt.Crypter{
	AlgMD5:    md5_crypt.New,
	AlgSHA256: sha256_crypt.New,
	AlgSHA512: sha512_crypt.New,
}

// SupportedHashAlgorithms returns the supported algorithm ids in sorted order
func SupportedHashAlgorithms() []string {
	algs := make([]string, 0, len(crypters))
	for alg := range crypters {
		algs = append(algs, alg)
	}
	sort.Strings(algs)
	return algs
}

// UnixHash computes the crypt(3)-style hash of password for the given
// algorithm id and salt, e.g. "$1$salt$..." for MD5-crypt.
//
// Returns ErrUnsupportedHashAlgorithm for ids other than "1", "5" and "6".
func UnixHash(password, alg, salt string) (string, error) {
	newCrypter, ok := crypters[alg]
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedHashAlgorithm, alg, strings.Join(SupportedHashAlgorithms(), ", "))
	}

	hash, err := newCrypter().Generate([]byte(password), []byte("$"+alg+"$"+salt))
	if err != nil {
		return "", fmt.Errorf("crypt %s: %w", alg, err)
	}
	return hash, nil
}

// LoginDigest computes the final login hash sent with the login RPC:
// the hex MD5 of "username:passwordHash:nonce". The router recomputes the
// identical string, so the layout must not change.
func LoginDigest(username, passwordHash, nonce string) string {
	sum := md5.Sum([]byte(username + ":" + passwordHash + ":" + nonce)) //nolint:gosec // protocol requirement
	return hex.EncodeToString(sum[:])
}
