package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// GenerateKey generates a cache key from a resource identifier
// The key is a SHA256 hash of the normalized identifier
func GenerateKey(id string) string {
	normalized := normalizeForKey(id)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// GenerateKeyWithPrefix generates a cache key with a prefix
func GenerateKeyWithPrefix(prefix, id string) string {
	key := GenerateKey(id)
	return prefix + ":" + key
}

// normalizeForKey normalizes an identifier for consistent key generation.
// URL identifiers get host and path normalization; opaque identifiers
// such as wallet addresses are only trimmed, since their case matters.
func normalizeForKey(id string) string {
	id = strings.TrimSpace(id)

	u, err := url.Parse(id)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return id
	}

	// Normalize host
	u.Host = strings.ToLower(u.Host)

	// Remove default ports
	if (u.Scheme == "http" && u.Port() == "80") ||
		(u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}

	// Clean path
	if u.Path == "" {
		u.Path = "/"
	} else {
		u.Path = path.Clean(u.Path)
	}

	// Remove trailing slash except for root
	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	// Remove fragment
	u.Fragment = ""

	return u.String()
}

// KeyPrefix constants for different cache types
const (
	PrefixAllowList = "allowlist"
	PrefixFees      = "fees"
	PrefixPrice     = "price"
)

// AllowListKey generates a cache key for a GitHub organization allow-list.
// Organization names are case-insensitive on GitHub.
func AllowListKey(org string) string {
	return GenerateKeyWithPrefix(PrefixAllowList, strings.ToLower(org))
}

// FeesKey generates a cache key for a creator fee series
func FeesKey(address, interval string) string {
	return GenerateKeyWithPrefix(PrefixFees, address+"/"+interval)
}

// PriceKey generates a cache key for a spot price lookup
func PriceKey(coin, vsCurrency string) string {
	return GenerateKeyWithPrefix(PrefixPrice, coin+"/"+vsCurrency)
}
