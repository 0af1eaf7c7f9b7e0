package ecpay

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// generateCheckMac implements ECPay's CheckMacValue scheme: parameters sorted
// case-insensitively by key, wrapped in HashKey/HashIV, URL-encoded the way
// .NET's HttpUtility.UrlEncode does it, lowercased, then SHA-256 in upper hex.
// The CheckMacValue field itself is always excluded from the input.
func generateCheckMac(params map[string]string, hashKey, hashIV string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "CheckMacValue" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	var sb strings.Builder
	sb.WriteString("HashKey=")
	sb.WriteString(hashKey)
	for _, k := range keys {
		sb.WriteString("&")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(params[k])
	}
	sb.WriteString("&HashIV=")
	sb.WriteString(hashIV)

	encoded := strings.ToLower(url.QueryEscape(sb.String()))
	encoded = dotNetUnescape(encoded)

	sum := sha256.Sum256([]byte(encoded))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// dotNetUnescape reverts the characters Go escapes but .NET's UrlEncode leaves
// bare, so both sides hash the same string.
func dotNetUnescape(s string) string {
	replacer := strings.NewReplacer(
		"%21", "!",
		"%28", "(",
		"%29", ")",
		"%2a", "*",
		"%2d", "-",
		"%2e", ".",
		"%5f", "_",
	)
	return replacer.Replace(s)
}
