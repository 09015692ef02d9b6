package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// canonicalString builds the signing input: every field except signature,
// rendered as key=value pairs sorted by key and joined with '&'. Zero-valued
// optional fields are included so both sides always sign the same shape.
func canonicalString(p *Payload) string {
	fields := map[string]string{
		"order_id":     p.OrderID,
		"amount":       p.Amount.String(),
		"tx_hash":      p.TxHash,
		"block_number": fmt.Sprintf("%d", p.BlockNumber),
		"timestamp":    fmt.Sprintf("%d", p.Timestamp),
		"order_type":   p.OrderType,
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	return strings.Join(pairs, "&")
}

// Sign computes the hex HMAC-SHA256 of the canonical payload string.
func Sign(p *Payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonicalString(p)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the payload's signature in constant time.
func VerifySignature(p *Payload, secret string) bool {
	expected := Sign(p, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(p.Signature)))
}
