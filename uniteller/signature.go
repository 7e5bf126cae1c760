package uniteller

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// MD5Hex returns the lowercase hex MD5 digest of s. The gateway validates
// every signature byte-for-byte against this exact digest algorithm.
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SignPaymentRequest computes the signature for an outbound payment request.
// The gateway checks it against a fixed eleven-slot layout of per-field
// hashes joined with "&"; slots 4-6 and 8-10 always carry the hash of an
// empty string. The layout is vendor-specified and must not be collapsed.
func SignPaymentRequest(shopIDP, orderIDP, amount, customerIDP, password string) string {
	empty := MD5Hex("")
	parts := []string{
		MD5Hex(shopIDP),
		MD5Hex(orderIDP),
		MD5Hex(amount),
		empty,
		empty,
		empty,
		MD5Hex(customerIDP),
		empty,
		empty,
		empty,
		MD5Hex(password),
	}
	return strings.ToUpper(MD5Hex(strings.Join(parts, "&")))
}

// SignNotification computes the signature the gateway attaches to a callback
// notification: the MD5 of the order id, status token and shared password
// concatenated in that order.
func SignNotification(orderID, status, password string) string {
	return strings.ToUpper(MD5Hex(orderID + status + password))
}

// VerifyNotification reports whether a submitted signature matches the one
// expected for the notification fields. Comparison is case-insensitive.
func VerifyNotification(orderID, status, password, signature string) bool {
	return SignNotification(orderID, status, password) == strings.ToUpper(signature)
}
