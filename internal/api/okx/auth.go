package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Sign base64 HMAC-SHA256 of timestamp + method + request path + body
func Sign(timestamp, method, requestPath, body, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Timestamp ISO-8601 UTC timestamp with millisecond precision
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
