package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// defaultRecvWindow tolerated clock skew in milliseconds
const defaultRecvWindow = 10000

// SignQueryString hex HMAC-SHA256 of a query string
func SignQueryString(queryString, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(queryString))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildQueryString sorted query string, empty values dropped
func BuildQueryString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, k+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(values, "&")
}

// signedQuery stamps params with timestamp and recvWindow and appends the signature
func signedQuery(params map[string]string, secretKey string, now time.Time) string {
	if params == nil {
		params = map[string]string{}
	}
	params["timestamp"] = strconv.FormatInt(now.UnixMilli(), 10)
	if params["recvWindow"] == "" {
		params["recvWindow"] = strconv.Itoa(defaultRecvWindow)
	}
	qs := BuildQueryString(params)
	return qs + "&signature=" + SignQueryString(qs, secretKey)
}
