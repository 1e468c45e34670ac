package whatsapp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/url"
	"sort"
)

// ComputeSignature builds the Twilio request signature for a webhook: the
// full request URL concatenated with every POST parameter as key+value in
// lexicographic key order, HMAC-SHA1 signed with the auth token, base64
// encoded.
func ComputeSignature(authToken, requestURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte(requestURL)
	for _, k := range keys {
		// Twilio signs the first value of each parameter.
		buf = append(buf, k...)
		buf = append(buf, params.Get(k)...)
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write(buf)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether the X-Twilio-Signature header matches the
// signature computed over the request URL and form parameters.
func ValidateSignature(authToken, requestURL string, params url.Values, signature string) bool {
	expected := ComputeSignature(authToken, requestURL, params)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
