// Package tokentest builds unsigned credentials for tests.
package tokentest

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

var header = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

// Unsigned returns a three-segment credential carrying claims and a dummy signature.
func Unsigned(claims map[string]interface{}) string {
	b, err := json.Marshal(claims)
	if err != nil {
		panic(err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

// For returns a credential for subject id expiring at exp.
func For(id int64, exp time.Time) string {
	return Unsigned(map[string]interface{}{
		"user_id": id,
		"email":   "user@example.com",
		"iat":     exp.Add(-time.Hour).Unix(),
		"exp":     exp.Unix(),
	})
}
