package tokens

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskpulse/taskpulse-go/pkg/logger"
)

// Claims is the decoded payload of a credential. It is derived on demand and
// never stored.
type Claims struct {
	Subject    int64
	HasSubject bool
	Email      string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Raw        jwt.MapClaims
}

// SubjectID returns the resolved subject and whether one could be resolved.
func (c *Claims) SubjectID() (int64, bool) {
	if c == nil {
		return 0, false
	}
	return c.Subject, c.HasSubject
}

// ExpiredAt reports whether the credential is expired at t. Expiry is
// inclusive: exp == t counts as expired.
func (c *Claims) ExpiredAt(t time.Time) bool {
	return c == nil || !c.ExpiresAt.After(t)
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Parse decodes the payload segment of a compact three-part credential.
// The signature is not checked.
func Parse(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}

	var m jwt.MapClaims
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("%w: payload json: %v", ErrMalformed, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformed)
	}
	return fromMap(m)
}

// Decode is Parse with every failure folded into a nil result.
func Decode(raw string) *Claims {
	if raw == "" {
		return nil
	}
	c, err := Parse(raw)
	if err != nil {
		logger.Debugf("tokens: decode failed: %v", err)
		return nil
	}
	return c
}

func decodeSegment(seg string) ([]byte, error) {
	b, err := segmentParser.DecodeSegment(seg)
	if err == nil {
		return b, nil
	}
	// some issuers emit standard base64
	if b2, err2 := base64.StdEncoding.DecodeString(seg); err2 == nil {
		return b2, nil
	}
	return nil, err
}

func fromMap(m jwt.MapClaims) (*Claims, error) {
	if _, ok := m["exp"]; !ok {
		return nil, ErrMissingExpiry
	}
	exp, err := m.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: exp is not numeric", ErrMalformed)
	}

	c := &Claims{ExpiresAt: exp.Time, Raw: m}
	if iat, err := m.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if email, ok := m["email"].(string); ok {
		c.Email = email
	}
	c.Subject, c.HasSubject = resolveSubject(m)
	return c, nil
}

// resolveSubject prefers a numeric user_id claim and falls back to numeric
// coercion of sub.
func resolveSubject(m jwt.MapClaims) (int64, bool) {
	if id, ok := asInt(m["user_id"]); ok {
		return id, true
	}
	return asInt(m["sub"])
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	}
	return 0, false
}
