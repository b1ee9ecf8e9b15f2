// Package idtoken decodes the claims carried by an OpenID Connect identity
// token without verifying its signature.
//
// The signature segment must be present but is never checked. Only decode
// tokens whose provenance is already trusted, for example a token returned
// directly by the provider's token endpoint over TLS.
package idtoken

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spotlight-social/coverstar/errors"
	"google.golang.org/grpc/codes"
)

// ReasonMalformed is the ErrorInfo reason attached to decode failures.
const ReasonMalformed = "MALFORMED_ID_TOKEN"

// Claims is the decoded payload of an identity token.
type Claims = jwt.MapClaims

// MalformedTokenError is returned when a token is structurally invalid or
// does not identify a subject.
type MalformedTokenError struct {
	Reason string
	Err    error
}

func (e *MalformedTokenError) Error() string {
	if e.Err != nil {
		return "idtoken: malformed token: " + e.Reason + ": " + e.Err.Error()
	}
	return "idtoken: malformed token: " + e.Reason
}

func (e *MalformedTokenError) Unwrap() error {
	return e.Err
}

// Malformed returns a MalformedTokenError carrying an Unauthenticated code.
func Malformed(reason string, err error) *errors.Error {
	return errors.WithCode(&MalformedTokenError{Reason: reason, Err: err}, codes.Unauthenticated).
		WithReason(ReasonMalformed, map[string]string{"reason": reason}).
		WithPublicMessage("invalid identity token")
}

// Decoder decodes identity tokens.
type Decoder struct {
	parser *jwt.Parser
}

// NewDecoder returns a decoder which accepts payload segments with or without
// base64 padding.
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser(jwt.WithPaddingAllowed())}
}

var defaultDecoder = NewDecoder()

// Decode decodes token with the default decoder.
func Decode(token string) (Claims, error) {
	return defaultDecoder.Decode(token)
}

// Decode splits token into its header, payload and signature segments and
// returns the JSON object held in the payload.
func (d *Decoder) Decode(token string) (Claims, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, Malformed("expected 3 segments", nil)
	}
	for _, s := range segments {
		if s == "" {
			return nil, Malformed("empty segment", nil)
		}
	}

	// The parser re-pads the segment to a multiple of 4 before decoding.
	payload, err := d.parser.DecodeSegment(segments[1])
	if err != nil {
		return nil, Malformed("payload is not base64url", err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, Malformed("payload is not a JSON object", err)
	}
	if claims == nil {
		return nil, Malformed("payload is not a JSON object", nil)
	}
	return claims, nil
}

// Subject returns the sub claim. Without it the identity cannot be
// established, so a missing or non-string sub is a malformed token.
func Subject(c Claims) (string, error) {
	sub, err := c.GetSubject()
	if err != nil {
		return "", Malformed("invalid sub claim", err)
	}
	if sub == "" {
		return "", Malformed("missing sub claim", nil)
	}
	return sub, nil
}

// String returns a string claim. Missing and non-string claims report false.
func String(c Claims, key string) (string, bool) {
	v, ok := c[key].(string)
	return v, ok
}
