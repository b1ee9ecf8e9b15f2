package coverstar

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/spotlight-social/coverstar/errors"
	"google.golang.org/grpc/codes"
)

// StateExpiration bounds the time between AuthCodeURL and the callback.
const StateExpiration = 5 * time.Minute

// State is carried through the provider in the OAuth2 state parameter. It is
// signed with the client secret so the callback can trust ReturnTo.
type State struct {
	Nonce     string    `json:"n"`
	ReturnTo  string    `json:"r,omitempty"`
	IssuedAt  time.Time `json:"t"`
	Signature string    `json:"sig,omitempty"`
}

// Encode returns the state in a form safe for a query parameter.
func (s *State) Encode() string {
	b, _ := json.Marshal(s)
	return base64.RawURLEncoding.EncodeToString(b)
}

// NewState returns a signed state value remembering where to send the user
// after sign-in.
func (s *Strategy) NewState(returnTo string) string {
	st := &State{
		Nonce:    uuid.NewString(),
		ReturnTo: returnTo,
		IssuedAt: time.Now().UTC(),
	}
	st.Signature = s.signState(st)
	return st.Encode()
}

// ParseState verifies a state value produced by NewState.
func (s *Strategy) ParseState(v string) (*State, error) {
	if v == "" {
		return nil, errors.NewC("coverstar: state parameter is empty", codes.InvalidArgument)
	}
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil, errors.NewC("coverstar: invalid state parameter, not base64 encoded", codes.InvalidArgument)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, errors.NewC("coverstar: invalid state parameter, json decode failed", codes.InvalidArgument)
	}
	if st.IssuedAt.Add(StateExpiration).Before(time.Now()) {
		return nil, errors.NewC("coverstar: state parameter has expired", codes.InvalidArgument)
	}

	actual, err := hex.DecodeString(st.Signature)
	if err != nil {
		return nil, errors.NewC("coverstar: state parameter has invalid signature", codes.InvalidArgument)
	}
	expected, _ := hex.DecodeString(s.signState(&st))
	if !hmac.Equal(actual, expected) {
		return nil, errors.NewC("coverstar: state parameter has invalid signature", codes.InvalidArgument)
	}
	return &st, nil
}

// signState signs st with its signature field cleared.
func (s *Strategy) signState(st *State) string {
	unsigned := *st
	unsigned.Signature = ""
	h := hmac.New(sha256.New, []byte(s.clientSecret))
	h.Write([]byte(unsigned.Encode()))
	return hex.EncodeToString(h.Sum(nil))
}
