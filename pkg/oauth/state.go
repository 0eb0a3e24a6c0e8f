package oauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidState is returned when an OAuth state fails verification.
var ErrInvalidState = errors.New("invalid oauth state")

// StateTTL is how long a signed state stays valid.
const StateTTL = 10 * time.Minute

// States signs and verifies the OAuth state parameter as short lived HS256
// JSON Web Tokens.
type States struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewStates returns a state signer. It returns nil when secret is empty,
// which disables state verification.
func NewStates(secret, issuer string) *States {
	if secret == "" {
		return nil
	}
	return &States{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Sign returns a new signed state.
func (s *States) Sign() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks that state was signed by s and has not expired.
func (s *States) Verify(state string) error {
	if state == "" {
		return ErrInvalidState
	}

	token, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidState
	}

	return nil
}
