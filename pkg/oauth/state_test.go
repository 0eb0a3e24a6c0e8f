package oauth

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestStates(t *testing.T) {
	is := is.New(t)
	s := NewStates("secret", "http://localhost:3000")

	state, err := s.Sign()
	is.NoErr(err)
	is.NoErr(s.Verify(state))

	is.Equal(s.Verify(""), ErrInvalidState)
	is.Equal(s.Verify("garbage"), ErrInvalidState)

	other := NewStates("other", "http://localhost:3000")
	is.Equal(other.Verify(state), ErrInvalidState)
}

func TestStatesExpire(t *testing.T) {
	is := is.New(t)
	s := NewStates("secret", "tricox")
	state, err := s.Sign()
	is.NoErr(err)

	s.now = func() time.Time { return time.Now().Add(StateTTL + time.Minute) }
	is.Equal(s.Verify(state), ErrInvalidState)
}

func TestNewStatesDisabled(t *testing.T) {
	is := is.New(t)
	is.True(NewStates("", "tricox") == nil)
}
