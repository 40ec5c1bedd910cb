package formup

import (
	"errors"
	"fmt"

	"github.com/pthm/formup/lib/encoding"
)

// StateCodec turns form state into tokens embedded in the rendered form and
// back.
type StateCodec struct {
	enc  *encoding.Encoder
	mode encoding.Mode
}

// NewStateCodec creates a codec. Sealed tokens are encrypted; otherwise they
// are signed and readable.
func NewStateCodec(key []byte, sealed bool) (*StateCodec, error) {
	enc, err := encoding.NewEncoder(key)
	if err != nil {
		return nil, err
	}
	mode := encoding.Signed
	if sealed {
		mode = encoding.Sealed
	}
	return &StateCodec{enc: enc, mode: mode}, nil
}

// Encode serializes st.
func (c *StateCodec) Encode(st State) (string, error) {
	return c.enc.Encode(st, c.mode)
}

// Decode parses a token produced by Encode. Every failure wraps
// ErrInvalidState.
func (c *StateCodec) Decode(token string) (State, error) {
	if token == "" {
		return State{}, fmt.Errorf("%w: missing token", ErrInvalidState)
	}
	var st State
	if err := c.enc.Decode(token, c.mode, &st); err != nil {
		return State{}, wrapEncodingError(err)
	}
	return st, nil
}

func wrapEncodingError(err error) error {
	switch {
	case errors.Is(err, encoding.ErrSignatureInvalid):
		return fmt.Errorf("%w: signature mismatch", ErrInvalidState)
	case errors.Is(err, encoding.ErrDecryptFailed):
		return fmt.Errorf("%w: cannot decrypt", ErrInvalidState)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
}
