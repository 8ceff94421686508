package rules

import (
	"fmt"
	"strings"
)

// MoveRequest is a move in coordinate form. Promotion is one of q, r, b, n or empty.
type MoveRequest struct {
	From      string
	To        string
	Promotion string
}

// ParseMoveRequest splits a 4 or 5 character token such as "e7e8q".
func ParseMoveRequest(token string) (MoveRequest, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if len(t) != 4 && len(t) != 5 {
		return MoveRequest{}, fmt.Errorf("%w: %q", ErrMalformedMove, token)
	}
	req := MoveRequest{From: t[0:2], To: t[2:4]}
	if len(t) == 5 {
		req.Promotion = t[4:5]
	}
	if err := req.Validate(); err != nil {
		return MoveRequest{}, err
	}
	return req, nil
}

func (r MoveRequest) Validate() error {
	if !validSquare(r.From) || !validSquare(r.To) {
		return fmt.Errorf("%w: %q", ErrMalformedMove, r.UCI())
	}
	switch r.Promotion {
	case "", "q", "r", "b", "n":
		return nil
	default:
		return fmt.Errorf("%w: promotion %q", ErrMalformedMove, r.Promotion)
	}
}

// UCI joins the request back into interchange form.
func (r MoveRequest) UCI() string {
	return strings.ToLower(r.From + r.To + r.Promotion)
}

func validSquare(sq string) bool {
	if len(sq) != 2 {
		return false
	}
	return sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}
