package nodeproto

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"nodeproto/internal/source"
)

// ToBodyEnd as relEnd selects the end of the literal body.
const ToBodyEnd = -1

var (
	// ErrNotLiteral reports a token too short to hold two quotes.
	ErrNotLiteral = errors.New("span is not a quoted literal")
	// ErrBodyRange reports offsets that fall outside the literal body.
	ErrBodyRange = errors.New("range outside literal body")
)

// LiteralBody returns the span between the quotes of a string literal token.
// Tokens shorter than two bytes yield an empty span at token.Start.
func LiteralBody(token source.Span) source.Span {
	if token.Len() < 2 {
		return source.Span{File: token.File, Start: token.Start, End: token.Start}
	}
	return source.Span{File: token.File, Start: token.Start + 1, End: token.End - 1}
}

// BodyRange maps [relStart, relEnd) relative to the literal body onto file
// offsets. relEnd == ToBodyEnd extends the range to the end of the body.
func BodyRange(token source.Span, relStart, relEnd int) (source.Span, error) {
	if token.End < token.Start || token.Len() < 2 {
		return source.Span{}, fmt.Errorf("%s: %w", token, ErrNotLiteral)
	}
	body := LiteralBody(token)
	bodyLen := int(body.Len())
	if relEnd == ToBodyEnd {
		relEnd = bodyLen
	}
	if relStart < 0 || relEnd < relStart || relEnd > bodyLen {
		return source.Span{}, fmt.Errorf("[%d, %d) in body of length %d: %w", relStart, relEnd, bodyLen, ErrBodyRange)
	}
	start, err := safecast.Conv[uint32](relStart)
	if err != nil {
		return source.Span{}, fmt.Errorf("relative start: %w", err)
	}
	end, err := safecast.Conv[uint32](relEnd)
	if err != nil {
		return source.Span{}, fmt.Errorf("relative end: %w", err)
	}
	return source.Span{File: token.File, Start: body.Start + start, End: body.Start + end}, nil
}
