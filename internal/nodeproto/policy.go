package nodeproto

import (
	"errors"
	"fmt"
)

// Prefix is the node: protocol scheme.
const Prefix = "node:"

// ErrUnknownPolicy is returned for policy values other than always and never.
var ErrUnknownPolicy = errors.New("unknown node: protocol policy")

// Policy decides whether built-in references must carry the node: prefix.
type Policy uint8

const (
	// RequirePrefix is the "always" option.
	RequirePrefix Policy = iota + 1
	// ForbidPrefix is the "never" option.
	ForbidPrefix
)

func (p Policy) String() string {
	switch p {
	case RequirePrefix:
		return "always"
	case ForbidPrefix:
		return "never"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy accepts "always" and "never".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "always":
		return RequirePrefix, nil
	case "never":
		return ForbidPrefix, nil
	}
	return 0, fmt.Errorf("%w: %q (want \"always\" or \"never\")", ErrUnknownPolicy, s)
}

// Policies lists the option values in display order.
func Policies() []Policy {
	return []Policy{RequirePrefix, ForbidPrefix}
}
