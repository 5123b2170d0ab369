package cache

import "fmt"

// Policy selects the write and prefetch behavior layered on the
// set-associative engine.
type Policy uint8

const (
	// PolicyNone installs every missing block and never prefetches.
	PolicyNone Policy = iota
	// PolicyWriteOnMiss does not fetch a block for a store that misses.
	PolicyWriteOnMiss
	// PolicyPrefetchAlways installs the next sequential line after every
	// access.
	PolicyPrefetchAlways
	// PolicyPrefetchOnMiss installs the next sequential line after a miss.
	PolicyPrefetchOnMiss
)

var policyNames = [...]string{
	PolicyNone:           "none",
	PolicyWriteOnMiss:    "write-on-miss",
	PolicyPrefetchAlways: "prefetch-always",
	PolicyPrefetchOnMiss: "prefetch-on-miss",
}

func (p Policy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy converts a policy name back into a Policy.
func ParsePolicy(name string) (Policy, error) {
	for p, n := range policyNames {
		if n == name {
			return Policy(p), nil
		}
	}
	return PolicyNone, fmt.Errorf("unknown policy %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// allocatesOnMiss reports whether a missing access of the given kind installs
// its block.
func (p Policy) allocatesOnMiss(isStore bool) bool {
	return !(p == PolicyWriteOnMiss && isStore)
}

// prefetchesAfter reports whether the next line is installed after an access
// with the given outcome.
func (p Policy) prefetchesAfter(hit bool) bool {
	return p == PolicyPrefetchAlways || (p == PolicyPrefetchOnMiss && !hit)
}
