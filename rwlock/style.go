package rwlock

import (
	"fmt"
	"strings"
)

// Style is the policy that decides who goes next when both readers and writers
// are waiting for an RWLock.
type Style uint8

const (
	// WriterPreferring serves waiting writers first and blocks new readers
	// while a writer is queued.
	WriterPreferring Style = iota
	// ReaderPreferring admits readers whenever no writer holds the lock.
	ReaderPreferring
	// Fair serves waiters in arrival order.
	Fair
)

// Styles lists every valid Style.
var Styles = []Style{WriterPreferring, ReaderPreferring, Fair}

var styleNames = [...]string{
	WriterPreferring: "writer",
	ReaderPreferring: "reader",
	Fair:             "fair",
}

// Valid reports whether s is one of the defined styles.
func (s Style) Valid() bool {
	return int(s) < len(styleNames)
}

func (s Style) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Style(%d)", uint8(s))
	}
	return styleNames[s]
}

// ParseStyle returns the Style named by s, as printed by Style.String. Matching
// is case-insensitive.
func ParseStyle(s string) (Style, error) {
	for i, name := range styleNames {
		if strings.EqualFold(s, name) {
			return Style(i), nil
		}
	}
	return 0, fmt.Errorf("rwlock: unknown style %q", s)
}
