package content

import (
	"fmt"
	"strings"
)

// Level is a CEFR proficiency level supported by the curriculum.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
)

// Levels lists every supported level in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2}

// ParseLevel normalizes s (case and surrounding space) and checks that it
// names a supported level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q (want one of A1, A2, B1, B2)", s)
	}
	return l, nil
}

// Valid reports whether l is one of the supported levels.
func (l Level) Valid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2:
		return true
	}
	return false
}

func (l Level) String() string { return string(l) }
