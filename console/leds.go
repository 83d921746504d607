package console

// Pattern identifies one of the LED effects the external generator can play.
type Pattern int

const (
	PatternNone Pattern = iota
	Pattern1            // all LEDs on
	Pattern2            // different frequency blinking
	Pattern3            // same frequency blinking
)

func (p Pattern) String() string {
	switch p {
	case PatternNone:
		return "none"
	case Pattern1:
		return "pattern1"
	case Pattern2:
		return "pattern2"
	case Pattern3:
		return "pattern3"
	}
	return "unknown"
}

// PatternSink is the LED-effects collaborator. SetPattern is fire-and-forget:
// it is assumed synchronous and non-failing, and PatternNone clears all
// patterns.
type PatternSink interface {
	SetPattern(p Pattern)
}
