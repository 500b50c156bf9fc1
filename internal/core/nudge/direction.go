package nudge

import (
	"fmt"
	"strings"
)

// Direction is one of the eight compass buttons of the nudge panel.
type Direction uint8

const (
	DirectionInvalid Direction = iota
	Up
	Down
	Left
	Right
	UpLeft
	UpRight
	DownLeft
	DownRight
)

var directionNames = [...]string{
	DirectionInvalid: "invalid",
	Up:               "up",
	Down:             "down",
	Left:             "left",
	Right:            "right",
	UpLeft:           "up-left",
	UpRight:          "up-right",
	DownLeft:         "down-left",
	DownRight:        "down-right",
}

// Unit pixel steps. Diagonals move a full step on both axes.
var directionSteps = [...][2]float64{
	Up:        {0, 1},
	Down:      {0, -1},
	Left:      {-1, 0},
	Right:     {1, 0},
	UpLeft:    {-1, 1},
	UpRight:   {1, 1},
	DownLeft:  {-1, -1},
	DownRight: {1, -1},
}

var directionAliases = map[string]Direction{
	"up": Up, "u": Up, "n": Up, "north": Up,
	"down": Down, "d": Down, "s": Down, "south": Down,
	"left": Left, "l": Left, "w": Left, "west": Left,
	"right": Right, "r": Right, "e": Right, "east": Right,
	"upleft": UpLeft, "leftup": UpLeft, "nw": UpLeft, "northwest": UpLeft,
	"upright": UpRight, "rightup": UpRight, "ne": UpRight, "northeast": UpRight,
	"downleft": DownLeft, "leftdown": DownLeft, "sw": DownLeft, "southwest": DownLeft,
	"downright": DownRight, "rightdown": DownRight, "se": DownRight, "southeast": DownRight,
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Valid reports whether d is one of the eight compass directions.
func (d Direction) Valid() bool {
	return d >= Up && d <= DownRight
}

// Step returns the unit pixel offset of d. Screen Y grows upward.
func (d Direction) Step() (dx, dy float64) {
	if !d.Valid() {
		return 0, 0
	}
	s := directionSteps[d]
	return s[0], s[1]
}

// ParseDirection accepts names like "up", "down-left", "DownLeft", "sw".
func ParseDirection(s string) (Direction, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if d, ok := directionAliases[key]; ok {
		return d, nil
	}
	return DirectionInvalid, fmt.Errorf("%w: unknown direction %q", ErrInvalidRequest, s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, d)
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
