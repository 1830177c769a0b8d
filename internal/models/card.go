// internal/models/card.go
package models

import (
	"encoding/json"
	"fmt"
)

// Color is the ink color printed on a card.
type Color uint8

const (
	Green Color = iota
	Red
	Blue
)

// Shape is the symbol printed on a card.
type Shape uint8

const (
	Circle Shape = iota
	Square
	Triangle
)

// Shading is the fill style of the symbols on a card.
type Shading uint8

const (
	Solid Shading = iota
	Striped
	Open
)

// Count is how many times the symbol is repeated on a card.
type Count uint8

const (
	One Count = iota
	Two
	Three
)

// NumValues is the size of every attribute domain.
const NumValues = 3

var (
	colorNames   = [NumValues]string{"green", "red", "blue"}
	shapeNames   = [NumValues]string{"circle", "square", "triangle"}
	shadingNames = [NumValues]string{"solid", "striped", "open"}
)

func (c Color) Valid() bool   { return c < NumValues }
func (s Shape) Valid() bool   { return s < NumValues }
func (s Shading) Valid() bool { return s < NumValues }
func (n Count) Valid() bool   { return n < NumValues }

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
	return colorNames[c]
}

func (s Shape) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
	return shapeNames[s]
}

func (s Shading) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Shading(%d)", uint8(s))
	}
	return shadingNames[s]
}

// Int returns the number of symbols the count stands for (1..3).
func (n Count) Int() int {
	return int(n) + 1
}

func (n Count) String() string {
	if !n.Valid() {
		return fmt.Sprintf("Count(%d)", uint8(n))
	}
	return fmt.Sprintf("%d", n.Int())
}

// Card is one of the 81 distinct cards in the game. Cards are plain values:
// two cards are the same card iff all four attributes match.
type Card struct {
	Color   Color
	Shape   Shape
	Shading Shading
	Count   Count
}

// Valid reports whether every attribute holds one of its three values.
func (c Card) Valid() bool {
	return c.Color.Valid() && c.Shape.Valid() && c.Shading.Valid() && c.Count.Valid()
}

func (c Card) String() string {
	return fmt.Sprintf("%s %s %s x%s", c.Color, c.Shading, c.Shape, c.Count)
}

// cardJSON is the wire form handed to the presentation layer.
type cardJSON struct {
	Color   string `json:"color"`
	Shape   string `json:"shape"`
	Shading string `json:"shading"`
	Count   int    `json:"count"`
}

// MarshalJSON encodes the card with human readable attribute names.
func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid card %v", c)
	}
	return json.Marshal(cardJSON{
		Color:   c.Color.String(),
		Shape:   c.Shape.String(),
		Shading: c.Shading.String(),
		Count:   c.Count.Int(),
	})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (c *Card) UnmarshalJSON(data []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Card
	var ok bool
	if out.Color, ok = lookup[Color](colorNames, raw.Color); !ok {
		return fmt.Errorf("unknown color %q", raw.Color)
	}
	if out.Shape, ok = lookup[Shape](shapeNames, raw.Shape); !ok {
		return fmt.Errorf("unknown shape %q", raw.Shape)
	}
	if out.Shading, ok = lookup[Shading](shadingNames, raw.Shading); !ok {
		return fmt.Errorf("unknown shading %q", raw.Shading)
	}
	if raw.Count < 1 || raw.Count > NumValues {
		return fmt.Errorf("count %d out of range", raw.Count)
	}
	out.Count = Count(raw.Count - 1)
	*c = out
	return nil
}

func lookup[T ~uint8](names [NumValues]string, name string) (T, bool) {
	for i, n := range names {
		if n == name {
			return T(i), true
		}
	}
	return 0, false
}
