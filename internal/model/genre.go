package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Genre is the gender of a user. It is stored and transmitted as a single character code.
type Genre int

const (
	Male Genre = iota + 1
	Female
)

var genreToCode = map[Genre]string{
	Male:   "M",
	Female: "F",
}

var codeToGenre = map[string]Genre{
	"M": Male,
	"F": Female,
}

// ParseGenre converts a single character code into a Genre. Unknown codes are an error.
func ParseGenre(code string) (Genre, error) {
	g, ok := codeToGenre[code]
	if !ok {
		return 0, fmt.Errorf("invalid genre code %q", code)
	}
	return g, nil
}

// Code returns the single character code of the genre, or an empty string if the genre is not
// one of the defined values.
func (g Genre) Code() string {
	return genreToCode[g]
}

func (g Genre) String() string {
	switch g {
	case Male:
		return "Male"
	case Female:
		return "Female"
	}
	return fmt.Sprintf("Genre(%d)", int(g))
}

// Value implements driver.Valuer.
func (g Genre) Value() (driver.Value, error) {
	code, ok := genreToCode[g]
	if !ok {
		return nil, fmt.Errorf("cannot store undefined genre %d", int(g))
	}
	return code, nil
}

// Scan implements sql.Scanner. The MySQL driver delivers CHAR columns as []byte.
func (g *Genre) Scan(src interface{}) error {
	var code string
	switch v := src.(type) {
	case string:
		code = v
	case []byte:
		code = string(v)
	default:
		return fmt.Errorf("cannot scan %T into genre", src)
	}
	parsed, err := ParseGenre(code)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g Genre) MarshalJSON() ([]byte, error) {
	code, ok := genreToCode[g]
	if !ok {
		return nil, fmt.Errorf("cannot encode undefined genre %d", int(g))
	}
	return json.Marshal(code)
}

func (g *Genre) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("genre must be a string: %w", err)
	}
	parsed, err := ParseGenre(code)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
