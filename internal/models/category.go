package models

import (
	"database/sql/driver"
	"fmt"
)

// Category is one of the four certification tiers. The zero value is not a
// valid category.
type Category int

const (
	CategoryI Category = iota + 1
	CategoryII
	CategoryIII
	CategoryIV
)

const (
	PassMarkPercent      = 70
	TrialQuestionCount   = 20
	TrialDurationMinutes = 30
)

var AllCategories = []Category{CategoryI, CategoryII, CategoryIII, CategoryIV}

// CategoryDefaults holds the full-exam parameters of a category.
type CategoryDefaults struct {
	Questions       int `json:"questions"`
	DurationMinutes int `json:"duration_minutes"`
}

func (c Category) String() string {
	switch c {
	case CategoryI:
		return "Category I"
	case CategoryII:
		return "Category II"
	case CategoryIII:
		return "Category III"
	case CategoryIV:
		return "Category IV"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Valid reports whether c is one of the four declared tiers.
func (c Category) Valid() bool {
	_, ok := c.Defaults()
	return ok
}

// Defaults returns the full-exam question count and duration for c.
func (c Category) Defaults() (CategoryDefaults, bool) {
	switch c {
	case CategoryI:
		return CategoryDefaults{Questions: 60, DurationMinutes: 120}, true
	case CategoryII:
		return CategoryDefaults{Questions: 100, DurationMinutes: 180}, true
	case CategoryIII:
		return CategoryDefaults{Questions: 100, DurationMinutes: 240}, true
	case CategoryIV:
		return CategoryDefaults{Questions: 60, DurationMinutes: 300}, true
	}
	return CategoryDefaults{}, false
}

// BankFile is the stable resource name of the category's question bank,
// without extension.
func (c Category) BankFile() string {
	switch c {
	case CategoryI:
		return "cat_i"
	case CategoryII:
		return "cat_ii"
	case CategoryIII:
		return "cat_iii"
	case CategoryIV:
		return "cat_iv"
	}
	return ""
}

func ParseCategory(s string) (Category, error) {
	switch s {
	case "Category I", "I", "cat_i":
		return CategoryI, nil
	case "Category II", "II", "cat_ii":
		return CategoryII, nil
	case "Category III", "III", "cat_iii":
		return CategoryIII, nil
	case "Category IV", "IV", "cat_iv":
		return CategoryIV, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the category by its display name.
func (c Category) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return c.String(), nil
}

func (c *Category) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		return c.UnmarshalText([]byte(v))
	case []byte:
		return c.UnmarshalText(v)
	}
	return fmt.Errorf("cannot scan %T into Category", value)
}

func (Category) GormDataType() string {
	return "string"
}
