package marcrec

import (
	"fmt"
	"regexp"
)

// Field is the capability set shared by ControlField and DataField,
// replacing the teacher-source's VariableField inheritance hierarchy
// (spec.md §9 DESIGN NOTES) with a small closed interface over a tagged
// variant.
type Field interface {
	// Tag returns the field's 3-character tag.
	Tag() string
	// Matches reports whether the field's String() form matches pattern.
	Matches(pattern *regexp.Regexp) bool
	// String renders the field in its canonical dump form (spec.md §4.5).
	String() string

	isField() // unexported: closes the interface to this package's two kinds
}

// ControlField is a control field (tag "001"-"009"): a tag plus raw data,
// with no indicators and no subfields.
type ControlField struct {
	TagValue string
	Data     string
}

func (c *ControlField) Tag() string { return c.TagValue }

func (c *ControlField) Matches(pattern *regexp.Regexp) bool {
	return pattern.MatchString(c.String())
}

func (c *ControlField) String() string {
	return fmt.Sprintf("%s %s", c.TagValue, c.Data)
}

func (c *ControlField) isField() {}

// Subfield is one subfield-delimiter-prefixed unit within a DataField: a
// single-byte code and its data. An empty subfield (code only, no data)
// is valid (spec.md §4.4 step 5).
type Subfield struct {
	Code byte
	Data string
}

// String renders the subfield as "$c" followed by its data — a literal
// '$' followed by the subfield code, per spec.md §4.5.
func (s Subfield) String() string {
	return fmt.Sprintf("$%c%s", s.Code, s.Data)
}

// DataField is a data field (tag "010"-"999"): a tag, two indicator
// bytes, and one or more subfields.
type DataField struct {
	TagValue   string
	Indicator1 byte
	Indicator2 byte
	Subfields  []Subfield
}

func (d *DataField) Tag() string { return d.TagValue }

func (d *DataField) Matches(pattern *regexp.Regexp) bool {
	return pattern.MatchString(d.String())
}

// String renders the field as "TAG IJ$cDATA$cDATA...", per spec.md §4.5.
func (d *DataField) String() string {
	s := fmt.Sprintf("%s %c%c", d.TagValue, d.Indicator1, d.Indicator2)
	for _, sf := range d.Subfields {
		s += sf.String()
	}
	return s
}

func (d *DataField) isField() {}

// GetSubfield returns the first subfield with the given code, or
// (Subfield{}, false) if none matches.
func (d *DataField) GetSubfield(code byte) (Subfield, bool) {
	for _, sf := range d.Subfields {
		if sf.Code == code {
			return sf, true
		}
	}
	return Subfield{}, false
}

// GetSubfields returns every subfield with the given code, in field
// order.
func (d *DataField) GetSubfields(code byte) []Subfield {
	var out []Subfield
	for _, sf := range d.Subfields {
		if sf.Code == code {
			out = append(out, sf)
		}
	}
	return out
}

var _ Field = (*ControlField)(nil)
var _ Field = (*DataField)(nil)
