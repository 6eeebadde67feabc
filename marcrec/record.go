package marcrec

import (
	"regexp"
	"strings"

	"github.com/go-marc/marc21/wire"
)

// Record is a fully decoded bibliographic record: a Leader plus its
// ordered list of fields. Lookup by tag is linear, mirroring
// workbook.Workbook's plain-slice-scan lookups rather than building an
// index eagerly — records carry at most a few dozen fields, so a map
// would cost more to build than it saves.
type Record struct {
	Leader Leader
	fields []Field
}

// NewRecord returns an empty Record with the given Leader.
func NewRecord(ld Leader) *Record {
	return &Record{Leader: ld}
}

// AddField appends f to the record's field list, preserving directory
// order. Per spec.md §4.5, a "001" field is special: it replaces any
// existing "001" control field and is placed at position 0, so a
// Record never carries more than one control number.
func (r *Record) AddField(f Field) {
	if f.Tag() == wire.ControlNumberTag {
		r.RemoveField(wire.ControlNumberTag)
		r.fields = append([]Field{f}, r.fields...)
		return
	}
	r.fields = append(r.fields, f)
}

// RemoveField removes the first field with the given tag, reporting
// whether one was found.
func (r *Record) RemoveField(tag string) bool {
	for i, f := range r.fields {
		if f.Tag() == tag {
			r.fields = append(r.fields[:i], r.fields[i+1:]...)
			return true
		}
	}
	return false
}

// AllFields returns every field on the record, in directory order. The
// returned slice is the record's own backing slice; callers must not
// mutate it.
func (r *Record) AllFields() []Field {
	return r.fields
}

// Field returns the first field with the given tag, or nil if none
// exists.
func (r *Record) Field(tag string) Field {
	for _, f := range r.fields {
		if f.Tag() == tag {
			return f
		}
	}
	return nil
}

// Fields returns every field with the given tag, in directory order.
func (r *Record) Fields(tag string) []Field {
	var out []Field
	for _, f := range r.fields {
		if f.Tag() == tag {
			out = append(out, f)
		}
	}
	return out
}

// FieldsByTags returns every field whose tag is one of tags, in
// directory order (not grouped by tag).
func (r *Record) FieldsByTags(tags ...string) []Field {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	var out []Field
	for _, f := range r.fields {
		if want[f.Tag()] {
			out = append(out, f)
		}
	}
	return out
}

// ControlNumber returns the record's 001 control field's data, or "" if
// the record has no 001 field.
func (r *Record) ControlNumber() string {
	f := r.Field(wire.ControlNumberTag)
	cf, ok := f.(*ControlField)
	if !ok {
		return ""
	}
	return cf.Data
}

// Find returns every field whose String() form matches pattern.
func (r *Record) Find(pattern *regexp.Regexp) []Field {
	var out []Field
	for _, f := range r.fields {
		if f.Matches(pattern) {
			out = append(out, f)
		}
	}
	return out
}

// FindInField returns every field with the given tag whose String()
// form matches pattern.
func (r *Record) FindInField(tag string, pattern *regexp.Regexp) []Field {
	var out []Field
	for _, f := range r.fields {
		if f.Tag() == tag && f.Matches(pattern) {
			out = append(out, f)
		}
	}
	return out
}

// String renders the record as its Leader line followed by one line per
// field, matching the field dump form of spec.md §4.5.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString("LEADER ")
	b.WriteString(r.Leader.String())
	b.WriteByte('\n')
	for _, f := range r.fields {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Combine merges other into a new Record holding r's 001-tagged field
// (if any) plus the union of both records' non-001 fields, r's first
// then other's, per spec.md §4.7's combine-partials invariant: the
// result keeps at most one control number, preferring r's, and has none
// when neither record has a 001 field.
func (r *Record) Combine(other *Record) *Record {
	ld := r.Leader
	merged := NewRecord(ld)

	if cn := r.Field(wire.ControlNumberTag); cn != nil {
		merged.AddField(cn)
	} else if cn := other.Field(wire.ControlNumberTag); cn != nil {
		merged.AddField(cn)
	}

	for _, f := range r.fields {
		if f.Tag() == wire.ControlNumberTag {
			continue
		}
		merged.AddField(f)
	}
	for _, f := range other.fields {
		if f.Tag() == wire.ControlNumberTag {
			continue
		}
		merged.AddField(f)
	}
	return merged
}
