package marcrec

import (
	"regexp"
	"testing"
)

func sampleRecord() *Record {
	r := NewRecord(Leader{Length: 100, BaseAddress: 60})
	r.AddField(&ControlField{TagValue: "001", Data: "12345"})
	r.AddField(&ControlField{TagValue: "005", Data: "20260101"})
	r.AddField(&DataField{
		TagValue: "245", Indicator1: '1', Indicator2: '0',
		Subfields: []Subfield{{Code: 'a', Data: "Summerland /"}, {Code: 'c', Data: "Michael Chabon."}},
	})
	r.AddField(&DataField{
		TagValue: "650", Indicator1: ' ', Indicator2: '0',
		Subfields: []Subfield{{Code: 'a', Data: "Baseball."}},
	})
	return r
}

func TestControlNumber(t *testing.T) {
	r := sampleRecord()
	if got := r.ControlNumber(); got != "12345" {
		t.Fatalf("got %q, want %q", got, "12345")
	}
}

func TestControlNumberAbsent(t *testing.T) {
	r := NewRecord(Leader{})
	if got := r.ControlNumber(); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func TestFieldAndFields(t *testing.T) {
	r := sampleRecord()
	if f := r.Field("245"); f == nil || f.Tag() != "245" {
		t.Fatalf("got %v, want the 245 field", f)
	}
	if f := r.Field("999"); f != nil {
		t.Fatalf("got %v, want nil for an absent tag", f)
	}
	if fs := r.Fields("005"); len(fs) != 1 {
		t.Fatalf("got %d fields, want 1", len(fs))
	}
}

func TestFieldsByTags(t *testing.T) {
	r := sampleRecord()
	fs := r.FieldsByTags("650", "001")
	if len(fs) != 2 {
		t.Fatalf("got %d fields, want 2", len(fs))
	}
	// Directory order is preserved, not the order tags were requested in.
	if fs[0].Tag() != "001" || fs[1].Tag() != "650" {
		t.Fatalf("got tags %q, %q, want directory order 001 then 650", fs[0].Tag(), fs[1].Tag())
	}
}

func TestAddFieldReplacesExistingControlNumber(t *testing.T) {
	r := sampleRecord()
	r.AddField(&ControlField{TagValue: "001", Data: "99999"})
	if got := r.ControlNumber(); got != "99999" {
		t.Fatalf("got %q, want %q after re-adding 001", got, "99999")
	}
	if n := len(r.Fields("001")); n != 1 {
		t.Fatalf("got %d fields tagged 001, want 1", n)
	}
	if r.AllFields()[0].Tag() != "001" {
		t.Fatalf("got first field tag %q, want 001 at position 0", r.AllFields()[0].Tag())
	}
}

func TestRemoveFieldNoopWhenAbsent(t *testing.T) {
	r := sampleRecord()
	if ok := r.RemoveField("999"); ok {
		t.Fatal("expected RemoveField to report false for an absent tag")
	}
}

func TestAllFieldsOrder(t *testing.T) {
	r := sampleRecord()
	all := r.AllFields()
	want := []string{"001", "005", "245", "650"}
	if len(all) != len(want) {
		t.Fatalf("got %d fields, want %d", len(all), len(want))
	}
	for i, tag := range want {
		if all[i].Tag() != tag {
			t.Fatalf("field %d: got tag %q, want %q", i, all[i].Tag(), tag)
		}
	}
}

func TestFind(t *testing.T) {
	r := sampleRecord()
	matches := r.Find(regexp.MustCompile(`Chabon`))
	if len(matches) != 1 || matches[0].Tag() != "245" {
		t.Fatalf("got %v, want only the 245 field", matches)
	}
}

func TestFindInField(t *testing.T) {
	r := sampleRecord()
	matches := r.FindInField("650", regexp.MustCompile(`Baseball`))
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches := r.FindInField("245", regexp.MustCompile(`Baseball`)); len(matches) != 0 {
		t.Fatalf("got %d matches, want 0 for a restricted tag scan", len(matches))
	}
}

func TestStringDump(t *testing.T) {
	r := NewRecord(Leader{Length: 0})
	r.AddField(&ControlField{TagValue: "001", Data: "1"})
	got := r.String()
	want := "LEADER " + r.Leader.String() + "\n001 1\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCombineKeepsFirstControlNumber(t *testing.T) {
	a := NewRecord(Leader{})
	a.AddField(&ControlField{TagValue: "001", Data: "100"})
	a.AddField(&DataField{TagValue: "245", Subfields: []Subfield{{Code: 'a', Data: "A"}}})

	b := NewRecord(Leader{})
	b.AddField(&ControlField{TagValue: "001", Data: "200"})
	b.AddField(&DataField{TagValue: "880", Subfields: []Subfield{{Code: '6', Data: "245-01"}}})

	merged := a.Combine(b)
	if got := merged.ControlNumber(); got != "100" {
		t.Fatalf("got control number %q, want %q", got, "100")
	}
	if fs := merged.FieldsByTags("245", "880"); len(fs) != 2 {
		t.Fatalf("got %d merged fields, want 2", len(fs))
	}
}
