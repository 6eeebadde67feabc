package marcrec

import "testing"

func TestControlFieldString(t *testing.T) {
	cf := &ControlField{TagValue: "001", Data: "12345"}
	if got, want := cf.String(), "001 12345"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDataFieldString(t *testing.T) {
	df := &DataField{
		TagValue:   "245",
		Indicator1: '1',
		Indicator2: '0',
		Subfields: []Subfield{
			{Code: 'a', Data: "Summerland /"},
			{Code: 'c', Data: "Michael Chabon."},
		},
	}
	want := "245 10$aSummerland /$cMichael Chabon."
	if got := df.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDataFieldGetSubfield(t *testing.T) {
	df := &DataField{
		TagValue:  "650",
		Subfields: []Subfield{{Code: 'a', Data: "Fiction"}, {Code: 'a', Data: "Baseball"}},
	}
	sf, ok := df.GetSubfield('a')
	if !ok || sf.Data != "Fiction" {
		t.Fatalf("got (%+v, %v), want first 'a' subfield", sf, ok)
	}
	all := df.GetSubfields('a')
	if len(all) != 2 {
		t.Fatalf("got %d subfields, want 2", len(all))
	}
	if _, ok := df.GetSubfield('z'); ok {
		t.Fatal("expected no 'z' subfield")
	}
}

func TestEmptySubfieldIsValid(t *testing.T) {
	sf := Subfield{Code: 'a'}
	if got, want := sf.String(), "$a"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
