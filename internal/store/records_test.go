package store

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"eventcal/internal/model"
)

func TestAppendLeavesInputUntouched(t *testing.T) {
	in := Seed()
	out := Append(in, model.Event{ID: "new", EventName: "Webinar"})

	if len(in) != 8 {
		t.Errorf("input length changed: %d", len(in))
	}
	if len(out) != 9 || out[8].EventName != "Webinar" {
		t.Errorf("append result wrong: len=%d last=%+v", len(out), out[len(out)-1])
	}
}

func TestUpdateAtReplacesAllFieldsAndKeepsID(t *testing.T) {
	in := Seed()
	f := model.Fields{Date: "2026-02-01", EventName: "Renamed", Completed: true}

	out, err := UpdateAt(in, 2, f)
	if err != nil {
		t.Fatalf("UpdateAt: %v", err)
	}
	if out[2].ID != in[2].ID {
		t.Errorf("id changed: %s -> %s", in[2].ID, out[2].ID)
	}
	if out[2].Fields() != f {
		t.Errorf("fields mismatch: expected %+v, got %+v", f, out[2].Fields())
	}
	if in[2].EventName != "System Saturdays" {
		t.Error("UpdateAt modified its input")
	}
}

func TestDeleteAtAfterUpdateAtShiftsIndices(t *testing.T) {
	in := Seed()
	for i := range in {
		updated, err := UpdateAt(in, i, model.Fields{EventName: "Updated"})
		if err != nil {
			t.Fatalf("UpdateAt(%d): %v", i, err)
		}
		out, err := DeleteAt(updated, i)
		if err != nil {
			t.Fatalf("DeleteAt(%d): %v", i, err)
		}
		if len(out) != len(in)-1 {
			t.Fatalf("length mismatch: expected %d, got %d", len(in)-1, len(out))
		}
		for _, ev := range out {
			if ev.EventName == "Updated" {
				t.Errorf("updated record at %d survived deletion", i)
			}
		}
		for j := i; j < len(out); j++ {
			if out[j].ID != in[j+1].ID {
				t.Errorf("index %d should hold former index %d", j, j+1)
			}
		}
	}
}

func TestPositionalOpsOutOfRange(t *testing.T) {
	in := Seed()
	before := model.Clone(in)

	for _, idx := range []int{-1, len(in), len(in) + 5} {
		_, err := DeleteAt(in, idx)
		var rangeErr *IndexOutOfRangeError
		if !errors.As(err, &rangeErr) {
			t.Errorf("DeleteAt(%d): expected IndexOutOfRangeError, got %v", idx, err)
		} else if rangeErr.Index != idx || rangeErr.Len != len(in) {
			t.Errorf("DeleteAt(%d): wrong error detail %+v", idx, rangeErr)
		}

		_, err = UpdateAt(in, idx, model.Fields{})
		if !errors.As(err, &rangeErr) {
			t.Errorf("UpdateAt(%d): expected IndexOutOfRangeError, got %v", idx, err)
		}
	}

	if !reflect.DeepEqual(in, before) {
		t.Error("failed positional operations modified the collection")
	}
}

func TestIndexOf(t *testing.T) {
	in := Seed()
	if got := IndexOf(in, in[5].ID); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := IndexOf(in, "missing"); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
	if got := IndexOf(in, ""); got != -1 {
		t.Errorf("empty id should not match, got %d", got)
	}
}

func TestAssignIDsFillsBlanksAndDuplicates(t *testing.T) {
	in := []model.Event{{ID: "a"}, {ID: ""}, {ID: "a"}}
	if !assignIDs(in) {
		t.Fatal("expected a change")
	}
	if in[0].ID != "a" {
		t.Error("first occurrence of an id must be kept")
	}
	if in[1].ID == "" || in[2].ID == "a" || in[1].ID == in[2].ID {
		t.Errorf("ids not made unique: %+v", in)
	}
	if assignIDs(in) {
		t.Error("second pass should change nothing")
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	a, b := Seed(), Seed()
	if len(a) != 8 {
		t.Fatalf("expected 8 seed records, got %d", len(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("seed differs between calls")
	}
	for _, ev := range a {
		if ev.Completed {
			t.Errorf("seed record %q should start pending", ev.EventName)
		}
	}
}

func TestDecodeRejectsNonArrays(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"whitespace":    "  \n",
		"null":          "null",
		"object":        `{"Date":"2026-01-01"}`,
		"number items":  `[1,2]`,
		"null item":     `[null]`,
		"bad json":      `[{"Date":`,
		"string items":  `["a"]`,
		"nested arrays": `[[]]`,
	}
	for name, body := range cases {
		_, err := Decode("events.json", []byte(body))
		var malformed *MalformedStoreError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: expected MalformedStoreError, got %v", name, err)
		}
	}
}

func TestDecodeAcceptsEmptyArrayAndPartialRecords(t *testing.T) {
	events, err := Decode("events.json", []byte("[]"))
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty collection, got %v, %v", events, err)
	}

	events, err = Decode("events.json", []byte(`[{"Event Name":"Promptology Tip","Extra":1}]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if events[0].EventName != "Promptology Tip" || events[0].Completed {
		t.Errorf("unexpected record %+v", events[0])
	}
}

func TestEncodeNilIsEmptyArray(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("expected [] got %q", data)
	}
}

func TestEncodeWritesAmpersandVerbatim(t *testing.T) {
	data, err := Encode([]model.Event{{EventName: "Real Estate & AI", FocusNotes: "<b>bold</b>"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, want := range []string{`"Event Name": "Real Estate & AI"`, `"Focus / Notes": "<b>bold</b>"`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("missing %s in %s", want, data)
		}
	}
}

func TestDecodeCoercesFieldTypes(t *testing.T) {
	data := []byte(`[
  {"Date": "2026-01-01", "Start Time": 900, "Event Name": null, "Completed": "TRUE"},
  {"Date": "2026-01-02", "Platform": true, "Completed": 0},
  {"Date": "2026-01-03", "Completed": 1, "Extra": {"nested": []}},
  {"Date": "2026-01-04", "Completed": "no"}
]`)
	events, err := Decode("events.json", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if events[0].StartTime != "900" || events[0].EventName != "" || !events[0].Completed {
		t.Errorf("unexpected first record %+v", events[0])
	}
	if events[1].Platform != "true" || events[1].Completed {
		t.Errorf("unexpected second record %+v", events[1])
	}
	if !events[2].Completed || events[3].Completed {
		t.Errorf("unexpected Completed coercion: %v %v", events[2].Completed, events[3].Completed)
	}
}
