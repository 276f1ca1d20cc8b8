package models

import "testing"

func TestQueryRequest_Validate(t *testing.T) {
	q := &QueryRequest{Text: "how do chains work", TopK: 3}
	if err := q.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
}

func TestQueryRequest_ValidateDefaultsTopK(t *testing.T) {
	q := &QueryRequest{Text: "validators"}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.TopK != 5 {
		t.Errorf("TopK default: got %d, want 5", q.TopK)
	}
}

func TestQueryRequest_ValidateRejects(t *testing.T) {
	cases := []QueryRequest{
		{Text: "", TopK: 3},
		{Text: "ok", TopK: -1},
	}
	for i, q := range cases {
		if err := q.Validate(); err == nil {
			t.Errorf("case %d: expected error, got nil", i)
		}
	}
}
