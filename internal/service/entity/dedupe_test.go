package entity

import (
	"testing"

	"convi-text-pipeline/internal/models"
)

func TestDedupe_CaseInsensitiveText(t *testing.T) {
	in := []models.NamedEntity{
		{Text: "Rahul Menon", Label: "PERSON", StartChar: 0, EndChar: 11},
		{Text: "XYZ Bank", Label: "ORG", StartChar: 20, EndChar: 28},
		{Text: "rahul menon", Label: "PERSON", StartChar: 5, EndChar: 16},
		{Text: "RAHUL MENON", Label: "PERSON", StartChar: 1, EndChar: 12},
	}

	out := Dedupe(in)

	if len(out) != 2 {
		t.Fatalf("expected 2 entities, got %d: %+v", len(out), out)
	}
	if out[0] != in[0] {
		t.Errorf("expected first occurrence to win, got %+v", out[0])
	}
	if out[1].Text != "XYZ Bank" {
		t.Errorf("expected order preserved, got %+v", out[1])
	}
}

func TestDedupe_DifferentLabelsKept(t *testing.T) {
	in := []models.NamedEntity{
		{Text: "Jordan", Label: "PERSON"},
		{Text: "Jordan", Label: "GPE"},
	}

	if out := Dedupe(in); len(out) != 2 {
		t.Errorf("expected 2 entities, got %d", len(out))
	}
}

func TestDedupe_Empty(t *testing.T) {
	out := Dedupe(nil)
	if out == nil {
		t.Error("expected non-nil empty slice")
	}
	if len(out) != 0 {
		t.Errorf("expected 0 entities, got %d", len(out))
	}
}
