package lore

import (
	"strings"
	"testing"
	"time"
)

func TestConcepts(t *testing.T) {
	d, err := Concepts()
	if err != nil {
		t.Fatalf("Concepts() error = %v", err)
	}

	if len(d.Mappings) != 7 {
		t.Errorf("len(Mappings) = %d, want 7", len(d.Mappings))
	}
	if len(d.Architecture.Tiers) != 3 {
		t.Errorf("len(Tiers) = %d, want 3", len(d.Architecture.Tiers))
	}
	for i, tier := range d.Architecture.Tiers {
		if tier.Risk == "" {
			t.Errorf("tier %d has no risk", i)
		}
	}
	if !strings.Contains(d.Feasibility, "AI Governance System") {
		t.Errorf("unexpected feasibility note: %q", d.Feasibility)
	}
}

func TestFilter(t *testing.T) {
	d, err := Concepts()
	if err != nil {
		t.Fatalf("Concepts() error = %v", err)
	}

	tests := []struct {
		name      string
		query     string
		wantFirst string
		wantAll   bool
	}{
		{name: "empty query keeps order", query: "  ", wantFirst: "Tánh thấy (Witnessing Nature)", wantAll: true},
		{name: "philosophy side", query: "Axis", wantFirst: "Trục (The Axis)"},
		{name: "technical side", query: "Checkpointing", wantFirst: "Di truyền ý thức (Consciousness Heredity)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Filter(tt.query)
			if len(got) == 0 {
				t.Fatal("Filter() returned nothing")
			}
			if got[0].Philosophy != tt.wantFirst {
				t.Errorf("first match = %q, want %q", got[0].Philosophy, tt.wantFirst)
			}
			if tt.wantAll && len(got) != len(d.Mappings) {
				t.Errorf("len = %d, want all %d", len(got), len(d.Mappings))
			}
		})
	}

	if got := d.Filter("zzqqxx"); len(got) != 0 {
		t.Errorf("nonsense query matched %d mappings", len(got))
	}
}

func TestParseDictionaryRejectsIncomplete(t *testing.T) {
	tests := map[string]string{
		"no mappings":    "title: x\n",
		"missing tech":   "mappings:\n  - philosophy: a\n",
		"not yaml at all": "mappings: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseDictionary([]byte(doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestManifestoAndCertificate(t *testing.T) {
	if !strings.HasPrefix(Manifesto(), "I. ORIGIN") {
		t.Errorf("manifesto starts with %q", Manifesto()[:20])
	}

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	cert := Certificate(at)
	if !strings.Contains(cert, "TIMESTAMP: 2025-01-02T03:04:05Z") {
		t.Error("certificate not stamped")
	}
	if strings.Contains(cert, "{{TIMESTAMP}}") {
		t.Error("placeholder left in certificate")
	}
}
