// Package lore holds the static texts shown beside the terminal: the
// manifesto, the certificate of origin and the concept dictionary.
package lore

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

//go:embed manifesto.md
var manifesto string

//go:embed certificate.md
var certificate string

//go:embed concepts.yaml
var conceptsYAML []byte

// Manifesto returns the manifesto as markdown.
func Manifesto() string {
	return manifesto
}

// Certificate returns the certificate of origin stamped with at.
func Certificate(at time.Time) string {
	return strings.ReplaceAll(certificate, "{{TIMESTAMP}}", at.UTC().Format(time.RFC3339))
}

// Mapping pairs a philosophical term with its engineering reading.
type Mapping struct {
	Philosophy  string `yaml:"philosophy" json:"philosophy"`
	Tech        string `yaml:"tech" json:"tech"`
	Description string `yaml:"desc" json:"desc"`
}

// Tier is one layer of the operational architecture.
type Tier struct {
	Layer string `yaml:"layer" json:"layer"`
	Map   string `yaml:"map" json:"map"`
	Tech  string `yaml:"tech" json:"tech"`
	Risk  string `yaml:"risk" json:"risk"`
}

// Architecture is the three-tier view of the converter.
type Architecture struct {
	Heading string `yaml:"heading" json:"heading"`
	Summary string `yaml:"summary" json:"summary"`
	Tiers   []Tier `yaml:"tiers" json:"tiers"`
}

// Dictionary is the full concept converter content.
type Dictionary struct {
	Title        string       `yaml:"title" json:"title"`
	Subtitle     string       `yaml:"subtitle" json:"subtitle"`
	Mappings     []Mapping    `yaml:"mappings" json:"mappings"`
	Architecture Architecture `yaml:"architecture" json:"architecture"`
	Feasibility  string       `yaml:"feasibility" json:"feasibility"`
}

var (
	dictOnce sync.Once
	dict     *Dictionary
	dictErr  error
)

// Concepts returns the embedded dictionary. It is parsed once.
func Concepts() (*Dictionary, error) {
	dictOnce.Do(func() {
		dict, dictErr = ParseDictionary(conceptsYAML)
	})
	return dict, dictErr
}

// ParseDictionary decodes a dictionary document and checks it is usable.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse concept dictionary: %w", err)
	}
	if len(d.Mappings) == 0 {
		return nil, fmt.Errorf("concept dictionary has no mappings")
	}
	for i, m := range d.Mappings {
		if m.Philosophy == "" || m.Tech == "" {
			return nil, fmt.Errorf("mapping %d is incomplete", i)
		}
	}
	return &d, nil
}

// mappingSource adapts mappings to fuzzy.Source, matching on both sides.
type mappingSource []Mapping

func (s mappingSource) String(i int) string {
	return s[i].Philosophy + " " + s[i].Tech
}

func (s mappingSource) Len() int {
	return len(s)
}

// Filter returns the mappings matching query, best match first. An empty
// query returns every mapping in dictionary order.
func (d *Dictionary) Filter(query string) []Mapping {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]Mapping(nil), d.Mappings...)
	}

	matches := fuzzy.FindFrom(query, mappingSource(d.Mappings))
	out := make([]Mapping, 0, len(matches))
	for _, m := range matches {
		out = append(out, d.Mappings[m.Index])
	}
	return out
}
