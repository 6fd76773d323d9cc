package prompt

import (
	"encoding/json"
	"fmt"

	"linae/model"
)

// ReplayVersion tags the encoding of replayed agent records.
const ReplayVersion = 1

// Default replay bounds.
const (
	DefaultMaxReplayTurns = 24
	DefaultMaxReplayBytes = 256 << 10
)

// replayRecord is the continuation form of an agent turn. Its field names
// are independent of model.Result.
type replayRecord struct {
	Reflex       string   `json:"reflex"`
	Confidence   float64  `json:"confidence"`
	Alignment    string   `json:"alignment"`
	Witness      string   `json:"witness,omitempty"`
	Resonance    float64  `json:"resonance"`
	Drifting     bool     `json:"drifting"`
	Intervention bool     `json:"intervention"`
	Final        string   `json:"final"`
	Sources      []string `json:"sources,omitempty"`
}

type replayEnvelope struct {
	V      int          `json:"v"`
	Record replayRecord `json:"record"`
}

// EncodeReplay serializes a result as a versioned replay envelope.
func EncodeReplay(res model.Result) (string, error) {
	rec := replayRecord{
		Reflex:       res.ReflexResponse,
		Confidence:   res.ReflexConfidence,
		Alignment:    res.CoreAnalysis,
		Witness:      res.MetaAnalysis,
		Resonance:    res.ResonanceScore,
		Drifting:     res.IsDrifting,
		Intervention: res.Intervention,
		Final:        res.FinalResponse,
	}
	for _, c := range res.GroundingSources {
		rec.Sources = append(rec.Sources, c.URI)
	}
	b, err := json.Marshal(replayEnvelope{V: ReplayVersion, Record: rec})
	if err != nil {
		return "", fmt.Errorf("encode replay record: %w", err)
	}
	return string(b), nil
}

// DecodeReplay reads an envelope produced by EncodeReplay. Citation titles
// are not replayed and come back empty.
func DecodeReplay(s string) (model.Result, error) {
	var env replayEnvelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return model.Result{}, fmt.Errorf("decode replay record: %w", err)
	}
	if env.V != ReplayVersion {
		return model.Result{}, fmt.Errorf("unsupported replay version %d", env.V)
	}
	rec := env.Record
	res := model.Result{
		ReflexResponse:   rec.Reflex,
		ReflexConfidence: rec.Confidence,
		CoreAnalysis:     rec.Alignment,
		MetaAnalysis:     rec.Witness,
		ResonanceScore:   rec.Resonance,
		IsDrifting:       rec.Drifting,
		Intervention:     rec.Intervention,
		FinalResponse:    rec.Final,
	}
	for _, uri := range rec.Sources {
		res.GroundingSources = append(res.GroundingSources, model.Citation{URI: uri})
	}
	return res, nil
}

// ReplayLimits bounds how much history is replayed. Zero fields disable
// that bound.
type ReplayLimits struct {
	MaxTurns int `toml:"max_replay_turns"`
	MaxBytes int `toml:"max_replay_bytes"`
}

// DefaultReplayLimits returns the stock bounds.
func DefaultReplayLimits() ReplayLimits {
	return ReplayLimits{MaxTurns: DefaultMaxReplayTurns, MaxBytes: DefaultMaxReplayBytes}
}

// Trim keeps the newest contents that fit both limits, evicting oldest
// first. Eviction takes whole exchanges: the kept slice never starts on a
// model content. It returns the kept slice and how many contents were
// dropped.
func (l ReplayLimits) Trim(contents []model.Content) ([]model.Content, int) {
	start := 0
	if l.MaxTurns > 0 && len(contents) > l.MaxTurns {
		start = len(contents) - l.MaxTurns
	}
	if l.MaxBytes > 0 {
		total := 0
		for i := len(contents) - 1; i >= start; i-- {
			total += contentSize(contents[i])
			if total > l.MaxBytes {
				start = i + 1
				break
			}
		}
	}
	for start < len(contents) && contents[start].Role != model.ContentUser {
		start++
	}
	return contents[start:], start
}

func contentSize(c model.Content) int {
	n := 0
	for _, p := range c.Parts {
		n += len(p.Text) + len(p.Data)
	}
	return n
}
