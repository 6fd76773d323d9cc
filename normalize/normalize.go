// Package normalize turns the model's free-form reply into a model.Result.
//
// The model is asked for a bare JSON object but sometimes wraps it in code
// fences or surrounds it with prose. Normalize never fails: anything it
// cannot read degrades to model.FallbackResult carrying the raw text.
package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"linae/model"
)

const fence = "```"

// wireResult mirrors the reply schema. Pointers distinguish a missing key
// from a zero value.
type wireResult struct {
	ReflexResponse   *string  `json:"reflexResponse"`
	ReflexConfidence *float64 `json:"reflexConfidence"`
	CoreAnalysis     *string  `json:"coreAnalysis"`
	MetaAnalysis     *string  `json:"metaAnalysis"`
	ResonanceScore   *float64 `json:"resonanceScore"`
	IsDrifting       *bool    `json:"isDrifting"`
	Intervention     *bool    `json:"intervention"`
	FinalResponse    *string  `json:"finalResponse"`
}

// conforms reports whether every required key is present. metaAnalysis and
// isDrifting are optional because older replies omit them.
func (w wireResult) conforms() bool {
	return w.ReflexResponse != nil &&
		w.ReflexConfidence != nil &&
		w.CoreAnalysis != nil &&
		w.ResonanceScore != nil &&
		w.Intervention != nil &&
		w.FinalResponse != nil
}

func (w wireResult) result() model.Result {
	res := model.Result{
		ReflexResponse:   *w.ReflexResponse,
		ReflexConfidence: model.ClampScore(*w.ReflexConfidence),
		CoreAnalysis:     *w.CoreAnalysis,
		ResonanceScore:   model.ClampScore(*w.ResonanceScore),
		Intervention:     *w.Intervention,
		FinalResponse:    *w.FinalResponse,
	}
	if w.MetaAnalysis != nil {
		res.MetaAnalysis = *w.MetaAnalysis
	}
	if w.IsDrifting != nil {
		res.IsDrifting = *w.IsDrifting
	}
	return res
}

// Normalize parses raw into a Result and attaches citations unconditionally.
// Unlike a strict whole-text parse, a conforming object embedded in prose
// ("Sure! {...}") is accepted rather than degraded to the fallback.
// Blank replies never reach here: the provider gateway maps them to
// model.DisconnectedResult.
func Normalize(raw string, citations []model.Citation) model.Result {
	res, ok := Parse(raw)
	if !ok {
		res = model.FallbackResult(raw)
	}
	if len(citations) > 0 {
		res.GroundingSources = append([]model.Citation(nil), citations...)
	}
	return res
}

// Parse attempts to read raw as the reply schema. It first strips code
// fences and decodes the whole text; failing that it accepts the first
// embedded JSON object that carries the schema keys.
func Parse(raw string) (model.Result, bool) {
	cleaned := StripFences(raw)
	if res, ok := decode(cleaned); ok {
		return res, true
	}
	for _, candidate := range embeddedObjects(cleaned) {
		if res, ok := decode(candidate); ok {
			return res, true
		}
	}
	return model.Result{}, false
}

// StripFences removes a leading ``` marker line (with optional language tag)
// and a trailing ``` marker.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			tag := strings.TrimSpace(s[:nl])
			if isLanguageTag(tag) {
				s = s[nl+1:]
			}
		} else {
			s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

func isLanguageTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}

func decode(text string) (model.Result, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return model.Result{}, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	var w wireResult
	if err := dec.Decode(&w); err != nil {
		return model.Result{}, false
	}
	// Trailing garbage after the object means the text is not one record.
	if dec.More() {
		return model.Result{}, false
	}
	if !w.conforms() {
		return model.Result{}, false
	}
	return w.result(), true
}

// embeddedObjects returns every balanced {...} span at top level, honoring
// JSON string quoting.
func embeddedObjects(s string) []string {
	var (
		out      []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		}
	}
	return out
}
