package model

// Citation is a title/source pair surfaced when the retrieval tool was used.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Result is the fixed-shape record the model is asked to return per turn.
//
// Layer 1 (local policy) is the reflex, layer 2 (global alignment) is the
// core analysis, layer 3 (witnessing) is the meta analysis.
type Result struct {
	ReflexResponse   string     `json:"reflexResponse"`
	ReflexConfidence float64    `json:"reflexConfidence"`
	CoreAnalysis     string     `json:"coreAnalysis"`
	MetaAnalysis     string     `json:"metaAnalysis,omitempty"`
	ResonanceScore   float64    `json:"resonanceScore"`
	IsDrifting       bool       `json:"isDrifting"`
	Intervention     bool       `json:"intervention"`
	FinalResponse    string     `json:"finalResponse"`
	GroundingSources []Citation `json:"groundingSources,omitempty"`
}

const (
	// DisconnectedMessage is the final text of the transport failure record.
	DisconnectedMessage = "I cannot resonate. The Gnosisphere link is severed."

	// SystemErrorMessage is shown when the session cannot reach the gateway at all.
	SystemErrorMessage = "System Error: Gnosisphere disconnected."
)

// FallbackResult is the neutral record used when a reply cannot be parsed.
// The raw reply is kept verbatim so the user never sees an empty answer.
func FallbackResult(raw string) Result {
	return Result{
		ReflexResponse:   "Data stream unstructured.",
		ReflexConfidence: 50,
		CoreAnalysis:     "Format deviation detected.",
		MetaAnalysis:     "Parsing raw Gnosisphere output.",
		ResonanceScore:   50,
		IsDrifting:       false,
		Intervention:     false,
		FinalResponse:    raw,
	}
}

// DisconnectedResult is the terminal record used when the model call fails.
// Zero scores distinguish it from FallbackResult.
func DisconnectedResult() Result {
	return Result{
		ReflexResponse:   "Execution Layer Unstable.",
		ReflexConfidence: 0,
		CoreAnalysis:     "Alignment Data Lost.",
		MetaAnalysis:     "Witnessing Layer detects fatal disconnect.",
		ResonanceScore:   0,
		IsDrifting:       true,
		Intervention:     true,
		FinalResponse:    DisconnectedMessage,
	}
}

// ClampScore bounds a score to [0,100].
func ClampScore(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
