package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"linae/model"
)

// Transcript is an exported copy of one session. Sessions live in memory
// only; a transcript exists once the user asks for it.
type Transcript struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Provider   string               `json:"provider"`
	Model      string               `json:"model"`
	ExportedAt time.Time            `json:"exported_at"`
	Resonance  float64              `json:"resonance"`
	Turns      []model.Turn         `json:"turns"`
	Metrics    []model.MetricSample `json:"metrics"`
}

// NewTranscript snapshots a session's turns and chart. The name comes from
// the first user turn.
func NewTranscript(provider, modelName string, turns []model.Turn, metrics []model.MetricSample, resonance float64) *Transcript {
	first := ""
	for _, t := range turns {
		if t.Role == model.RoleUser {
			first = t.Content
			break
		}
	}

	return &Transcript{
		ID:         uuid.New().String(),
		Name:       GenerateTranscriptName(first),
		Provider:   provider,
		Model:      modelName,
		ExportedAt: time.Now(),
		Resonance:  resonance,
		Turns:      turns,
		Metrics:    metrics,
	}
}

// SanitizeFilename converts a transcript name to a safe filename.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
	)
	safe := strings.ToLower(replacer.Replace(name))

	for strings.Contains(safe, "--") {
		safe = strings.ReplaceAll(safe, "--", "-")
	}
	safe = strings.Trim(safe, "-.")

	if len(safe) > 50 {
		safe = strings.TrimRight(safe[:50], "-")
	}
	if safe == "" {
		safe = "transcript"
	}
	return safe
}

// GenerateExportPath returns exportDir/linae-transcript-<name>-<timestamp>.json.
func GenerateExportPath(exportDir, name string) string {
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("linae-transcript-%s-%s.json", SanitizeFilename(name), timestamp)
	return filepath.Join(exportDir, filename)
}

// ExportToJSON writes the transcript as indented JSON.
func ExportToJSON(t *Transcript, exportPath string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// 0600: transcripts carry prompts and attachments.
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// LoadTranscript reads a transcript written by ExportToJSON.
func LoadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return &t, nil
}

// GenerateTranscriptName derives a short name from the first user message.
func GenerateTranscriptName(firstMessage string) string {
	name := strings.Join(strings.Fields(firstMessage), " ")
	if name == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	if r := []rune(name); len(r) > 30 {
		name = strings.TrimSpace(string(r[:30])) + "..."
	}
	return name
}
