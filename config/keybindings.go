package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeyBindingsConfig is <data>/keybindings.toml: two modifiers plus
// optional per-action overrides.
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"`
}

type ModifierConfig struct {
	Primary   string `toml:"primary"`
	Secondary string `toml:"secondary"`
}

const (
	modPrimary   = "primary"
	modSecondary = "secondary"
	modNone      = "none"
)

type binding struct {
	modifier string
	key      string
}

// actionBindings holds the default binding of every action.
var actionBindings = map[string]binding{
	"help":  {modPrimary, "h"},
	"quit":  {modPrimary, "q"},
	"about": {modSecondary, "a"},

	"view_terminal":    {modPrimary, "1"},
	"view_converter":   {modPrimary, "2"},
	"view_manifesto":   {modPrimary, "3"},
	"view_certificate": {modPrimary, "4"},

	"attach_file":      {modPrimary, "o"},
	"clear_attachment": {modPrimary, "x"},
	"copy_last_reply":  {modPrimary, "y"},
	"export":           {modPrimary, "e"},
	"search_turns":     {modPrimary, "f"},
	"ping_provider":    {modPrimary, "p"},
	"clear_input":      {modPrimary, "u"},

	"scroll_down":      {modPrimary, "j"},
	"scroll_up":        {modPrimary, "k"},
	"half_page_down":   {modSecondary, "j"},
	"half_page_up":     {modSecondary, "k"},
	"scroll_to_top":    {modPrimary, "g"},
	"scroll_to_bottom": {modSecondary, "g"},

	"converter_mode": {modNone, "tab"},
	"list_down":      {modNone, "down"},
	"list_up":        {modNone, "up"},
}

// DefaultKeybindings returns alt / alt+shift with no overrides.
func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{Primary: "alt", Secondary: "alt+shift"},
	}
}

// LoadKeybindings reads <dataDir>/keybindings.toml, writing the template on
// first run.
func LoadKeybindings(dataDir string) (*KeyBindingsConfig, error) {
	cfg := DefaultKeybindings()
	path := filepath.Join(dataDir, "keybindings.toml")

	if !FileExists(path) {
		if err := CreateDefaultKeybindings(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create keybindings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse keybindings: %w", err)
	}
	if ok, msg := cfg.Validate(); !ok {
		return nil, fmt.Errorf("invalid keybindings: %s", msg)
	}
	return cfg, nil
}

func CreateDefaultKeybindings(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dataDir, "keybindings.toml")
	if FileExists(path) {
		return nil
	}
	if err := os.WriteFile(path, []byte(GenerateKeybindingsTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write keybindings: %w", err)
	}
	return nil
}

func GenerateKeybindingsTemplate() string {
	return `# Linae Keybindings
# Location: <data_directory>/keybindings.toml

[modifiers]
primary = "alt"          # alt, ctrl, meta or super
secondary = "alt+shift"

# tmux users may prefer:
#   primary = "ctrl"
#   secondary = "ctrl+shift"

[actions]
# Override single actions, e.g.
#   export = "ctrl+e"
#   attach_file = "ctrl+o"
#
# Actions: help quit about view_terminal view_converter view_manifesto
# view_certificate attach_file clear_attachment copy_last_reply export
# search_turns ping_provider clear_input scroll_down scroll_up half_page_down
# half_page_up scroll_to_top scroll_to_bottom converter_mode
`
}

func (kb *KeyBindingsConfig) Primary() string {
	if kb.Modifiers.Primary == "" {
		return "alt"
	}
	return kb.Modifiers.Primary
}

func (kb *KeyBindingsConfig) Secondary() string {
	if kb.Modifiers.Secondary == "" {
		return "alt+shift"
	}
	return kb.Modifiers.Secondary
}

// withModifier joins mod and key the way bubbletea reports the press. A
// shifted letter arrives as its upper case form ("alt+J", not
// "alt+shift+j").
func withModifier(mod, key string) string {
	if len(key) == 1 && key[0] >= 'a' && key[0] <= 'z' {
		var rest []string
		shifted := false
		for _, part := range strings.Split(mod, "+") {
			if strings.EqualFold(part, "shift") {
				shifted = true
				continue
			}
			rest = append(rest, part)
		}
		if shifted {
			key = strings.ToUpper(key)
			if len(rest) == 0 {
				return key
			}
			return strings.Join(rest, "+") + "+" + key
		}
	}
	return mod + "+" + key
}

// GetActionKey returns the key string of action: the user override if any,
// else the default binding. Unknown actions return "".
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if override := kb.Actions[action]; override != "" {
		return override
	}

	b, ok := actionBindings[action]
	if !ok {
		return ""
	}
	switch b.modifier {
	case modPrimary:
		return withModifier(kb.Primary(), b.key)
	case modSecondary:
		return withModifier(kb.Secondary(), b.key)
	default:
		return b.key
	}
}

// DisplayActionKey formats an action's key for help text: "alt+J" becomes
// "Alt+Shift+J".
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	key := kb.GetActionKey(action)
	if key == "" {
		return ""
	}

	parts := strings.Split(key, "+")
	hasShift := false
	for _, p := range parts {
		if strings.EqualFold(p, "shift") {
			hasShift = true
		}
	}

	out := make([]string, 0, len(parts)+1)
	for i, part := range parts {
		if part == "" {
			continue
		}
		if len(part) == 1 && part[0] >= 'A' && part[0] <= 'Z' && !hasShift && i > 0 {
			out = append(out, "Shift")
		}
		out = append(out, strings.ToUpper(part[:1])+part[1:])
	}
	return strings.Join(out, "+")
}

// Validate reports whether the modifiers are usable, with a warning for
// ones likely to clash with the terminal.
func (kb *KeyBindingsConfig) Validate() (bool, string) {
	primary, secondary := kb.Primary(), kb.Secondary()

	if primary == "shift" || secondary == "shift" {
		return false, "shift alone conflicts with typing"
	}
	if strings.Contains(primary, "ctrl") || strings.Contains(secondary, "ctrl") {
		return true, "ctrl may conflict with terminal shortcuts (ctrl+c, ctrl+z, ctrl+d)"
	}
	return true, ""
}
