package config

import (
	"time"

	"linae/prompt"
	"linae/sequencer"
)

const (
	DefaultProvider       = "gemini"
	DefaultModel          = "gemini-2.5-flash"
	DefaultRequestTimeout = 60 * time.Second
	DefaultServerAddr     = "127.0.0.1:8787"
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/linae",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Gateway: GatewayConfig{
			Provider:        DefaultProvider,
			Model:           DefaultModel,
			Temperature:     prompt.Temperature,
			RequestTimeout:  DefaultRequestTimeout,
			EnableRetrieval: true,
		},
		History: prompt.DefaultReplayLimits(),
		Pacing:  sequencer.DefaultPacing(),
		Server:  ServerConfig{Addr: DefaultServerAddr},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Linae System Configuration
# Location: ~/.config/linae/settings.toml
# This file uses TOML format: https://toml.io

# Directory where config.toml, exports and the optional archive live
data_directory = "~/.local/share/linae"
`
}

func GenerateUserConfigTemplate() string {
	return `# Linae User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io
#
# API keys are never stored here. Set GEMINI_API_KEY (or LINAE_API_KEY,
# OPENAI_API_KEY, OPENROUTER_API_KEY, ANTHROPIC_API_KEY) in the environment
# or in a .env file in the working directory.

[gateway]
# gemini | openai | openrouter | anthropic | ollama
provider = "gemini"
model = "gemini-2.5-flash"
# Leave empty for the provider's default endpoint
base_url = ""
temperature = 0.7
# Replies slower than this become a disconnect record
request_timeout = "60s"
# Google Search grounding (gemini only)
enable_retrieval = true

[history]
# Prior turns replayed to the model, oldest dropped first
max_replay_turns = 24
max_replay_bytes = 262144

[pacing]
# Display dwell per phase; set all to "0s" to disable the animation
witnessing = "1s"
aligning = "800ms"
vetoing = "1s"
harmonizing = "500ms"
ready_hold = "3s"

[archive]
# Append every completed turn to <data_directory>/archive.db
enabled = false

[server]
# Listen address for "linae serve"
addr = "127.0.0.1:8787"
`
}
