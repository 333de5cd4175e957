package domain

import (
	"strings"
	"time"
)

// DefaultSystemPrompt is used when a persona has no system prompt configured
const DefaultSystemPrompt = "You are a careful, helpful assistant. Answer accurately and concisely, " +
	"and say so when you do not know the answer."

// Persona configuration defaults
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// Model is an AI persona configured in the admin console
type Model struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Config      ModelConfig `json:"config"`
	CreatedBy   string      `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ModelConfig holds the per-persona generation settings.
// Zero values mean "use the default"; see the Effective* accessors.
type ModelConfig struct {
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	ChatModel    string   `json:"chat_model,omitempty"`
	APIKey       string   `json:"-"` // Stored encrypted, never serialized
	UseRetrieval bool     `json:"use_retrieval"`
	WebSearch    bool     `json:"web_search"`
}

// DefaultModelConfig returns a config with retrieval enabled
func DefaultModelConfig() ModelConfig {
	return ModelConfig{UseRetrieval: true}
}

// EffectiveSystemPrompt returns the system prompt or the default one
func (c ModelConfig) EffectiveSystemPrompt() string {
	if strings.TrimSpace(c.SystemPrompt) == "" {
		return DefaultSystemPrompt
	}
	return c.SystemPrompt
}

// EffectiveTemperature returns the temperature or the default
func (c ModelConfig) EffectiveTemperature() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

// EffectiveMaxTokens returns the token limit or the default
func (c ModelConfig) EffectiveMaxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}

// EffectiveChatModel returns the persona's chat model, then the platform
// model, then the built-in default
func (c ModelConfig) EffectiveChatModel(platform string) string {
	switch {
	case c.ChatModel != "":
		return c.ChatModel
	case platform != "":
		return platform
	default:
		return DefaultChatModel
	}
}

// HasAPIKeyOverride reports whether the persona brings its own provider key
func (c ModelConfig) HasAPIKeyOverride() bool {
	return c.APIKey != ""
}

// Validate checks the config ranges
func (c ModelConfig) Validate() error {
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return ErrInvalidInput
	}
	if c.MaxTokens < 0 {
		return ErrInvalidInput
	}
	return nil
}

// ModelDocument is an uploaded retrieval document, stored as extracted text
type ModelDocument struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"model_id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	Text      string    `json:"-"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ModelWithDocuments combines a persona with its document records
type ModelWithDocuments struct {
	Model        *Model           `json:"model"`
	Documents    []*ModelDocument `json:"documents"`
	ChunksStored int              `json:"chunks_stored"`
}

// IngestResult reports what an ingestion run wrote to the vector store
type IngestResult struct {
	ModelID      string `json:"model_id"`
	ChunksStored int    `json:"chunks_stored"`
	Error        string `json:"error,omitempty"`
}
