package config

import "github.com/planscope/sheetdex/internal/sheet"

// Config holds sheetdex configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Render  RenderCfg  `mapstructure:"render" yaml:"render"`
	Vision  VisionCfg  `mapstructure:"vision" yaml:"vision"`
	Extract ExtractCfg `mapstructure:"extract" yaml:"extract"`
	Defra   DefraCfg   `mapstructure:"defra" yaml:"defra"`
}

// RenderCfg configures page rasterization.
type RenderCfg struct {
	DPI int `mapstructure:"dpi" yaml:"dpi"` // Render resolution (default: 150)
}

// VisionCfg configures the vision-fallback model.
type VisionCfg struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Model          string `mapstructure:"model" yaml:"model"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ExtractCfg holds the tunable extraction thresholds. The constants
// these default to are conventions, not invariants; operators can
// adjust them per document corpus.
type ExtractCfg struct {
	// ReviewThreshold routes confidence below it to human review.
	ReviewThreshold float64 `mapstructure:"review_threshold" yaml:"review_threshold"`
	// ManualThreshold routes confidence below it to manual entry.
	ManualThreshold float64 `mapstructure:"manual_threshold" yaml:"manual_threshold"`
	// VisionTrigger runs the vision fallback when geometric confidence
	// lands below it.
	VisionTrigger float64 `mapstructure:"vision_trigger" yaml:"vision_trigger"`
	// BoilerplateCutoff is how many sheets may share one long title
	// before it is treated as cross-sheet boilerplate.
	BoilerplateCutoff int `mapstructure:"boilerplate_cutoff" yaml:"boilerplate_cutoff"`
	// BoilerplateMinLen is the minimum title length considered for
	// boilerplate detection.
	BoilerplateMinLen int `mapstructure:"boilerplate_min_len" yaml:"boilerplate_min_len"`
}

// DefraCfg holds DefraDB container configuration.
type DefraCfg struct {
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	Image         string `mapstructure:"image" yaml:"image"`
	Port          string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderCfg{
			DPI: 150,
		},
		Vision: VisionCfg{
			Enabled:        true,
			Model:          "gpt-4o-mini",
			APIKey:         "${OPENAI_API_KEY}",
			TimeoutSeconds: 120,
		},
		Extract: ExtractCfg{
			ReviewThreshold:   sheet.DefaultReviewThreshold,
			ManualThreshold:   sheet.DefaultManualThreshold,
			VisionTrigger:     0.80,
			BoilerplateCutoff: 8,
			BoilerplateMinLen: 40,
		},
		Defra: DefraCfg{
			ContainerName: "sheetdex-defra",
			Image:         "sourcenetwork/defradb:latest",
			Port:          "9181",
		},
	}
}
