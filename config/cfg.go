package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	StoreConfig struct {
		URL       string        `yaml:"url" validate:"required,url"`
		Token     SecretString  `yaml:"token"`
		Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
		UserAgent string        `yaml:"user_agent"`
	}

	GalleryConfig struct {
		Root                string   `yaml:"root" validate:"required"`
		Template            string   `yaml:"template" validate:"required,nefield=Root"`
		Locale              string   `yaml:"locale" validate:"required,bcp47_language_tag"`
		ListLimit           int      `yaml:"list_limit" validate:"min=1"`
		Concurrency         int      `yaml:"concurrency" validate:"min=1,max=64"`
		FailurePolicy       string   `yaml:"failure_policy" validate:"oneof=abort isolate"`
		Editor              string   `yaml:"editor" validate:"required"`
		DescriptionTemplate string   `yaml:"description_template"`
		Published           bool     `yaml:"published"`
		Private             bool     `yaml:"private"`
		Tags                []string `yaml:"tags" validate:"dive,required"`
	}

	RenderConfig struct {
		FallbackName        string   `yaml:"fallback_name" validate:"required"`
		DefaultSectionTitle string   `yaml:"default_section_title" validate:"required"`
		TipPrefixes         []string `yaml:"tip_prefixes" validate:"dive,required"`
		Stylesheet          string   `yaml:"stylesheet" validate:"omitempty,filepath"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Store     StoreConfig    `yaml:"store"`
		Gallery   GalleryConfig  `yaml:"gallery"`
		Render    RenderConfig   `yaml:"render"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	DescriptionTemplateFieldName TemplateFieldName = "description_template"
)

// Failure policies for gallery refresh.
const (
	FailurePolicyAbort   = "abort"
	FailurePolicyIsolate = "isolate"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(DescriptionTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
