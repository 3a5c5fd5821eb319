package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"folio/flow"
	"folio/layout"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	PageSizeConfig struct {
		Width  float64 `yaml:"width" validate:"gt=0"`
		Height float64 `yaml:"height" validate:"gt=0"`
	}

	MarginsConfig struct {
		Top    float64 `yaml:"top" validate:"gte=0"`
		Right  float64 `yaml:"right" validate:"gte=0"`
		Bottom float64 `yaml:"bottom" validate:"gte=0"`
		Left   float64 `yaml:"left" validate:"gte=0"`
	}

	ColumnsConfig struct {
		Count int     `yaml:"count" validate:"min=1,max=12"`
		Gap   float64 `yaml:"gap" validate:"gte=0"`
	}

	NumberingConfig struct {
		Format PageNumberFormat `yaml:"format" validate:"required"`
		Start  int              `yaml:"start" validate:"min=1"`
	}

	// PageConfig holds the default section geometry used when the document
	// itself does not override it.
	PageConfig struct {
		Size           PageSizeConfig  `yaml:"size"`
		Margins        MarginsConfig   `yaml:"margins"`
		Orientation    PageOrientation `yaml:"orientation" validate:"required"`
		Columns        ColumnsConfig   `yaml:"columns"`
		Numbering      NumberingConfig `yaml:"numbering"`
		HeaderDistance float64         `yaml:"header_distance" validate:"gte=0"`
		FooterDistance float64         `yaml:"footer_distance" validate:"gte=0"`
	}

	EngineConfig struct {
		ResolveBodyTokens         bool `yaml:"resolve_body_tokens"`
		ResolveHeaderFooterTokens bool `yaml:"resolve_header_footer_tokens"`
		CacheEntries              int  `yaml:"cache_entries" validate:"gte=0"`
	}

	DocumentConfig struct {
		OutputNameTemplate    string `yaml:"output_name_template"`
		FileNameTransliterate bool   `yaml:"file_name_transliterate"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Page      PageConfig     `yaml:"page"`
		Engine    EngineConfig   `yaml:"engine"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// Options translates the page defaults into layout options.
func (p *PageConfig) Options() layout.Options {
	opts := layout.Options{
		PageSize: flow.Size{W: p.Size.Width, H: p.Size.Height},
		Margins: flow.Margins{
			Top:    p.Margins.Top,
			Right:  p.Margins.Right,
			Bottom: p.Margins.Bottom,
			Left:   p.Margins.Left,
		},
		Columns:        flow.Columns{Count: p.Columns.Count, Gap: p.Columns.Gap},
		Numbering:      flow.Numbering{Format: p.Numbering.Format.Flow(), Start: p.Numbering.Start},
		HeaderDistance: p.HeaderDistance,
		FooterDistance: p.FooterDistance,
	}
	if p.Orientation == PageOrientationLandscape {
		opts.Orientation = flow.OrientationLandscape
	} else {
		opts.Orientation = flow.OrientationPortrait
	}
	return opts
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
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

	// overwrite cfg values with values from the file
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
