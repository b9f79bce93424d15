package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// MinSizeConfig represents the configuration for MinSizeFilter.
type MinSizeConfig struct {
	MinBytes int64 `yaml:"min_bytes" mapstructure:"min_bytes" default:"1024" validate:"gte=0"`
}

// MinSizeFilter skips files too small to hold real audio.
type MinSizeFilter struct {
	config *MinSizeConfig
}

// NewMinSizeFilter creates a new minimum size filter.
func NewMinSizeFilter() *MinSizeFilter {
	return &MinSizeFilter{}
}

func (f *MinSizeFilter) Name() string {
	return "min_size_filter"
}

func (f *MinSizeFilter) Description() string {
	return "Skips files smaller than min_bytes"
}

func (f *MinSizeFilter) ReturnCodes() []string {
	return []string{"too_small"}
}

func (f *MinSizeFilter) ValidateConfig(settings map[string]any) error {
	var config MinSizeConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = &config
	zlog.Info().Msgf("min size filter config: %+v", config)
	return nil
}

func (f *MinSizeFilter) AppliesTo(c Candidate) bool {
	return !c.IsDirectory
}

func (f *MinSizeFilter) Check(ctx context.Context, c Candidate) Result {
	// If config is not set, accept all files
	if f.config == nil {
		return Accept()
	}
	if c.Size < f.config.MinBytes {
		return Reject("too_small")
	}
	return Accept()
}

func init() {
	Register("min_size_filter", func() Filter {
		return NewMinSizeFilter()
	})
}
