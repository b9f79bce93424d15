// Package engine provides player engines: a beep-backed audio renderer and a
// silent simulated-clock engine for headless runs.
package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/localbox/internal/app/playback"
	"github.com/osa030/localbox/internal/infra/config"
)

// Engine types accepted in engine.type.
const (
	TypeBeep = "beep"
	TypeNull = "null"
)

const eventBufferSize = 16

// New creates the engine selected by configuration.
func New(cfg config.EngineConfig) (playback.Engine, error) {
	zlog.Debug().Msgf("creating engine: type=%s settings=%+v", cfg.Type, cfg.Settings)

	var (
		eng playback.Engine
		err error
	)
	switch cfg.Type {
	case TypeBeep:
		eng, err = NewBeepEngine(cfg.Settings)
	case TypeNull:
		eng, err = NewNullEngine(cfg.Settings)
	default:
		return nil, errors.Newf("unsupported engine type: %s", cfg.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create engine (type %s)", cfg.Type)
	}

	zlog.Info().Msgf("engine created: type=%s", cfg.Type)
	return eng, nil
}

// decodeSettings decodes a settings map into out, then applies defaults and
// validation tags.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// emit delivers an event without blocking the engine.
func emit(ch chan playback.EngineEvent, ev playback.EngineEvent) {
	select {
	case ch <- ev:
	default:
		zlog.Warn().Msgf("engine: event dropped, buffer full: event=%s", ev.Type)
	}
}
