package app

import (
	"github.com/rs/zerolog"

	"github.com/dshills/keyflow/internal/input/pointer"
)

// logLighting stands in for the RGB matrix: it logs pointer layer
// switches.
type logLighting struct {
	logger zerolog.Logger
}

var _ pointer.Lighting = logLighting{}

func (l logLighting) PointerLayer(on bool) {
	l.logger.Info().Bool("on", on).Msg("pointer layer indicator")
}
