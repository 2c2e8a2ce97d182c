package producers

import (
	"github.com/charmbracelet/log"

	"shrike/internal/config"
	"shrike/internal/engine/consensus"
)

// Producer kinds understood by the registry.
const (
	KindOpenAI     = "openai"
	KindGeoIP      = "geoip"
	KindThreatFeed = "threat_feed"
)

// FromConfig builds the enabled producer adapters declared in the settings.
// An adapter that fails to construct (missing API key, missing database) is
// skipped with a warning rather than blocking startup; the aggregator simply
// has fewer opinions to work with.
func FromConfig(configs []config.ProducerConfig) []consensus.SignalProducer {
	enabled := make([]consensus.SignalProducer, 0, len(configs))

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		producer, err := build(cfg)
		if err != nil {
			log.Warn("Skipping signal producer", "name", cfg.Name, "kind", cfg.Kind, "error", err)
			continue
		}

		enabled = append(enabled, producer)
		log.Debug("Registered signal producer", "name", cfg.Name, "kind", cfg.Kind, "weight", cfg.Weight)
	}

	return enabled
}

func build(cfg config.ProducerConfig) (consensus.SignalProducer, error) {
	switch cfg.Kind {
	case KindOpenAI:
		return NewOpenAIProducer(cfg.Name, cfg.Model)
	case KindGeoIP:
		return NewGeoIPProducer(cfg.Name, cfg.DatabasePath)
	case KindThreatFeed:
		return NewThreatFeedProducer(cfg.Name, cfg.Endpoint)
	default:
		return nil, errUnknownKind(cfg.Kind)
	}
}

type errUnknownKind string

func (e errUnknownKind) Error() string {
	return "unknown producer kind: " + string(e)
}
