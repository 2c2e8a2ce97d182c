package bootstrap

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"shrike/internal/config"
	"shrike/internal/database"
	"shrike/internal/engine"
	"shrike/internal/engine/consensus"
	jobruntime "shrike/internal/jobs/runtime"
	"shrike/internal/producers"
)

var sharedEngine *engine.Engine

// Setup loads the configuration, opens the database and assembles the shared
// engine instance with its producers and background routines.
func Setup() {
	config.ReadSettings()

	if _, err := database.SetupDB(); err != nil {
		log.Fatalf("failed to set up database: %v", err)
	}

	cfg := config.GetConfig()
	producerSet := producers.FromConfig(cfg.Producers)
	if len(producerSet) == 0 {
		log.Warn("No signal producers configured; consensus will run on the fallback multiplier")
	}

	sharedEngine = engine.New(producerSet, jobruntime.AddRuleApplication)

	go jobruntime.StartRuleApplicationRoutine(context.Background())

	log.Info("Engine assembled", "producers", len(producerSet))
}

// Engine returns the shared engine built by Setup.
func Engine() *engine.Engine {
	return sharedEngine
}

// ConsensusConfig translates the runtime settings into the value the
// aggregator consumes. Per-producer weights and timeouts travel with it so a
// configuration update is picked up on the next evaluation.
func ConsensusConfig(cfg config.Config) consensus.Config {
	settings := make(map[string]consensus.ProducerSettings, len(cfg.Producers))
	for _, producer := range cfg.Producers {
		settings[producer.Name] = consensus.ProducerSettings{
			Weight:    producer.Weight,
			TimeoutMS: producer.TimeoutMS,
			Enabled:   producer.Enabled,
		}
	}

	bands := make([]consensus.LabelBand, 0, len(cfg.Consensus.LabelBands))
	for _, band := range cfg.Consensus.LabelBands {
		bands = append(bands, consensus.LabelBand{Min: band.Min, Label: band.Label})
	}

	return consensus.Config{
		MultiplierMin:      cfg.Consensus.MultiplierMin,
		MultiplierMax:      cfg.Consensus.MultiplierMax,
		FallbackMultiplier: cfg.Consensus.FallbackMultiplier,
		AgreementTolerance: cfg.Consensus.AgreementTolerance,
		MaxKeyFactors:      cfg.Consensus.MaxKeyFactors,
		ProducerTimeout:    time.Duration(cfg.Consensus.ProducerTimeoutMS) * time.Millisecond,
		LabelBands:         bands,
		Producers:          settings,
	}
}
