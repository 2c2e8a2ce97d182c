package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Config is the engine's runtime configuration. It is read as an immutable
// snapshot per evaluation; updates swap the whole value atomically.
type Config struct {
	Version uint32 `json:"version"`

	Consensus ConsensusSettings `json:"consensus"`
	Producers []ProducerConfig  `json:"producers"`
	Scoring   ScoringSettings   `json:"scoring"`
}

type ConsensusSettings struct {
	MultiplierMin      float64     `json:"multiplier_min"`
	MultiplierMax      float64     `json:"multiplier_max"`
	FallbackMultiplier float64     `json:"fallback_multiplier"`
	AgreementTolerance float64     `json:"agreement_tolerance"`
	MaxKeyFactors      int         `json:"max_key_factors"`
	ProducerTimeoutMS  uint32      `json:"producer_timeout_ms"`
	LabelBands         []LabelBand `json:"label_bands"`
}

// LabelBand maps multipliers at or above Min to Label. Bands are kept
// monotonic and contiguous by configuration discipline, not code.
type LabelBand struct {
	Min   float64 `json:"min"`
	Label string  `json:"label"`
}

// ProducerConfig declares one signal producer. Kind selects the adapter;
// adapter-specific fields stay optional.
type ProducerConfig struct {
	Name         string  `json:"name"`
	Kind         string  `json:"kind"` // "openai", "geoip" or "threat_feed"
	Enabled      bool    `json:"enabled"`
	Weight       float64 `json:"weight"`
	TimeoutMS    uint32  `json:"timeout_ms"`
	Endpoint     string  `json:"endpoint,omitempty"`
	Model        string  `json:"model,omitempty"`
	DatabasePath string  `json:"database_path,omitempty"`
}

type ScoringSettings struct {
	CategoryWeights map[string]float64 `json:"category_weights"`
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value
	configMu    sync.Mutex

	InProductionMode bool
)

func init() {
	configValue.Store(Config{})
}

func ReadSettings() {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			err = os.MkdirAll("data", os.ModePerm)
			if err != nil {
				log.Error("Error creating directory for settings file:", err)
				return
			}

			err = os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm)
			if err != nil {
				log.Error("Error writing default settings file:", err)
				return
			}

			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", err)
			return
		}
	}

	var newConfig Config
	err = json.Unmarshal(data, &newConfig)
	if err != nil {
		log.Error("Error unmarshalling settings file:", err)
		return
	}

	if err := applyConfigUpdate(newConfig, configUpdateOptions{source: "file"}); err != nil {
		log.Error("Error applying configuration from settings file:", err)
		return
	}

	log.Debug("Settings file loaded successfully")
}

// SetConfig applies an updated configuration, bumps its version, persists it
// and broadcasts it to the other instances.
func SetConfig(newConfig Config) {
	newConfig.Version = GetConfig().Version + 1

	if err := applyConfigUpdate(newConfig, configUpdateOptions{persistToFile: true, broadcast: true, source: "local"}); err != nil {
		log.Error("Error applying configuration update:", err)
		return
	}

	log.Debug("Configuration updated and written to file successfully")
}

type configUpdateOptions struct {
	persistToFile bool
	broadcast     bool
	source        string
}

func applyConfigUpdate(newConfig Config, opts configUpdateOptions) error {
	configMu.Lock()
	defer configMu.Unlock()

	configValue.Store(newConfig)

	var errs []error

	if opts.persistToFile {
		data, err := json.MarshalIndent(newConfig, "", "  ")
		if err != nil {
			log.Error("Error marshalling new configuration:", err)
			errs = append(errs, err)
		} else if err := os.WriteFile(settingsFilePath, data, os.ModePerm); err != nil {
			log.Error("Error writing new configuration to file:", err)
			errs = append(errs, err)
		}
	}

	if opts.broadcast {
		payload, err := json.Marshal(newConfig)
		if err != nil {
			log.Error("Error serializing configuration for broadcast:", err)
			errs = append(errs, err)
		} else if err := broadcastConfigUpdate(payload); err != nil {
			log.Error("Error broadcasting configuration update:", err)
			errs = append(errs, err)
		}
	}

	if opts.source != "" {
		log.Debug("Configuration applied", "source", opts.source, "version", newConfig.Version)
	} else {
		log.Debug("Configuration applied", "version", newConfig.Version)
	}

	return errors.Join(errs...)
}

func GetConfig() Config {
	return configValue.Load().(Config)
}

func SetProductionMode(productionMode bool) {
	InProductionMode = productionMode
}
