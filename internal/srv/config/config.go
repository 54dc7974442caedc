package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jypelle/tempoled/internal/srv/engine"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const paramFilename = "param.yaml"
const stateFilename = "state.yaml"
const envFilename = ".env"

// Environment variables overriding param.yaml
const (
	EnvKafkaBrokers = "TEMPOLED_KAFKA_BROKERS"
	EnvKafkaGroupId = "TEMPOLED_KAFKA_GROUP_ID"
	EnvKafkaTopics  = "TEMPOLED_KAFKA_TOPICS"
	EnvApiKey       = "TEMPOLED_API_KEY"
)

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
	*ServerState
}

// NewServerConfig loads the configuration and aborts the process on failure.
func NewServerConfig(configDir string, debugMode bool, simulationMode bool) *ServerConfig {
	serverConfig, err := LoadServerConfig(configDir, debugMode, simulationMode)
	if err != nil {
		logrus.Fatalf("Unable to load configuration: %v\n", err)
	}
	return serverConfig
}

func LoadServerConfig(configDir string, debugMode bool, simulationMode bool) (*ServerConfig, error) {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	// Check Configuration folder
	_, err := os.Stat(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Printf("Creation of config folder: %s", configDir)
			err = os.MkdirAll(configDir, 0770)
			if err != nil {
				return nil, fmt.Errorf("unable to create config folder: %w", err)
			}
		} else {
			return nil, fmt.Errorf("unable to access config folder %s: %w", configDir, err)
		}
	}

	// Open param file
	serverConfig.ServerParam = &ServerParam{}
	rawConfig, err := os.ReadFile(serverConfig.GetCompleteParamFilename())
	if err == nil {
		err = yaml.Unmarshal(rawConfig, serverConfig.ServerParam)
		if err != nil {
			return nil, fmt.Errorf("unable to interpret param file: %w", err)
		}
	} else {
		// Create default param file
		logrus.Infof("Create default param file")
		err = yaml.Unmarshal(ParamDefaultFile, serverConfig.ServerParam)
		if err != nil {
			return nil, fmt.Errorf("unable to interpret default param file: %w", err)
		}
		err = serverConfig.SaveParam()
		if err != nil {
			return nil, err
		}
	}

	// Environment overrides
	err = godotenv.Load(serverConfig.GetCompleteEnvFilename())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Unable to read %s: %v", serverConfig.GetCompleteEnvFilename(), err)
	}
	serverConfig.ServerParam.applyEnv()

	if simulationMode {
		serverConfig.Simulation.Enabled = true
	}

	err = serverConfig.ServerParam.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid param file %s: %w", serverConfig.GetCompleteParamFilename(), err)
	}

	// Open state file
	serverConfig.ServerState, err = NewServerState(serverConfig.GetCompleteStateFilename())
	if err != nil {
		return nil, fmt.Errorf("unable to interpret state file: %w", err)
	}

	return serverConfig, nil
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

func (sc *ServerConfig) GetCompleteStateFilename() string {
	return filepath.Join(sc.ConfigDir, stateFilename)
}

func (sc *ServerConfig) GetCompleteEnvFilename() string {
	return filepath.Join(sc.ConfigDir, envFilename)
}

func (sc *ServerConfig) SaveParam() error {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawConfig, err := yaml.Marshal(*sc.ServerParam)
	if err != nil {
		return fmt.Errorf("unable to serialize param file: %w", err)
	}
	err = os.WriteFile(sc.GetCompleteParamFilename(), rawConfig, 0660)
	if err != nil {
		return fmt.Errorf("unable to save param file: %w", err)
	}
	return nil
}

func (sp *ServerParam) applyEnv() {
	if value, ok := os.LookupEnv(EnvKafkaBrokers); ok {
		sp.KafkaParam.Brokers = splitList(value)
	}
	if value, ok := os.LookupEnv(EnvKafkaGroupId); ok {
		sp.KafkaParam.GroupId = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(EnvKafkaTopics); ok {
		sp.KafkaParam.Topics = splitList(value)
	}
	if value, ok := os.LookupEnv(EnvApiKey); ok {
		sp.ApiParam.ApiKey = value
	}
}

// Validate checks the parameters the engine and the devices rely on.
func (sp *ServerParam) Validate() error {
	switch sp.Display.Bus {
	case "i2c", "spi":
	default:
		return fmt.Errorf("display.bus must be i2c or spi, got %q", sp.Display.Bus)
	}
	if sp.Display.Width <= 0 || sp.Display.Height <= 0 {
		return fmt.Errorf("display size %dx%d is invalid", sp.Display.Width, sp.Display.Height)
	}
	if sp.Engine.LogicStepMs <= 0 {
		return fmt.Errorf("engine.logic_step_ms must be positive")
	}
	if sp.Engine.FrameIntervalMs <= 0 {
		return fmt.Errorf("engine.frame_interval_ms must be positive")
	}
	if sp.Engine.MaxCatchUpSteps < 0 {
		return fmt.Errorf("engine.max_catch_up_steps must not be negative")
	}
	if sp.Engine.HistoryCapacity < 1 {
		return fmt.Errorf("engine.history_capacity must be at least 1")
	}
	if sp.Engine.StarCount < 0 {
		return fmt.Errorf("engine.star_count must not be negative")
	}
	if _, err := engine.ParseMappingMode(sp.Engine.ValueMapping); err != nil {
		return err
	}
	if sp.Engine.ChartMinY != 0 || sp.Engine.ChartMaxY != 0 {
		if sp.Engine.ChartMinY < 0 || sp.Engine.ChartMaxY > sp.Display.Height || sp.Engine.ChartMaxY <= sp.Engine.ChartMinY {
			return fmt.Errorf("chart band [%d, %d] does not fit a %d pixel high display", sp.Engine.ChartMinY, sp.Engine.ChartMaxY, sp.Display.Height)
		}
	}
	if sp.KafkaParam.Enabled && !sp.Simulation.Enabled {
		if len(sp.KafkaParam.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required")
		}
		if sp.KafkaParam.GroupId == "" {
			return fmt.Errorf("kafka.group_id is required")
		}
		if len(sp.KafkaParam.Topics) == 0 {
			return fmt.Errorf("kafka.topics is required")
		}
	}
	if len(sp.Series) == 0 {
		return fmt.Errorf("at least one series is required")
	}
	keys := make(map[string]bool, len(sp.Series))
	for i, series := range sp.Series {
		if series == nil {
			return fmt.Errorf("series entry %d is empty", i)
		}
		if series.Key == "" {
			return fmt.Errorf("series key is required")
		}
		if keys[series.Key] {
			return fmt.Errorf("series %q is defined twice", series.Key)
		}
		keys[series.Key] = true
		if series.Max <= series.Min {
			return fmt.Errorf("series %q: max %v must be greater than min %v", series.Key, series.Max, series.Min)
		}
		if math.IsInf(series.Max-series.Min, 0) || math.IsNaN(series.Initial) || math.IsInf(series.Initial, 0) {
			return fmt.Errorf("series %q: scale [%v, %v] with initial %v is not finite", series.Key, series.Min, series.Max, series.Initial)
		}
		if _, err := ParseColor(series.Color); err != nil {
			return fmt.Errorf("series %q: %w", series.Key, err)
		}
	}
	return nil
}

var colorPalette = map[string]color.RGBA{
	"red":     {255, 0, 0, 255},
	"green":   {0, 255, 0, 255},
	"blue":    {0, 0, 255, 255},
	"yellow":  {255, 255, 0, 255},
	"cyan":    {0, 255, 255, 255},
	"magenta": {255, 0, 255, 255},
	"white":   {255, 255, 255, 255},
}

// ParseColor accepts a palette name or a #rrggbb value.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return colorPalette["white"], nil
	}
	if c, ok := colorPalette[s]; ok {
		return c, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}, nil
}

// SeriesDefs builds the engine registry, in param file order.
func (sp *ServerParam) SeriesDefs() []engine.SeriesDef {
	defs := make([]engine.SeriesDef, 0, len(sp.Series))
	for _, series := range sp.Series {
		c, _ := ParseColor(series.Color)
		label := series.Label
		if label == "" {
			label = series.Key
		}
		defs = append(defs, engine.SeriesDef{
			Key:     series.Key,
			Label:   label,
			Color:   c,
			Scale:   engine.Scale{Min: series.Min, Max: series.Max},
			Initial: series.Initial,
		})
	}
	return defs
}

func (sp *ServerParam) EngineConfig() engine.Config {
	mode, _ := engine.ParseMappingMode(sp.Engine.ValueMapping)
	textMode := engine.TEXT_TRANSPARENT
	if sp.Engine.OpaqueText {
		textMode = engine.TEXT_OPAQUE
	}
	return engine.Config{
		Series:          sp.SeriesDefs(),
		LogicStep:       time.Duration(sp.Engine.LogicStepMs) * time.Millisecond,
		MaxCatchUpSteps: sp.Engine.MaxCatchUpSteps,
		StatusRefresh:   time.Duration(sp.Engine.StatusRefreshMs) * time.Millisecond,
		HistoryCapacity: sp.Engine.HistoryCapacity,
		StarCount:       sp.Engine.StarCount,
		Mapping:         mode,
		ChartMinY:       sp.Engine.ChartMinY,
		ChartMaxY:       sp.Engine.ChartMaxY,
		TextSize:        sp.Engine.TextSize,
		TextMode:        textMode,
	}
}

func (sp *ServerParam) FrameInterval() time.Duration {
	return time.Duration(sp.Engine.FrameIntervalMs) * time.Millisecond
}
