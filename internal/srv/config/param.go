package config

import (
	_ "embed"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	Display    DisplayParam    `yaml:"display"`
	Engine     EngineParam     `yaml:"engine"`
	KafkaParam KafkaParam      `yaml:"kafka"`
	Simulation SimulationParam `yaml:"simulation"`
	ApiParam   ApiParam        `yaml:"api"`
	Log        LogParam        `yaml:"log"`
	Series     []*SeriesParam  `yaml:"series"`
}

type DisplayParam struct {
	// Bus is "i2c" or "spi"
	Bus      string `yaml:"bus"`
	I2cBus   string `yaml:"i2c_bus"`
	I2cAddr  uint16 `yaml:"i2c_addr"`
	SpiPort  string `yaml:"spi_port"`
	DcPin    string `yaml:"dc_pin"`
	RstPin   string `yaml:"rst_pin"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Contrast byte   `yaml:"contrast"`
	Rotated  bool   `yaml:"rotated"`
}

type EngineParam struct {
	LogicStepMs     int64  `yaml:"logic_step_ms"`
	MaxCatchUpSteps int    `yaml:"max_catch_up_steps"`
	FrameIntervalMs int64  `yaml:"frame_interval_ms"`
	StatusRefreshMs int64  `yaml:"status_refresh_ms"`
	HistoryCapacity int    `yaml:"history_capacity"`
	StarCount       int    `yaml:"star_count"`
	ValueMapping    string `yaml:"value_mapping"`
	ChartMinY       int    `yaml:"chart_min_y"`
	ChartMaxY       int    `yaml:"chart_max_y"`
	TextSize        int    `yaml:"text_size"`
	OpaqueText      bool   `yaml:"opaque_text"`
}

type SimulationParam struct {
	// Feed random walk samples instead of reading the broker
	Enabled    bool  `yaml:"enabled"`
	IntervalMs int64 `yaml:"interval_ms"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

type LogParam struct {
	File       string `yaml:"file"`
	MaxSizeMb  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type SeriesParam struct {
	Key     string  `yaml:"key"`
	Label   string  `yaml:"label"`
	Color   string  `yaml:"color"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Initial float64 `yaml:"initial"`
}
