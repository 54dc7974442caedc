package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type temperaturePublisher struct {
	writer  messageWriter
	key     string
	sensors func(ctx context.Context) ([]host.TemperatureStat, error)
}

var errNoCpuSensor = errors.New("no cpu temperature sensor")

// Sensor keys reporting the cpu temperature, best first
var cpuSensorKeys = []string{"cpu_thermal", "coretemp_package", "k10temp_tctl", "coretemp", "k10temp", "cpu"}

func cpuTemperature(stats []host.TemperatureStat) (float64, error) {
	for _, prefix := range cpuSensorKeys {
		for _, stat := range stats {
			if strings.HasPrefix(strings.ToLower(stat.SensorKey), prefix) && stat.Temperature > 0 {
				return stat.Temperature, nil
			}
		}
	}
	return 0, errNoCpuSensor
}

func (p *temperaturePublisher) publish(ctx context.Context) {
	stats, err := p.sensors(ctx)
	if err != nil && len(stats) == 0 {
		logrus.Warnf("Unable to read sensors: %v", err)
		return
	}
	temperature, err := cpuTemperature(stats)
	if err != nil {
		logrus.Warnf("Unable to read cpu temperature: %v", err)
		return
	}

	value := strconv.FormatFloat(temperature, 'f', 1, 64)
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{Key: []byte(p.key), Value: []byte(value)})
	if err != nil {
		logrus.Warnf("Unable to publish message: %v", err)
		return
	}
	logrus.Infof("Published %s = %s", p.key, value)
}
