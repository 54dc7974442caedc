package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/segmentio/kafka-go"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/sirupsen/logrus"
)

func main() {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	debugMode := flag.Bool("d", false, "Enable debug mode")
	schedule := flag.String("e", "@every 5s", "Publishing schedule (cron spec)")

	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] host:port topic device_key\n", mainCommand)
		fmt.Printf("\nPublish the cpu temperature to a kafka topic, keyed by device_key\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(flag.Arg(0)),
		Topic:        flag.Arg(1),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		ErrorLogger:  kafka.LoggerFunc(logrus.Errorf),
	}
	defer writer.Close()

	publisher := &temperaturePublisher{
		writer:  writer,
		key:     flag.Arg(2),
		sensors: host.SensorsTemperaturesWithContext,
	}

	// First value right away, like the schedule would after one period
	publisher.publish(ctx)

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() { publisher.publish(ctx) }); err != nil {
		logrus.Fatalf("Invalid schedule %q: %v", *schedule, err)
	}
	c.Start()

	<-ctx.Done()
	logrus.Infof("Manual break by user")
	<-c.Stop().Done()
}
