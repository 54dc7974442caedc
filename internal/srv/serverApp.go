package srv

import (
	"context"
	"io"
	"time"

	"github.com/jypelle/tempoled/internal/srv/config"
	"github.com/jypelle/tempoled/internal/srv/device"
	"github.com/jypelle/tempoled/internal/srv/engine"
	"github.com/jypelle/tempoled/internal/version"
	"github.com/sirupsen/logrus"
)

type ServerApp struct {
	*config.ServerConfig
	displayDevice  *device.Display
	consumerDevice *device.Consumer
	apiDevice      *device.Api

	engine *engine.Engine

	logOutput io.Closer

	renderLoopCancel context.CancelFunc
	renderLoopDone   chan struct{}

	now func() time.Time
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {
	serverConfig := config.NewServerConfig(configDir, debugMode, simulationMode)

	logOutput, err := setupLogOutput(serverConfig.Log, serverConfig.ConfigDir)
	if err != nil {
		logrus.Warnf("Unable to open log file: %v", err)
	}

	app, err := newServerApp(serverConfig)
	if err != nil {
		logrus.Fatalf("Unable to create tempoled server: %v", err)
	}
	app.logOutput = logOutput
	return app
}

func newServerApp(serverConfig *config.ServerConfig) (*ServerApp, error) {
	logrus.Debugf("Creation of tempoled server %s ...", version.AppVersion.String())

	app := &ServerApp{
		ServerConfig: serverConfig,
		now:          time.Now,
	}

	app.displayDevice = device.NewDisplay(serverConfig.Display, serverConfig.ServerState, serverConfig.SimulationMode)

	var err error
	app.engine, err = engine.Initialize(serverConfig.EngineConfig(), app.displayDevice)
	if err != nil {
		return nil, err
	}

	var source device.SampleSource
	switch {
	case serverConfig.Simulation.Enabled:
		source = device.NewSimulatedSource(
			serverConfig.SeriesDefs(),
			time.Duration(serverConfig.Simulation.IntervalMs)*time.Millisecond,
			nil)
	case serverConfig.KafkaParam.Enabled:
		source = device.NewKafkaSource(serverConfig.KafkaParam)
	}
	if source != nil {
		app.consumerDevice = device.NewConsumer(source, app.engine.Telemetry(), serverConfig.KafkaParam.GetPollTimeout())
	} else {
		logrus.Warnf("No sample source enabled, only the api can feed the charts")
	}

	if serverConfig.ApiParam.Enabled {
		app.apiDevice = device.NewApi(serverConfig, app.engine.Telemetry(), app.displayDevice)
	}

	logrus.Debugln("Server created")

	return app, nil
}

// SetViewer attaches a window showing the frames, for simulation mode.
func (s *ServerApp) SetViewer(viewer device.Viewer) {
	s.displayDevice.SetViewer(viewer)
}

func (s *ServerApp) Display() *device.Display {
	return s.displayDevice
}

func (s *ServerApp) Engine() *engine.Engine {
	return s.engine
}

func (s *ServerApp) Start(ctx context.Context) error {
	logrus.Printf("Starting tempoled server ...")

	logrus.Printf("Starting devices ...")

	// Start display device
	if err := s.displayDevice.Start(); err != nil {
		return &engine.InitError{Op: "display", Err: err}
	}

	// Display startup screen
	s.showSplash()

	// Start consumer device
	if s.consumerDevice != nil {
		s.consumerDevice.Start(ctx)
	}

	// Start api device
	if s.apiDevice != nil {
		s.apiDevice.Start()
	}

	// Start render loop
	var renderCtx context.Context
	renderCtx, s.renderLoopCancel = context.WithCancel(ctx)
	s.renderLoopDone = make(chan struct{})
	go s.renderLoop(renderCtx, s.renderLoopDone)

	return nil
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping tempoled server ...")

	// Stop api
	if s.apiDevice != nil {
		s.apiDevice.StopSendingEvent()
	}

	// Stop consumer, offsets are committed when its source closes
	if s.consumerDevice != nil {
		s.consumerDevice.Stop()
	}

	// Stop render loop
	if s.renderLoopDone != nil {
		logrus.Infof("Stop render loop")
		s.renderLoopCancel()
		<-s.renderLoopDone
		s.renderLoopDone = nil
	}

	// Release engine, clear and power off the display
	if err := s.engine.Shutdown(); err != nil {
		logrus.Warnf("Engine shutdown: %v", err)
	}

	// Stop display device
	s.displayDevice.Stop()

	// Flush state backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")

	if s.logOutput != nil {
		s.logOutput.Close()
	}
}
