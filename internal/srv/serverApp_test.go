package srv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jypelle/tempoled/internal/srv/config"
	"github.com/jypelle/tempoled/internal/srv/engine"
	"github.com/jypelle/tempoled/internal/srv/event"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServerConfig(t *testing.T) *config.ServerConfig {
	serverConfig, err := config.LoadServerConfig(t.TempDir(), false, true)
	require.NoError(t, err)
	serverConfig.Simulation.IntervalMs = 5
	serverConfig.ApiParam.Enabled = false
	return serverConfig
}

func TestServerApp_StartStop(t *testing.T) {
	splashDuration = 0

	app, err := newServerApp(testServerConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app.consumerDevice)
	assert.Nil(t, app.apiDevice)

	require.NoError(t, app.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	app.Stop()

	assert.Greater(t, app.Engine().FrameCount(), uint64(0))
	assert.Greater(t, app.consumerDevice.Stats().Recorded, uint64(0))
	assert.Greater(t, app.Engine().Telemetry().Stats().Accepted, uint64(0))

	// Display cleared and powered off, preference untouched
	assert.False(t, app.displayDevice.IsOn())
	assert.True(t, app.ServerState.DisplayOn())

	// Ingestion refused after shutdown
	assert.ErrorIs(t, app.Engine().Telemetry().Record("leto", "50"), engine.ErrTelemetryClosed)
	assert.ErrorIs(t, app.Engine().Shutdown(), engine.ErrEngineShutdown)
}

func TestServerApp_InvalidRegistry(t *testing.T) {
	serverConfig := testServerConfig(t)
	serverConfig.Display.Width = 0

	_, err := newServerApp(serverConfig)
	var initErr *engine.InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "canvas", initErr.Op)
}

func TestServerApp_RenderLoopTime(t *testing.T) {
	serverConfig := testServerConfig(t)
	serverConfig.Simulation.Enabled = false
	serverConfig.KafkaParam.Enabled = false
	serverConfig.Engine.FrameIntervalMs = 1

	app, err := newServerApp(serverConfig)
	require.NoError(t, err)
	assert.Nil(t, app.consumerDevice)

	// Each tick sees 50ms of fake time: 3 logic steps of 16ms
	fakeNow := time.Unix(0, 0)
	app.now = func() time.Time {
		fakeNow = fakeNow.Add(50 * time.Millisecond)
		return fakeNow
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go app.renderLoop(ctx, done)
	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	frames := app.Engine().FrameCount()
	require.Greater(t, frames, uint64(0))
	scheduler := app.Engine().Scheduler()
	assert.Less(t, scheduler.Lag(), scheduler.Step())
}

func TestServerApp_HandleApiEvent(t *testing.T) {
	splashDuration = 0
	app, err := newServerApp(testServerConfig(t))
	require.NoError(t, err)
	require.NoError(t, app.displayDevice.Start())

	result := make(chan event.ApiEventResult, 1)
	app.handleApiEvent(event.ApiEvent{Result: result, Data: event.ApiEventDisplaySwitchData{}})
	res := <-result
	assert.NoError(t, res.Err)
	assert.False(t, res.DisplayOn)

	app.handleApiEvent(event.ApiEvent{Result: result, Data: event.ApiEventDisplayPowerData{On: true}})
	res = <-result
	assert.True(t, res.DisplayOn)

	app.handleApiEvent(event.ApiEvent{Result: result, Data: "reboot"})
	res = <-result
	assert.Error(t, res.Err)
}

func TestSetupLogOutput(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	dir := t.TempDir()

	closer, err := setupLogOutput(config.LogParam{}, dir)
	require.NoError(t, err)
	assert.Nil(t, closer)

	closer, err = setupLogOutput(config.LogParam{File: "logs/tempoled.log", MaxSizeMb: 1, MaxBackups: 1}, dir)
	require.NoError(t, err)
	require.NotNil(t, closer)
	logrus.Info("hello")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(filepath.Join(dir, "logs", "tempoled.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello")
}
