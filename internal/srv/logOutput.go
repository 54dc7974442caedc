package srv

import (
	"io"
	"os"
	"path/filepath"

	"github.com/jypelle/tempoled/internal/srv/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogOutput tees the logs to a rotating file when one is configured. A
// relative file is located in the config folder.
func setupLogOutput(param config.LogParam, configDir string) (io.Closer, error) {
	if param.File == "" {
		return nil, nil
	}

	filename := param.File
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(configDir, filename)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0770); err != nil {
		return nil, err
	}

	logFile := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    param.MaxSizeMb,
		MaxBackups: param.MaxBackups,
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, logFile))
	logrus.Infof("Log file: %s", filename)

	return logFile, nil
}
