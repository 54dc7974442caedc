package config

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const stateSaveDelay = 10 * time.Second

// ServerState holds what must survive a restart: whether the display was left
// switched on.
type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	completeStateFilename string
}

type ServerStateConfig struct {
	DisplayOn bool `yaml:"display_on"`
}

func NewServerState(completeStateFilename string) (*ServerState, error) {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
		serverStateConfig:     ServerStateConfig{DisplayOn: true},
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err == nil {
		err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig)
		if err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return serverState, nil
}

func (ss *ServerState) DisplayOn() bool {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.DisplayOn
}

func (ss *ServerState) SetDisplayOn(on bool) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	if ss.serverStateConfig.DisplayOn == on {
		return
	}
	ss.serverStateConfig.DisplayOn = on
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(stateSaveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(stateSaveDelay)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Errorf("Unable to serialize state file: %v", err)
		return
	}
	err = os.WriteFile(ss.completeStateFilename, rawConfig, 0660)
	if err != nil {
		logrus.Errorf("Unable to save state file: %v", err)
	}
}

// FlushSave writes a pending change immediately.
func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}
