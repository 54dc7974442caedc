package config

import (
	"strings"
	"time"
)

type KafkaParam struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	GroupId       string   `yaml:"group_id"`
	Topics        []string `yaml:"topics"`
	PollTimeoutMs int64    `yaml:"poll_timeout_ms"`
}

func (c KafkaParam) GetBrokers() []string {
	return c.Brokers
}

func (c KafkaParam) GetGroupId() string {
	return c.GroupId
}

func (c KafkaParam) GetTopics() []string {
	return c.Topics
}

func (c KafkaParam) GetPollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutMs) * time.Millisecond
}

func (c KafkaParam) String() string {
	return strings.Join(c.Brokers, ",") + " group=" + c.GroupId + " topics=" + strings.Join(c.Topics, ",")
}

// splitList parses a comma separated environment value.
func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}
