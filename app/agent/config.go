package agent

import (
	"bytes"
	"fmt"
	"os"

	"github.com/IrineSistiana/mosmdns/internal/mlog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Agent    AgentConfig     `yaml:"agent"`
	Services []ServiceConfig `yaml:"services"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Socket  SocketConfig  `yaml:"socket"`
}

type AgentConfig struct {
	// ServiceType is the service type the periodic querier asks for.
	ServiceType string `yaml:"service_type"`

	QueryInterval     int `yaml:"query_interval"`     // seconds, default 15
	AdvertiseInterval int `yaml:"advertise_interval"` // seconds, default 30
	ReportInterval    int `yaml:"report_interval"`    // seconds, default 10

	// Interface is the multicast interface name. Empty lets the OS pick.
	Interface string `yaml:"interface"`
}

type ServiceConfig struct {
	ID     string `yaml:"id"`
	Type   string `yaml:"type"`
	Port   uint16 `yaml:"port"`
	TTL    uint32 `yaml:"ttl"` // seconds, 0 means default (120)
	Origin string `yaml:"origin"`
}

type LogConfig struct {
	Packets bool `yaml:"packets"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Only support linux.
type SocketConfig struct {
	SO_REUSEPORT bool `yaml:"so_reuseport"`
	SO_RCVBUF    int  `yaml:"so_rcvbuf"`
	SO_SNDBUF    int  `yaml:"so_sndbuf"`
}

func genConfigTemplate(o string) {
	logger := mlog.L()
	cfg := &Config{
		Agent:    AgentConfig{ServiceType: "_http._tcp.local"},
		Services: []ServiceConfig{{}},
	}

	b := new(bytes.Buffer)
	encoder := yaml.NewEncoder(b)
	encoder.SetIndent(2)

	err := encoder.Encode(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode config")
	}
	encoder.Close()

	if len(o) == 0 || o == "stdout" {
		fmt.Printf("%s\n", b.Bytes())
	} else {
		err := os.WriteFile(o, b.Bytes(), 0644)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to write config file")
		}
	}
}
