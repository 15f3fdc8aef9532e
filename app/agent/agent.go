package agent

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"time"

	"github.com/IrineSistiana/mosmdns/app"
	"github.com/IrineSistiana/mosmdns/internal/dnsmsg"
	"github.com/IrineSistiana/mosmdns/internal/mlog"
	"github.com/IrineSistiana/mosmdns/internal/registry"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	defaultQueryInterval     = time.Second * 15
	defaultAdvertiseInterval = time.Second * 30
	defaultReportInterval    = time.Second * 10
)

func init() {
	app.RootCmd().AddCommand(newAgentCmd())
}

func newAgentCmd() *cobra.Command {
	var cfgPath string
	c := &cobra.Command{
		Use:   "agent",
		Short: "Start the mdns service-discovery agent",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logger := mlog.L()
			b, err := os.ReadFile(cfgPath)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to read config file")
			}

			cfg := new(Config)
			m := make(map[string]any)
			if err := yaml.Unmarshal(b, m); err != nil {
				logger.Fatal().Err(err).Msg("failed to decode yaml config")
			}
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				ErrorUnused: true,
				TagName:     "yaml",
				Result:      cfg,
			})
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to init yaml decoder")
			}
			if err := decoder.Decode(m); err != nil {
				logger.Fatal().Err(err).Msg("failed to decode yaml struct")
			}
			logger.Info().Str("file", cfgPath).Msg("config file loaded")
			run(cmd.Context(), cfg)
		},
	}
	c.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path of the config file")

	genConfigCmd := &cobra.Command{
		Use:   "gen-config",
		Short: "Generate a config template",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			genConfigTemplate(args[0])
		},
	}
	c.AddCommand(genConfigCmd)
	return c
}

type opt struct {
	logPackets bool
}

type agent struct {
	opt opt

	// not nil
	ctx        context.Context
	cancel     context.CancelCauseFunc
	logger     *zerolog.Logger
	metricsReg *prometheus.Registry
	metrics    *agentMetrics
	registry   *registry.Registry

	// The multicast socket, shared by all activities. net.UDPConn is
	// safe for concurrent send and receive.
	conn *net.UDPConn
	dst  netip.AddrPort

	// localAddr returns the outbound-facing IPv4 address for
	// advertisement A records.
	localAddr func() (netip.Addr, error)

	fatalErr chan fatalErr
}

type fatalErr struct {
	msg string
	err error
}

func run(ctx context.Context, cfg *Config) {
	logger := mlog.L()

	if len(cfg.Agent.ServiceType) == 0 {
		logger.Fatal().Msg("agent.service_type is required")
	}
	if _, err := dnsmsg.ParseName(cfg.Agent.ServiceType); err != nil {
		logger.Fatal().Err(err).Msg("invalid agent.service_type")
	}

	agentCtx, cancel := context.WithCancelCause(ctx)
	a := &agent{
		ctx:        agentCtx,
		cancel:     cancel,
		logger:     logger,
		metricsReg: newMetricsReg(),
		registry:   registry.New(),
		dst:        multicastGroup,
		localAddr:  localIPv4,
		fatalErr:   make(chan fatalErr, 1),
	}
	a.opt.logPackets = cfg.Log.Packets
	a.metrics = newAgentMetrics(a.registry)
	if err := a.metrics.RegisterMetricsTo(a.metricsReg); err != nil {
		logger.Fatal().Err(err).Msg("failed to register agent metrics")
	}

	// start metrics endpoint
	if addr := cfg.Metrics.Addr; len(addr) > 0 {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start prometheus metrics endpoint server")
		}
		logger.Info().Stringer("addr", l.Addr()).Msg("metrics endpoint server started")
		go func() {
			err := http.Serve(l, promhttp.HandlerFor(a.metricsReg, promhttp.HandlerOpts{}))
			a.fatal("metrics endpoint exited", err)
		}()
	}

	// bring up the shared multicast socket
	conn, err := setupMulticastSocket(agentCtx, &cfg.Agent, &cfg.Socket)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to setup multicast socket")
	}
	a.conn = conn
	logger.Info().Stringer("group", a.dst).Stringer("addr", conn.LocalAddr()).Msg("multicast socket is up")

	// Unblock the listener when the agent ctx is canceled.
	context.AfterFunc(agentCtx, func() { conn.Close() })

	// register local services
	for i, svcCfg := range cfg.Services {
		err := a.RegisterLocalService(svcCfg.ID, svcCfg.Type, svcCfg.Port, svcCfg.TTL, svcCfg.Origin)
		if err != nil {
			logger.Fatal().Int("index", i).Err(err).Msg("failed to register service")
		}
		logger.Info().Str("id", svcCfg.ID).Str("type", svcCfg.Type).Msg("service registered")
	}

	queryInterval := time.Duration(cfg.Agent.QueryInterval) * time.Second
	if queryInterval <= 0 {
		queryInterval = defaultQueryInterval
	}
	advertiseInterval := time.Duration(cfg.Agent.AdvertiseInterval) * time.Second
	if advertiseInterval <= 0 {
		advertiseInterval = defaultAdvertiseInterval
	}
	reportInterval := time.Duration(cfg.Agent.ReportInterval) * time.Second
	if reportInterval <= 0 {
		reportInterval = defaultReportInterval
	}

	go a.advertiseLoop(advertiseInterval)
	go a.queryLoop(cfg.Agent.ServiceType, queryInterval)
	go a.listenLoop()
	go a.reportLoop(reportInterval)

	logger.Info().Msg("mdns agent is up and running")

	exitSigChan := make(chan os.Signal, 1)
	signal.Notify(exitSigChan, append([]os.Signal{os.Interrupt}, exitSig...)...)
	select {
	case sig := <-exitSigChan:
		logger.Info().Stringer("signal", sig).Msg("agent exiting on signal")
		cancel(nil)
		os.Exit(0)
	case <-agentCtx.Done():
		err := context.Cause(agentCtx)
		logger.Info().AnErr("cause", err).Msg("agent exiting, context closed")
		os.Exit(0)
	case fatalErr := <-a.fatalErr:
		cancel(fatalErr.err)
		logger.Fatal().Err(fatalErr.err).Msg(fatalErr.msg)
	}
}

func (a *agent) fatal(msg string, err error) {
	select {
	case a.fatalErr <- fatalErr{msg: msg, err: err}:
	default:
	}
}

// RegisterLocalService registers or replaces a local service keyed by
// id. The ttl may be 0, the default (120s) then applies on the wire.
func (a *agent) RegisterLocalService(id, serviceType string, port uint16, ttl uint32, origin string) error {
	if _, err := dnsmsg.ParseName(id); err != nil {
		return fmt.Errorf("invalid service id, %w", err)
	}
	if _, err := dnsmsg.ParseName(serviceType); err != nil {
		return fmt.Errorf("invalid service type, %w", err)
	}
	if _, err := dnsmsg.ParseName(origin); err != nil {
		return fmt.Errorf("invalid service origin, %w", err)
	}
	a.registry.AddService(registry.ServiceRecord{
		ID:          id,
		ServiceType: serviceType,
		Port:        port,
		TTL:         ttl,
		Origin:      origin,
	})
	return nil
}

func (a *agent) subLogger(activity string) *zerolog.Logger {
	l := a.logger.With().Str("activity", activity).Logger()
	return &l
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
