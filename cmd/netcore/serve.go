package main

import (
	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/YiuTerran/go-netcore/module"
	"github.com/YiuTerran/go-netcore/network/netaddr"
	"github.com/YiuTerran/go-netcore/network/tcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a framed echo server",
	Long: `Start a framed echo server. Every record received is sent back to its
sender, or to every connected session with --broadcast.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on (e.g. 0.0.0.0:7777)")
	serveCmd.Flags().Int("max-sessions", 0, "maximum concurrent sessions")
	serveCmd.Flags().Bool("broadcast", false, "forward every record to all sessions")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if viper.IsSet("listen") {
		cfg.Server.Listen = viper.GetString("listen")
	}
	if viper.IsSet("max-sessions") {
		cfg.Server.MaxSessions = viper.GetInt("max-sessions")
	}
	if viper.IsSet("broadcast") {
		cfg.Server.Broadcast = viper.GetBool("broadcast")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Log.Setup()

	addr, err := netaddr.Parse(cfg.Server.Listen)
	if err != nil {
		return err
	}
	a := newApp(cfg.Workers)
	server := tcp.NewServerService(a.ctx, addr,
		echoFactory(a.mgr, cfg.Server.Broadcast, tcp.RecvBuffer(cfg.Server.RecvUnit, cfg.Server.RecvCount)),
		tcp.Name(cfg.Server.Name),
		tcp.MaxSessionCount(cfg.Server.MaxSessions),
	)
	defer log.Flush()
	return module.StaticRun([]module.Module{
		a.workerModule(),
		serviceModule(server),
		adminModule(cfg.Admin, server),
	}, nil, nil)
}
