package main

import (
	"fmt"
	"time"

	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/YiuTerran/go-netcore/module"
	"github.com/YiuTerran/go-netcore/network/netaddr"
	"github.com/YiuTerran/go-netcore/network/tcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dialCmd = &cobra.Command{
	Use:   "dial",
	Short: "Connect to an echo server and send framed records",
	Long: `Open --sessions connections to --target, send --records framed records
on each and wait until every record has been echoed back.`,
	RunE: runDial,
}

func init() {
	dialCmd.Flags().String("target", "", "server address (e.g. 127.0.0.1:7777)")
	dialCmd.Flags().Int("sessions", 0, "number of sessions to open")
	dialCmd.Flags().Int("records", -1, "records sent on every session")
	dialCmd.Flags().Duration("wait", 10*time.Second, "give up after this long")
}

func runDial(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if viper.IsSet("target") {
		cfg.Client.Target = viper.GetString("target")
	}
	if viper.IsSet("sessions") {
		cfg.Client.MaxSessions = viper.GetInt("sessions")
	}
	if viper.IsSet("records") {
		cfg.Client.Records = viper.GetInt("records")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Log.Setup()

	target, err := netaddr.Parse(cfg.Client.Target)
	if err != nil {
		return err
	}
	timeout, _ := cfg.Client.Timeout()

	a := newApp(cfg.Workers)
	d := newDialer(a.mgr, cfg.Client.MaxSessions, cfg.Client.Records)
	client := tcp.NewClientService(a.ctx, target, d.factory,
		tcp.Name(cfg.Client.Name),
		tcp.MaxSessionCount(cfg.Client.MaxSessions),
		tcp.DialTimeout(timeout),
	)
	defer log.Flush()

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-d.done:
		case <-time.After(viper.GetDuration("wait")):
			log.Warn("gave up waiting after %v", viper.GetDuration("wait"))
		}
	}()
	start := time.Now()
	err = module.StaticRun([]module.Module{
		a.workerModule(),
		serviceModule(client),
		adminModule(cfg.Admin, client),
	}, done, nil)
	if err != nil {
		return err
	}

	want := int64(cfg.Client.MaxSessions * cfg.Client.Records)
	fmt.Printf("%d/%d records echoed in %v\n", d.echoed.Load(), want, time.Since(start).Round(time.Millisecond))
	if d.echoed.Load() < want {
		return fmt.Errorf("only %d of %d records echoed", d.echoed.Load(), want)
	}
	return nil
}
