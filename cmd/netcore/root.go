package main

import (
	"fmt"
	"strings"

	"github.com/YiuTerran/go-netcore/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const Version = "0.3.0"

var (
	rootCmd = &cobra.Command{
		Use:   "netcore",
		Short: "framed tcp echo server and load client",
		Long: fmt.Sprintf(`netcore (v%s)

A small tcp runtime with pooled send buffers and framed records.
Flags can also be set via environment variables NETCORE_<FLAG>
(e.g. NETCORE_MAX_SESSIONS=10), .env files are loaded automatically.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of netcore",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("netcore v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dialCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path of the toml config file")
	rootCmd.PersistentFlags().Int("workers", 0, "number of io workers")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("admin", "", "admin http address serving /metrics and /services")
}

// initConfig 读取.env文件和环境变量
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("netcore")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig 先读配置文件，再用命令行和环境变量覆盖
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return config.Config{}, err
	}
	if err := viper.BindPFlags(cmd.InheritedFlags()); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return config.Config{}, err
	}
	if viper.IsSet("workers") {
		cfg.Workers = viper.GetInt("workers")
	}
	if viper.IsSet("log-level") {
		cfg.Log.Level = viper.GetString("log-level")
	}
	if viper.IsSet("admin") {
		cfg.Admin.Listen = viper.GetString("admin")
	}
	return cfg, nil
}
