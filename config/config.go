// Package config 读取netcore的toml配置
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/YiuTerran/go-netcore/network/netaddr"
)

type Server struct {
	Name        string `toml:"name"`
	Listen      string `toml:"listen"`
	MaxSessions int    `toml:"max_sessions"`
	// 收到的记录转发给所有会话，否则只回显给发送方
	Broadcast bool `toml:"broadcast"`
	RecvUnit  int  `toml:"recv_unit"`
	RecvCount int  `toml:"recv_count"`
}

type Client struct {
	Name        string `toml:"name"`
	Target      string `toml:"target"`
	MaxSessions int    `toml:"max_sessions"`
	DialTimeout string `toml:"dial_timeout"`
	// 每个会话连上后发送的记录数
	Records int `toml:"records"`
}

type Log struct {
	Name       string `toml:"name"`
	Path       string `toml:"path"`
	Level      string `toml:"level"`
	Out        string `toml:"out"`
	MaxSize    int    `toml:"max_size"`
	MaxAge     int    `toml:"max_age"`
	MaxBackups int    `toml:"max_backups"`
	Rotate     bool   `toml:"rotate"`
}

// Admin http管理接口，listen为空时不启动
type Admin struct {
	Listen string `toml:"listen"`
}

type Config struct {
	Workers int    `toml:"workers"`
	Server  Server `toml:"server"`
	Client  Client `toml:"client"`
	Log     Log    `toml:"log"`
	Admin   Admin  `toml:"admin"`
}

func Default() Config {
	return Config{
		Workers: 4,
		Server: Server{
			Name:        "echo",
			Listen:      "0.0.0.0:7777",
			MaxSessions: 100,
			RecvUnit:    0x10000,
			RecvCount:   10,
		},
		Client: Client{
			Name:        "dialer",
			Target:      "127.0.0.1:7777",
			MaxSessions: 1,
			DialTimeout: "3s",
			Records:     3,
		},
		Log: Log{
			Name:  "netcore",
			Path:  "logs",
			Level: "info",
			Out:   "console",
		},
	}
}

// Load 文件里没有出现的字段保持默认值
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Warn("unknown config keys in %s: %v", path, undecoded)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if _, err := netaddr.Parse(c.Server.Listen); err != nil {
		errs = append(errs, fmt.Errorf("server.listen: %w", err))
	}
	if c.Server.MaxSessions <= 0 {
		errs = append(errs, errors.New("server.max_sessions must be positive"))
	}
	if c.Server.RecvUnit <= 0 || c.Server.RecvCount < 2 {
		errs = append(errs, errors.New("server.recv_unit must be positive and server.recv_count at least 2"))
	}
	if _, err := netaddr.Parse(c.Client.Target); err != nil {
		errs = append(errs, fmt.Errorf("client.target: %w", err))
	}
	if c.Client.MaxSessions <= 0 {
		errs = append(errs, errors.New("client.max_sessions must be positive"))
	}
	if _, err := c.Client.Timeout(); err != nil {
		errs = append(errs, fmt.Errorf("client.dial_timeout: %w", err))
	}
	if c.Admin.Listen != "" {
		if _, err := netaddr.Parse(c.Admin.Listen); err != nil {
			errs = append(errs, fmt.Errorf("admin.listen: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Timeout 为空表示不限制
func (c Client) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.DialTimeout) == "" {
		return 0, nil
	}
	return time.ParseDuration(strings.TrimSpace(c.DialTimeout))
}

// Setup 按配置初始化全局日志
func (l Log) Setup() {
	log.Builder.
		Name(l.Name).
		Path(l.Path).
		Level(log.ParseLevel(l.Level)).
		OutType(log.OutTypeAlias(l.Out)).
		MaxSize(l.MaxSize).
		MaxAge(l.MaxAge).
		MaxBackUps(l.MaxBackups).
		EnableRotate(l.Rotate).
		Build()
}
