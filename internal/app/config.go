// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/note-registry-service/internal/dao"
	"github.com/haierkeys/note-registry-service/internal/service"
	pkgapp "github.com/haierkeys/note-registry-service/pkg/app"
	"github.com/haierkeys/note-registry-service/pkg/limiter"
	"github.com/haierkeys/note-registry-service/pkg/logger"
	"github.com/haierkeys/note-registry-service/pkg/storage"
	"github.com/haierkeys/note-registry-service/pkg/util"
	"github.com/haierkeys/note-registry-service/pkg/workerpool"
	"github.com/haierkeys/note-registry-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string             `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig       `yaml:"server"`
	Log      LogConfig          `yaml:"log"`
	Database dao.DatabaseConfig `yaml:"database"`
	App      AppSettings        `yaml:"app"`
	Security SecurityConfig     `yaml:"security"`
	Tracer   TracerConfig       `yaml:"tracer"`
	Registry RegistryConfig     `yaml:"registry"`
	Snapshot SnapshotConfig     `yaml:"snapshot"`
	Limiter  LimiterConfig      `yaml:"limiter"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址, metrics 与 pprof
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9001"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"note-registry-Auth-Token"`
	TokenExpiry  string `yaml:"token-expiry" default:"365d"` // Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
	TokenIssuer  string `yaml:"token-issuer" default:"note-registry-service"`
	// BindMachine 签名密钥绑定本机
	BindMachine bool `yaml:"bind-machine"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// DefaultLang 请求未指定语言时的响应语言: en | zh_cn
	DefaultLang string `yaml:"default-lang" default:"en"`
	// IsReturnSussess 是否返回成功信息
	IsReturnSussess bool `yaml:"is-return-sussess" default:"false"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"16"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`

	// WebSocket 事件流心跳
	WebSocketPingInterval string `yaml:"websocket-ping-interval" default:"25s"`
	WebSocketPingWait     string `yaml:"websocket-ping-wait" default:"40s"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
	// Jaeger 上报配置, AgentHostPort 为空时不上报
	Jaeger JaegerConfig `yaml:"jaeger"`
}

type JaegerConfig struct {
	AgentHostPort string  `yaml:"agent-host-port"`
	SampleRate    float64 `yaml:"sample-rate" default:"1"`
}

// RegistryConfig 注册表配置
type RegistryConfig struct {
	// MaxPayloadSize 单条笔记内容最大字节数, 0 表示不限制
	MaxPayloadSize int `yaml:"max-payload-size" default:"65536"`
	// EventPageLimit 事件查询每页上限
	EventPageLimit int `yaml:"event-page-limit" default:"100"`
	// PublishEvents 是否推送事件到 websocket 订阅者
	PublishEvents bool `yaml:"publish-events" default:"true"`
	// LogNotePayloads 是否在日志中记录内容大小
	LogNotePayloads bool `yaml:"log-note-payloads"`
	// StatsInterval 统计任务执行间隔, 0 关闭
	StatsInterval string `yaml:"stats-interval" default:"1m"`
}

// SnapshotConfig 快照导出配置
type SnapshotConfig struct {
	Enabled bool `yaml:"enabled"`
	// Cron 标准五段 cron 表达式
	Cron    string         `yaml:"cron" default:"0 3 * * *"`
	Storage storage.Config `yaml:"storage"`
}

// LimiterConfig 接口限流配置
type LimiterConfig struct {
	Rules []limiter.BucketRule `yaml:"rules"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig 解析 YAML 配置内容
func ParseConfig(data []byte) (*AppConfig, error) {
	c := new(AppConfig)

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	// 只在解析前设置一次默认值, 再次填充会把 YAML 中显式的 false 覆盖为默认的 true
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	return c, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	cfg.WriteTimeout = util.DurationOr(c.App.WriteQueueTimeout, cfg.WriteTimeout)
	cfg.IdleTimeout = util.DurationOr(c.App.WriteQueueIdleTime, cfg.IdleTimeout)

	return cfg
}

// GetTokenConfig 获取 Token 配置
func (c *AppConfig) GetTokenConfig() pkgapp.TokenConfig {
	return pkgapp.TokenConfig{
		SecretKey:   c.Security.AuthTokenKey,
		Expiry:      c.GetTokenExpiry(),
		Issuer:      c.Security.TokenIssuer,
		BindMachine: c.Security.BindMachine,
	}
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	return util.DurationOr(c.Security.TokenExpiry, 365*24*time.Hour)
}

// GetEventHubConfig 获取事件流配置
func (c *AppConfig) GetEventHubConfig() pkgapp.EventHubConfig {
	return pkgapp.EventHubConfig{
		PingInterval: util.DurationOr(c.App.WebSocketPingInterval, pkgapp.WebSocketServerPingInterval),
		PingWait:     util.DurationOr(c.App.WebSocketPingWait, pkgapp.WebSocketServerPingWait),
	}
}

// GetServiceConfig 提取 Service 层需要的配置
func (c *AppConfig) GetServiceConfig() *service.ServiceConfig {
	return &service.ServiceConfig{
		Registry: service.RegistryServiceConfig{
			MaxPayloadSize:  c.Registry.MaxPayloadSize,
			EventPageLimit:  c.Registry.EventPageLimit,
			PublishEvents:   c.Registry.PublishEvents,
			LogNotePayloads: c.Registry.LogNotePayloads,
		},
	}
}

// GetPaginationConfig 获取分页配置
func (c *AppConfig) GetPaginationConfig() pkgapp.PaginationConfig {
	return pkgapp.PaginationConfig{
		DefaultPageSize: c.App.DefaultPageSize,
		MaxPageSize:     c.App.MaxPageSize,
	}
}

// GetStatsInterval 统计任务间隔, 配置为空或 0 时返回 0
func (c *AppConfig) GetStatsInterval() time.Duration {
	return util.DurationOr(c.Registry.StatsInterval, 0)
}
