package log

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type (
	Level   string
	OutType int
)

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"

	infoFileOutName  = "netcore"
	errorFileOutName = "error"
	panicFileOutName = "panic"

	// ConsoleOut 控制台输出
	ConsoleOut OutType = 1
	// InfoFileOut 一般日志
	InfoFileOut OutType = 2
	// ErrorFileOut 错误日志，只包含warn以上
	ErrorFileOut OutType = 4

	// NormalOut 文件输出
	NormalOut = InfoFileOut | ErrorFileOut
)

var (
	// Builder 初始化Logger的builder，只生效一次
	Builder      = &builder{logger: &loggerProxy{}}
	levelMapping = map[Level]zapcore.Level{
		LevelDebug: zap.DebugLevel,
		LevelInfo:  zap.InfoLevel,
		LevelWarn:  zap.WarnLevel,
		LevelError: zap.ErrorLevel,
	}
	aliasMap = map[string]OutType{
		"console": ConsoleOut,
		"file":    NormalOut,
		"info":    InfoFileOut,
		"error":   ErrorFileOut,
	}
	proxy *loggerProxy
	once  sync.Once
)

// OutTypeAlias 文本配置的输出类型，用|分割，如 "console|file"
func OutTypeAlias(name string) OutType {
	names := strings.Split(strings.ToLower(name), "|")
	var r OutType
	for _, s := range names {
		r |= aliasMap[strings.TrimSpace(s)]
	}
	return lo.Ternary(r == 0, ConsoleOut, r)
}

// ParseLevel 不认识的level一律当作info
func ParseLevel(level string) Level {
	l := Level(strings.ToLower(strings.TrimSpace(level)))
	if _, ok := levelMapping[l]; ok {
		return l
	}
	if l == "warning" {
		return LevelWarn
	}
	return LevelInfo
}

type config struct {
	name         string
	path         string
	level        Level
	out          OutType
	maxSize      int //单位Mb，默认100
	maxAge       int //单位天，默认无限
	maxBackUps   int //最大保留旧日志个数，默认无限
	enableRotate bool
}

type loggerProxy struct {
	config
	zapLevel zap.AtomicLevel
	logger   atomic.Value
	dLogger  *zap.SugaredLogger
	nLogger  *zap.SugaredLogger
}

// changeLevel debug模式下使用带caller的logger
func (lp *loggerProxy) changeLevel(level Level) {
	lp.zapLevel.SetLevel(levelMapping[level])
	if level == LevelDebug {
		lp.logger.Store(lp.dLogger)
	} else {
		lp.logger.Store(lp.nLogger)
	}
}

// ChangeLogLevel 运行时切换日志级别
func ChangeLogLevel(level Level) {
	proxy.changeLevel(level)
}

// IsDebugEnabled 是否打开了debug
func IsDebugEnabled() bool {
	return proxy.zapLevel.Enabled(zapcore.DebugLevel)
}

type builder struct {
	logger *loggerProxy
}

func (b *builder) Name(name string) *builder {
	b.logger.name = name
	return b
}

// Path 日志文件路径
func (b *builder) Path(path string) *builder {
	b.logger.path = path
	return b
}

func (b *builder) Level(level Level) *builder {
	b.logger.level = level
	return b
}

func (b *builder) OutType(out OutType) *builder {
	if out <= 0 {
		out = ConsoleOut
	}
	b.logger.out = out
	return b
}

func (b *builder) MaxSize(size int) *builder {
	b.logger.maxSize = size
	return b
}

func (b *builder) MaxAge(age int) *builder {
	b.logger.maxAge = age
	return b
}

func (b *builder) MaxBackUps(count int) *builder {
	b.logger.maxBackUps = count
	return b
}

func (b *builder) EnableRotate(enable bool) *builder {
	b.logger.enableRotate = enable
	return b
}

func (b *builder) fileName(suffix string) string {
	if b.logger.name == "" {
		return suffix + ".log"
	}
	return b.logger.name + "-" + suffix + ".log"
}

func (b *builder) Build() {
	once.Do(func() {
		p := b.logger
		if p.out == 0 {
			p.out = ConsoleOut
		}
		if p.out&NormalOut > 0 && p.path == "" {
			p.path = "./log"
		}
		if p.path != "" {
			if !exists(p.path) && os.MkdirAll(p.path, 0755) != nil {
				panic("fail to create log directory")
			}
		}
		if p.out&NormalOut > 0 {
			// 将runtime的panic输出重定向到文件，否则只会打到stderr
			if err := redirectStderr(filepath.Join(p.path, b.fileName(panicFileOutName))); err != nil {
				panic("fail to redirect panic log to file:" + err.Error())
			}
		}
		if p.level == "" {
			p.level = LevelDebug
		}
		p.zapLevel = zap.NewAtomicLevelAt(levelMapping[p.level])
		hp := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.WarnLevel
		})
		all := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return p.zapLevel.Enabled(lvl)
		})
		encoder := zapcore.NewConsoleEncoder(getEncodeConf())
		cores := make([]zapcore.Core, 0, 3)
		if p.out&ConsoleOut > 0 {
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), all))
		}
		if p.out&InfoFileOut > 0 {
			filename := lo.Ternary(p.name == "", infoFileOutName, p.name) + ".log"
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(b.getWriter(filename)), all))
		}
		if p.out&ErrorFileOut > 0 {
			cores = append(cores, zapcore.NewCore(encoder,
				zapcore.AddSync(b.getWriter(b.fileName(errorFileOutName))), hp))
		}
		lg := zap.New(zapcore.NewTee(cores...))
		p.logger = atomic.Value{}
		p.nLogger = lg.Sugar()
		p.dLogger = lg.WithOptions(zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
		p.changeLevel(p.level)
		proxy = p
	})
}

func getEncodeConf() zapcore.EncoderConfig {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = timeEncoder
	return encoderCfg
}

// 判断所给路径文件/文件夹是否存在
func exists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02T15:04:05.000Z07:00"))
}

func (b *builder) getWriter(name string) io.Writer {
	fullName := filepath.Join(b.logger.path, name)
	if !b.logger.enableRotate {
		f, err := os.OpenFile(fullName, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
		if err != nil {
			panic("fail to open log file")
		}
		return f
	}
	return &lumberjack.Logger{
		Filename:   fullName,
		MaxSize:    b.logger.maxSize,
		MaxAge:     b.logger.maxAge,
		MaxBackups: b.logger.maxBackUps,
	}
}

func sugar() *zap.SugaredLogger {
	return proxy.logger.Load().(*zap.SugaredLogger)
}

// Debug 调试模式下打印caller
func Debug(format string, a ...any) {
	sugar().Debugf(format, a...)
}

func Info(format string, a ...any) {
	sugar().Infof(format, a...)
}

func Warn(format string, a ...any) {
	sugar().Warnf(format, a...)
}

func Error(format string, a ...any) {
	sugar().Errorf(format, a...)
}

func Fatal(format string, a ...any) {
	sugar().Fatalf(format, a...)
}

// PanicStack 从panic中恢复并打印日志
// 注意recover必须在当前函数调用
func PanicStack(prefix string, r any) {
	buf := make([]byte, 4096)
	l := runtime.Stack(buf, false)
	Error("%s: %v-> %s", prefix, r, buf[:l])
}

func Flush() {
	if proxy.dLogger != nil {
		_ = proxy.dLogger.Sync()
	}
	if proxy.nLogger != nil {
		_ = proxy.nLogger.Sync()
	}
}

func init() {
	// 默认只输出到控制台，方便测试
	proxy = &loggerProxy{}
	proxy.zapLevel = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	all := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return proxy.zapLevel.Enabled(lvl)
	})
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(getEncodeConf()), zapcore.AddSync(os.Stdout), all)
	lg := zap.New(core)
	proxy.nLogger = lg.Sugar()
	proxy.dLogger = lg.WithOptions(zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	proxy.logger = atomic.Value{}
	proxy.logger.Store(proxy.dLogger)
}
