package log

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Fields 附加在日志前面的上下文，如 [session:3] remote=1.2.3.4:5
// 创建后只读，派生新的Fields不影响原来的
type Fields map[string]any

const (
	prefixKey = "__prefix__"
)

func (f Fields) String() string {
	keys := lo.Filter(lo.Keys(f), func(k string, _ int) bool {
		return k != prefixKey
	})
	sort.Strings(keys)
	str := make([]string, 0, len(keys)+1)
	if prefix := f.Prefix(); prefix != "" {
		str = append(str, "["+prefix+"]")
	}
	for _, k := range keys {
		str = append(str, fmt.Sprintf("%s=%+v", k, f[k]))
	}
	return strings.Join(str, " ")
}

func (f Fields) prepend(format string) string {
	if len(f) == 0 {
		return format
	}
	// 字段里的%不能被当成格式符
	return strings.ReplaceAll(f.String(), "%", "%%") + " " + format
}

func (f Fields) WithPrefix(prefix string) Fields {
	return MergeFields(f, Fields{prefixKey: prefix})
}

// With 派生一个带额外字段的Fields
func (f Fields) With(key string, value any) Fields {
	return MergeFields(f, Fields{key: value})
}

// MergeFields 合并，结果不影响原来的数据
func MergeFields(f Fields, fields ...Fields) Fields {
	all := make(Fields, len(f))
	for k, v := range f {
		all[k] = v
	}
	for _, field := range fields {
		for k, v := range field {
			all[k] = v
		}
	}
	return all
}

func (f Fields) Prefix() string {
	prefix, ok := f[prefixKey]
	if ok {
		return prefix.(string)
	}
	return ""
}

func (f Fields) Debug(format string, a ...any) {
	Debug(f.prepend(format), a...)
}

func (f Fields) Info(format string, a ...any) {
	Info(f.prepend(format), a...)
}

func (f Fields) Warn(format string, a ...any) {
	Warn(f.prepend(format), a...)
}

func (f Fields) Error(format string, a ...any) {
	Error(f.prepend(format), a...)
}
