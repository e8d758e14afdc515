package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	base := Fields{"b": 2, "a": "x"}
	withPrefix := base.WithPrefix("server:echo")
	derived := withPrefix.With("remote", "1.2.3.4:5")

	assert.Equal(t, "a=x b=2", base.String())
	assert.Equal(t, "[server:echo] a=x b=2", withPrefix.String())
	assert.Equal(t, "[server:echo] a=x b=2 remote=1.2.3.4:5", derived.String())
	assert.Equal(t, "server:echo", derived.Prefix())
	assert.Empty(t, base.Prefix())
	// 派生不影响原来的
	assert.Len(t, base, 2)
	assert.Len(t, withPrefix, 3)

	merged := MergeFields(base, Fields{"a": "y"}, Fields{"c": true})
	assert.Equal(t, "a=y b=2 c=true", merged.String())
	assert.Equal(t, "x", base["a"])
}

func TestFieldsPrepend(t *testing.T) {
	assert.Equal(t, "hello %d", Fields{}.prepend("hello %d"))
	assert.Equal(t, "[s] zone=fe80::1%%eth0 hello", Fields{"zone": "fe80::1%eth0"}.WithPrefix("s").prepend("hello"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARN ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestOutTypeAlias(t *testing.T) {
	assert.Equal(t, ConsoleOut, OutTypeAlias(""))
	assert.Equal(t, ConsoleOut|NormalOut, OutTypeAlias("console|file"))
	assert.Equal(t, ErrorFileOut, OutTypeAlias("Error"))
}
