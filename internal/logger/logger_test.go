package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		service   string
		debug     bool
		wantLevel zapcore.Level
	}{
		{name: "info by default", service: "sparkreply-api", wantLevel: zapcore.InfoLevel},
		{name: "debug mode", service: "sparkreply-worker", debug: true, wantLevel: zapcore.DebugLevel},
		{name: "no service", wantLevel: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Config(tt.service, tt.debug)
			if got := cfg.Level.Level(); got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}
			if cfg.Encoding != "json" {
				t.Errorf("encoding = %q, want json", cfg.Encoding)
			}
			if cfg.EncoderConfig.TimeKey != "ts" {
				t.Errorf("time key = %q, want ts", cfg.EncoderConfig.TimeKey)
			}
			got, ok := cfg.InitialFields["service"]
			if tt.service == "" {
				if ok {
					t.Errorf("unexpected service field %v", got)
				}
				return
			}
			if got != tt.service {
				t.Errorf("service field = %v, want %q", got, tt.service)
			}
		})
	}
}

func TestSyncNil(t *testing.T) {
	t.Parallel()

	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) = %v", err)
	}
}
