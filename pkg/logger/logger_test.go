package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"debug json", "debug", "json", logrus.DebugLevel, true},
		{"warn text", "WARN", "text", logrus.WarnLevel, false},
		{"unknown level", "loud", "", logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level, tt.format)

			if log.GetLevel() != tt.wantLevel {
				t.Errorf("Expected level %v, got %v", tt.wantLevel, log.GetLevel())
			}

			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			if isJSON != tt.wantJSON {
				t.Errorf("Expected JSON formatter %v, got %T", tt.wantJSON, log.Formatter)
			}
		})
	}
}
