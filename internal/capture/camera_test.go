package capture

import (
	"errors"
	"testing"
)

func TestNewCamera(t *testing.T) {
	c := NewCamera(0)
	if c == nil {
		t.Fatal("NewCamera returned nil")
	}

	if c.IsOpen() {
		t.Error("camera should not be open before Open()")
	}

	if c.FPS() != DefaultFPS {
		t.Errorf("FPS() = %d, want default %d", c.FPS(), DefaultFPS)
	}
}

func TestCamera_ReadFrame_NotOpen(t *testing.T) {
	c := NewCamera(0)

	_, err := c.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_ReadAveraged_NotOpen(t *testing.T) {
	c := NewCamera(0)

	_, err := c.ReadAveraged(3)
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadAveraged() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_SetFPS(t *testing.T) {
	tests := []struct {
		name string
		fps  int
		want int
	}{
		{"positive value", 15, 15},
		{"zero ignored", 0, DefaultFPS},
		{"negative ignored", -5, DefaultFPS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCamera(0)
			c.SetFPS(tt.fps)
			if got := c.FPS(); got != tt.want {
				t.Errorf("FPS() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCamera_Close_NotOpen(t *testing.T) {
	c := NewCamera(0)

	// Closing an unopened camera should be a no-op.
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
