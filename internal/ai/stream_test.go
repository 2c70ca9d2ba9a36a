package ai

import (
	"errors"
	"strings"
	"testing"
)

func TestConsoleSink(t *testing.T) {
	t.Run("tokens are written incrementally and accumulated", func(t *testing.T) {
		var out strings.Builder
		sink := NewConsoleSink(&out)

		sink.Start()
		sink.Token("Hel")

		if out.String() != "Hel" {
			t.Errorf("Expected 'Hel' written after first token, got '%s'", out.String())
		}
		if sink.Text() != "Hel" {
			t.Errorf("Expected accumulated text 'Hel', got '%s'", sink.Text())
		}

		sink.Token("lo")

		if out.String() != "Hello" {
			t.Errorf("Expected 'Hello' written after second token, got '%s'", out.String())
		}
		if sink.Text() != "Hello" {
			t.Errorf("Expected accumulated text 'Hello', got '%s'", sink.Text())
		}
	})

	t.Run("Start resets accumulated text", func(t *testing.T) {
		var out strings.Builder
		sink := NewConsoleSink(&out)

		sink.Start()
		sink.Token("first answer")
		sink.Start()
		sink.Token("second")

		if sink.Text() != "second" {
			t.Errorf("Expected accumulated text 'second' after restart, got '%s'", sink.Text())
		}
	})

	t.Run("Error writes a visible message", func(t *testing.T) {
		var out strings.Builder
		sink := NewConsoleSink(&out)

		sink.Start()
		sink.Error(errors.New("upstream unavailable"))

		if !strings.Contains(out.String(), "upstream unavailable") {
			t.Errorf("Expected error message in output, got '%s'", out.String())
		}
	})
}

func TestNullSink(t *testing.T) {
	var _ TokenSink = NullSink{}

	// All methods are no-ops; none may panic.
	sink := NullSink{}
	sink.Start()
	sink.Token("ignored")
	sink.Error(errors.New("ignored"))
}
