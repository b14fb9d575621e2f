package hal

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func testBoard() (*Board, map[string]*gpiotest.Pin) {
	pins := map[string]*gpiotest.Pin{
		"GPIO66": {N: "GPIO66", Num: 66, L: gpio.High},
		"GPIO69": {N: "GPIO69", Num: 69},
		"GPIO44": {N: "GPIO44", Num: 44},
	}
	aliases := map[string]string{"P8_7": "GPIO66", "P8_9": "GPIO69", "P8_12": "GPIO44"}

	return NewBoard(func(name string) gpio.PinIO {
		if real, ok := aliases[name]; ok {
			name = real
		}
		if p, ok := pins[name]; ok {
			return p
		}
		return nil
	}), pins
}

func TestBoard_OutputDrivesLow(t *testing.T) {
	b, pins := testBoard()

	if _, err := b.Output("P8_7"); err != nil {
		t.Fatalf("Output(P8_7) error: %v", err)
	}
	if got := pins["GPIO66"].Read(); got != gpio.Low {
		t.Errorf("GPIO66 level = %v, want Low", got)
	}
	if !b.Claimed("GPIO66") {
		t.Error("GPIO66 should be claimed")
	}
}

func TestBoard_InputPullUp(t *testing.T) {
	b, pins := testBoard()

	if _, err := b.Input("P8_12", gpio.PullUp); err != nil {
		t.Fatalf("Input(P8_12) error: %v", err)
	}
	if got := pins["GPIO44"].P; got != gpio.PullUp {
		t.Errorf("GPIO44 pull = %v, want PullUp", got)
	}
}

func TestBoard_SecondClaimRejected(t *testing.T) {
	b, _ := testBoard()

	if _, err := b.Output("P8_7"); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	tests := []string{"P8_7", "GPIO66"}
	for _, name := range tests {
		if _, err := b.Input(name, gpio.PullUp); !errors.Is(err, ErrPinClaimed) {
			t.Errorf("Input(%s) error = %v, want ErrPinClaimed", name, err)
		}
	}
}

func TestBoard_UnknownPin(t *testing.T) {
	b, _ := testBoard()

	if _, err := b.Output("P9_99"); !errors.Is(err, ErrUnknownPin) {
		t.Errorf("Output(P9_99) error = %v, want ErrUnknownPin", err)
	}
	if b.Claimed("P9_99") {
		t.Error("unknown pin reported as claimed")
	}
}

func TestBoard_Release(t *testing.T) {
	b, _ := testBoard()

	if _, err := b.Output("P8_9"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	b.Release("P8_9")
	if b.Claimed("P8_9") {
		t.Fatal("P8_9 still claimed after Release")
	}
	if _, err := b.Output("P8_9"); err != nil {
		t.Errorf("reclaim after Release: %v", err)
	}
}
