package samd

import (
	"testing"
)

func TestDivisorLinearRoundTrip(t *testing.T) {
	for d := 1; d <= 255; d++ {
		div, divsel := EncodeDivisor(uint16(d))
		if divsel {
			t.Errorf("DIVSEL for %d, got: true, want: false", d)
		}
		if div != uint16(d) {
			t.Errorf("DIV for %d, got: %d, want: %d", d, div, d)
		}
		if e := EffectiveDivisor(div, divsel); e != uint32(d) {
			t.Errorf("Effective divisor for %d, got: %d, want: %d", d, e, d)
		}
	}
}

func TestDivisorZeroIsOne(t *testing.T) {
	if e := EffectiveDivisor(0, false); e != 1 {
		t.Errorf("Effective divisor of 0, got: %d, want: 1", e)
	}
}

func TestDivisorPowersOfTwo(t *testing.T) {
	for d := uint32(256); d <= 32768; d <<= 1 {
		div, divsel := EncodeDivisor(uint16(d))
		if !divsel {
			t.Errorf("DIVSEL for %d, got: false, want: true", d)
		}
		if e := EffectiveDivisor(div, divsel); e != d {
			t.Errorf("Effective divisor for %d, got: %d, want: %d", d, e, d)
		}
	}
}

func TestDivisorRoundsDown(t *testing.T) {
	tests := []struct {
		divisor uint16
		div     uint16
		want    uint32
	}{
		{257, 7, 256},
		{300, 7, 256},
		{511, 7, 256},
		{1000, 8, 512},
		{20000, 13, 16384},
		{0xffff, 14, 32768},
	}
	for _, tt := range tests {
		div, divsel := EncodeDivisor(tt.divisor)
		if !divsel || div != tt.div {
			t.Errorf("Encoding of %d, got: %d/%v, want: %d/true", tt.divisor, div, divsel, tt.div)
		}
		if e := EffectiveDivisor(div, divsel); e != tt.want {
			t.Errorf("Effective divisor for %d, got: %d, want: %d", tt.divisor, e, tt.want)
		}
	}
}

func TestFitsGenerator(t *testing.T) {
	tests := []struct {
		g       uint8
		divisor uint16
		want    bool
	}{
		{0, 255, true},
		{0, 256, false},
		{GCLK_DIV_16BIT_GEN, 256, true},
		{GCLK_DIV_16BIT_GEN, 0xffff, true},
		{11, 1000, false},
	}
	for _, tt := range tests {
		if got := fitsGenerator(tt.g, tt.divisor); got != tt.want {
			t.Errorf("fitsGenerator(%d, %d), got: %v, want: %v", tt.g, tt.divisor, got, tt.want)
		}
	}
}
