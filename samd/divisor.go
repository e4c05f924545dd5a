package samd

// EncodeDivisor returns the GENCTRL.DIV value and DIVSEL bit for divisor.
//
// Divisors up to 255 are written as-is with DIVSEL clear. Larger divisors set
// DIVSEL, making the generator divide by 1<<(DIV+1); DIV is then the position
// of the highest set bit minus one. A divisor above 255 that isn't a power of
// two therefore rounds down to the power of two below it.
func EncodeDivisor(divisor uint16) (div uint16, divsel bool) {
	if divisor <= GCLK_DIV_LINEAR_MAX {
		return divisor, false
	}
	for i := 15; i > 0; i-- {
		if divisor&(1<<uint(i)) != 0 {
			div = uint16(i - 1)
			break
		}
	}
	return div, true
}

// EffectiveDivisor is what the generator divides its source by for a given
// GENCTRL.DIV and DIVSEL. A linear DIV of 0 divides by 1.
func EffectiveDivisor(div uint16, divsel bool) uint32 {
	if divsel {
		return 1 << (uint32(div) + 1)
	}
	if div == 0 {
		return 1
	}
	return uint32(div)
}

// fitsGenerator reports whether generator g can express divisor.
func fitsGenerator(g uint8, divisor uint16) bool {
	if divisor <= GCLK_DIV_LINEAR_MAX {
		return true
	}
	return g == GCLK_DIV_16BIT_GEN
}
