package core

// Text helpers for console output. The firmware does not link fmt.

// itoa converts an integer to a string
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// Itoa is the exported form of itoa for the console and targets
func Itoa(n int) string {
	return itoa(n)
}

// Utoa is the exported form of utoa
func Utoa(n uint32) string {
	return utoa(n)
}

const hexDigits = "0123456789ABCDEF"

// Hex formats n in upper-case hex, zero padded to width digits
func Hex(n uint32, width int) string {
	var buf [8]byte
	pos := len(buf)
	for n > 0 || pos > len(buf)-width {
		if pos == 0 {
			break
		}
		pos--
		buf[pos] = hexDigits[n&0xF]
		n >>= 4
	}
	if pos == len(buf) {
		return "0"
	}
	return string(buf[pos:])
}

// ParseHexDigit returns the value of one hex digit, either case
func ParseHexDigit(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// PadRight pads s with spaces to width, like printf's %-16s
func PadRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

// PadLeft pads s with spaces to width, like printf's %4d
func PadLeft(s string, width int) string {
	for len(s) < width {
		s = " " + s
	}
	return s
}
