package pii

import "strings"

// digitsOf strips separators and returns only the decimal digits of s.
func digitsOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validCardNumber checks length and the Luhn checksum over the digits.
func validCardNumber(match string) bool {
	digits := digitsOf(match)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// validSSN rejects area/group/serial values the SSA never issues.
func validSSN(match string) bool {
	digits := digitsOf(match)
	if len(digits) != 9 {
		return false
	}
	area, group, serial := digits[:3], digits[3:5], digits[5:]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}

// validEmailDomain requires a dotted domain with an alphabetic TLD.
func validEmailDomain(match string) bool {
	at := strings.LastIndexByte(match, '@')
	if at < 1 {
		return false
	}
	domain := match[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	for _, r := range domain[dot+1:] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// validPhoneDigits accepts national and E.164-length digit counts.
func validPhoneDigits(match string) bool {
	n := len(digitsOf(match))
	return n >= 10 && n <= 15
}

// validIPv4Octets checks every dotted-quad octet is in range.
func validIPv4Octets(match string) bool {
	for _, part := range strings.Split(match, ".") {
		if len(part) == 0 || len(part) > 3 {
			return false
		}
		if len(part) > 1 && part[0] == '0' {
			return false
		}
		value := 0
		for _, r := range part {
			value = value*10 + int(r-'0')
		}
		if value > 255 {
			return false
		}
	}
	return true
}
