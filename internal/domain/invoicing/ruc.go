package invoicing

// rucWeights is the SUNAT weight vector applied to the first ten digits
// of a RUC when computing its check digit.
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateRUC reports whether ruc is a structurally valid Peruvian taxpayer
// ID: exactly 11 ASCII digits whose last digit matches the modulo-11
// checksum of the first ten. Malformed input yields false, never an error.
func ValidateRUC(ruc string) bool {
	if len(ruc) != 11 {
		return false
	}

	var digits [11]int
	for i := 0; i < 11; i++ {
		c := ruc[i]
		if c < '0' || c > '9' {
			return false
		}
		digits[i] = int(c - '0')
	}

	sum := 0
	for i, w := range rucWeights {
		sum += digits[i] * w
	}

	remainder := sum % 11
	checkDigit := 0
	if remainder >= 2 {
		checkDigit = 11 - remainder
	}

	return checkDigit == digits[10]
}
