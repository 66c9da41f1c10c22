package validation

import (
	"regexp"
	"strconv"
	"strings"
)

// Pure validation helpers shared by the NLU boundary and the slot-filling
// merge. No I/O, no state.

// Cameroonian mobile numbers: 9 digits starting with 6. The +237 country
// prefix and spacing are tolerated and stripped before matching.
var phonePattern = regexp.MustCompile(`^6\d{8}$`)

// NormalizePhone strips the +237 prefix and spaces.
func NormalizePhone(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.TrimPrefix(phone, "+237")
	return phone
}

// ValidPhone reports whether phone is a well-formed Cameroonian number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// ValidAmount reports whether amount parses to a strictly positive number.
func ValidAmount(amount string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	return err == nil && v > 0
}

// ValidAge reports whether age parses to an integer in [18, 120].
func ValidAge(age string) bool {
	v, err := strconv.Atoi(strings.TrimSpace(age))
	return err == nil && v >= 18 && v <= 120
}

var acceptedSexes = map[string]bool{
	"M": true, "F": true,
	"MALE": true, "FEMALE": true,
	"HOMME": true, "FEMME": true,
}

// ValidSex reports whether sex is one of the accepted markers.
func ValidSex(sex string) bool {
	return acceptedSexes[strings.ToUpper(strings.TrimSpace(sex))]
}

// MissingParams returns the required keys that are absent, or present with an
// empty value, in provided. Order follows required.
func MissingParams(required []string, provided map[string]string) []string {
	missing := make([]string, 0, len(required))
	for _, key := range required {
		if v, ok := provided[key]; !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
