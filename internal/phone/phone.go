package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number is written without a country prefix.
const DefaultRegion = "AU"

// ErrInvalidNumber is returned for input that does not parse to a valid number.
var ErrInvalidNumber = errors.New("invalid phone number")

// Normalize parses raw in the given region and returns it in E.164 form.
// Numbers already carrying a + prefix ignore the region.
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidNumber
	}
	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// NormalizeOptional is Normalize for fields that may be left blank.
func NormalizeOptional(raw, region string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return Normalize(raw, region)
}
