// Package payment holds gateway independent payment helpers.
package payment

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned for numbers that are not Tanzanian mobile numbers.
var ErrInvalidPhone = errors.New("phone must be a Tanzanian mobile number like 0712345678")

var localMobile = regexp.MustCompile(`^0[67][0-9]{8}$`)

// NormalizePhone converts +255XXXXXXXXX, 255XXXXXXXXX and 0XXXXXXXXX forms into the
// ten digit local format expected by the gateway. Spaces and dashes are ignored.
func NormalizePhone(raw string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(p, "+255"):
		p = "0" + p[4:]
	case strings.HasPrefix(p, "255") && len(p) == 12:
		p = "0" + p[3:]
	}
	if !localMobile.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return p, nil
}
