// Package phone canonicalizes free-form phone input to E.164. The strict form
// reports validity; the fallback form never fails, because outbound SMS must
// be attempted even for numbers the validator rejects.
package phone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrUnparsable = errors.New("phone: unparsable number")

type Result struct {
	Value       string
	Valid       bool
	CountryCode int
	Err         error
}

// Normalize cleans raw input and validates it against defaultRegion
// (ISO 3166-1 alpha-2, e.g. "PL"). On success Value is E.164. On parse
// failure it retries once with a forced "+" prefix before giving up.
func Normalize(raw, defaultRegion string) Result {
	cleaned := cleanup(raw)
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))

	if res, ok := tryParse(cleaned, region); ok {
		return res
	}
	if !strings.HasPrefix(cleaned, "+") {
		if res, ok := tryParse("+"+cleaned, region); ok {
			return res
		}
	}
	return Result{Value: cleaned, Err: fmt.Errorf("%w: %q", ErrUnparsable, raw)}
}

// NormalizeOrFallback applies the same cleanup plus digit-count heuristics and
// always returns a "+"-prefixed string, valid or not. Callers that need
// certainty use Normalize and treat Valid=false as a hard error.
func NormalizeOrFallback(raw, defaultRegion string) string {
	if res := Normalize(raw, defaultRegion); res.Valid {
		return res.Value
	}

	cleaned := cleanup(raw)
	digits := digitsOnly(cleaned)
	if digits == "" {
		return strings.TrimSpace(raw)
	}

	// 9 digits: assume a domestic number for the default region.
	if len(digits) == 9 {
		if cc := phonenumbers.GetCountryCodeForRegion(strings.ToUpper(defaultRegion)); cc > 0 {
			return "+" + strconv.Itoa(cc) + digits
		}
	}

	// 11+ digits starting with a known calling code: assume it is already
	// international and only lost its plus sign.
	if len(digits) >= 11 && knownCallingCodePrefix(digits) {
		return "+" + digits
	}

	return "+" + digits
}

func tryParse(s, region string) (Result, bool) {
	num, err := phonenumbers.Parse(s, region)
	if err != nil {
		return Result{}, false
	}
	if !phonenumbers.IsValidNumber(num) {
		return Result{}, false
	}
	return Result{
		Value:       phonenumbers.Format(num, phonenumbers.E164),
		Valid:       true,
		CountryCode: int(num.GetCountryCode()),
	}, true
}

// cleanup strips formatting characters, rewrites the 00 international prefix
// to "+", repairs the Polish double-prefix data-entry error and drops a trunk
// zero left after a recognized country code.
func cleanup(raw string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if strings.HasPrefix(s, "+00") {
		s = "+" + s[3:]
	} else if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	s = repairPolishDoublePrefix(s)
	s = stripTrunkZero(s)
	return s
}

// repairPolishDoublePrefix turns "+4848xxxxxxxxx" into "+48xxxxxxxxx". The
// repair is deliberately PL-only: a doubled 48 with nine national digits left
// over cannot be a valid number, which is not true of other calling codes.
func repairPolishDoublePrefix(s string) string {
	if strings.HasPrefix(s, "+4848") && len(digitsOnly(s)) == 13 {
		return "+48" + s[5:]
	}
	return s
}

// stripTrunkZero removes a national trunk "0" immediately following a
// recognized country code, e.g. "+490171..." -> "+49171...".
func stripTrunkZero(s string) string {
	if !strings.HasPrefix(s, "+") {
		return s
	}
	rest := s[1:]
	for l := 1; l <= 3 && l < len(rest); l++ {
		cc, err := strconv.Atoi(rest[:l])
		if err != nil {
			return s
		}
		if phonenumbers.GetRegionCodeForCountryCode(cc) == "ZZ" {
			continue
		}
		if rest[l] == '0' {
			return "+" + rest[:l] + rest[l+1:]
		}
		return s
	}
	return s
}

func knownCallingCodePrefix(digits string) bool {
	for l := 1; l <= 3 && l <= len(digits); l++ {
		cc, err := strconv.Atoi(digits[:l])
		if err != nil {
			return false
		}
		if phonenumbers.GetRegionCodeForCountryCode(cc) != "ZZ" {
			return true
		}
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
