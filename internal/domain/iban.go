package domain

import (
	"strings"
)

// ValidateIBAN normalizes an IBAN (spaces removed, upper case) and checks its
// structure and ISO 13616 mod-97 check digits.
func ValidateIBAN(raw string) (string, error) {
	iban := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return "", Errorf(ErrInvalidIBAN, "invalid IBAN length: %d", len(iban))
	}
	for i, r := range iban {
		switch {
		case i < 2 && (r < 'A' || r > 'Z'):
			return "", Errorf(ErrInvalidIBAN, "IBAN must start with a country code")
		case i >= 2 && i < 4 && (r < '0' || r > '9'):
			return "", Errorf(ErrInvalidIBAN, "IBAN check digits must be numeric")
		case (r < '0' || r > '9') && (r < 'A' || r > 'Z'):
			return "", Errorf(ErrInvalidIBAN, "IBAN contains invalid character %q", r)
		}
	}

	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		if r >= 'A' {
			v := int(r-'A') + 10
			remainder = (remainder*100 + v) % 97
		} else {
			remainder = (remainder*10 + int(r-'0')) % 97
		}
	}
	if remainder != 1 {
		return "", Errorf(ErrInvalidIBAN, "IBAN checksum mismatch")
	}
	return iban, nil
}
