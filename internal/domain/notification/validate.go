package notification

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRe matches a standard local-part@domain address. Intentionally
// permissive on the local part; strict delivery validation belongs to the
// transport.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks that an address is a plausible email recipient.
func ValidateEmail(address string) error {
	if !emailRe.MatchString(address) {
		return fmt.Errorf("invalid email address: %s", address)
	}
	return nil
}

// NormalizePhone converts a phone number to canonical E.164 form: an
// optional leading "+" followed by 7–15 digits. Display separators (spaces,
// dashes, dots, parentheses) are tolerated on input and stripped.
//
// E.164 is the single canonical format: both preference intake and dispatch
// validate through this function.
func NormalizePhone(number string) (string, error) {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return "", fmt.Errorf("empty phone number")
	}

	plus := strings.HasPrefix(trimmed, "+")
	if plus {
		trimmed = trimmed[1:]
	}

	var digits strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// separator, drop
		default:
			return "", fmt.Errorf("invalid character %q in phone number", r)
		}
	}

	n := digits.Len()
	if n < 7 || n > 15 {
		return "", fmt.Errorf("phone number must have 7-15 digits, got %d", n)
	}

	if plus {
		return "+" + digits.String(), nil
	}
	return digits.String(), nil
}

// ValidateRecipient checks a recipient against the rules for its channel.
// Push tokens are opaque and only checked for presence.
func ValidateRecipient(channel Channel, recipient string) error {
	switch channel {
	case ChannelEmail:
		return ValidateEmail(recipient)
	case ChannelSMS:
		_, err := NormalizePhone(recipient)
		return err
	case ChannelPush:
		if strings.TrimSpace(recipient) == "" {
			return fmt.Errorf("empty push token")
		}
		return nil
	default:
		return fmt.Errorf("unsupported channel: %s", channel)
	}
}
