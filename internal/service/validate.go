package service

import (
	"errors"
	"net/url"
	"strings"

	"mvdan.cc/xurls/v2"

	"newsbrief/internal/domain"
)

const (
	MessageEmptyURL   = "Please enter a valid URL."
	MessageInvalidURL = "Invalid URL format."
)

var strictURLRe = xurls.Strict()

// xurls leaves trailing punctuation out of a match; a URL may still end in it.
const trailingPunctuation = `.,:;!?'"`

// ValidateURL returns the trimmed URL, or a validation error when raw is not a
// single absolute http(s) URL with a host.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.ValidationError(errors.New(MessageEmptyURL))
	}

	loc := strictURLRe.FindStringIndex(raw)
	if loc == nil || loc[0] != 0 || strings.Trim(raw[loc[1]:], trailingPunctuation) != "" {
		return "", domain.ValidationError(errors.New(MessageInvalidURL))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", domain.ValidationError(errors.New(MessageInvalidURL))
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", domain.ValidationError(errors.New(MessageInvalidURL))
	}

	if u.Hostname() == "" {
		return "", domain.ValidationError(errors.New(MessageInvalidURL))
	}

	return raw, nil
}
