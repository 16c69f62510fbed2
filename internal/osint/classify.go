package osint

import (
	"regexp"
	"strings"
)

type Kind int

const (
	KindUsername Kind = iota
	KindPhone
	KindEmail
	KindPublicIP
	KindDomain
)

func (k Kind) String() string {
	switch k {
	case KindPhone:
		return "phone"
	case KindEmail:
		return "email"
	case KindPublicIP:
		return "public_ip"
	case KindDomain:
		return "domain"
	default:
		return "username"
	}
}

// Label is the bracketed heading shown above a result.
func (k Kind) Label() string {
	switch k {
	case KindPhone:
		return "PHONE SEARCH"
	case KindEmail:
		return "EMAIL SEARCH"
	case KindPublicIP:
		return "PUBLIC IP"
	case KindDomain:
		return "DOMAIN SEARCH"
	default:
		return "USERNAME SEARCH"
	}
}

// Title keys the result in an exported report.
func (k Kind) Title() string {
	switch k {
	case KindPhone:
		return "Phone Lookup"
	case KindEmail:
		return "Email Lookup"
	case KindPublicIP:
		return "Public IP"
	case KindDomain:
		return "Domain Info"
	default:
		return "Username Search"
	}
}

// Classify routes input by its shape. Order matters: a phone number may
// contain dots, and an email always does.
func Classify(input string) Kind {
	in := strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(strings.ReplaceAll(in, " ", ""), "+"):
		return KindPhone
	case strings.Contains(in, "@"):
		return KindEmail
	case strings.EqualFold(in, "my ip"):
		return KindPublicIP
	case strings.Contains(in, "."):
		return KindDomain
	default:
		return KindUsername
	}
}

var emailRegex = regexp.MustCompile(`[\w.-]+@[\w.-]+`)

// ExtractEmails returns every email-shaped token in text.
func ExtractEmails(text string) []string {
	return emailRegex.FindAllString(text, -1)
}
