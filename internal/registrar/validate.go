package registrar

import (
	"fmt"
	"strings"

	pkgstrings "reseller/pkg/platform/strings"
)

const (
	MinYears       = 1
	MaxYears       = 10
	MinNameservers = 2
	MaxNameservers = 13

	maxDomainLength = 253
	maxLabelLength  = 63
)

var dnsRecordTypes = map[string]struct{}{
	"A": {}, "AAAA": {}, "CNAME": {}, "MX": {}, "TXT": {}, "NS": {}, "SRV": {}, "CAA": {},
}

type validator struct {
	fields []FieldError
}

func (v *validator) add(field, format string, args ...any) {
	v.fields = append(v.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// NormalizeDomain lowercases the name and strips surrounding space and a
// trailing root dot.
func NormalizeDomain(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// ValidateDomain checks hostname syntax for a registrable domain: labels of
// 1-63 letters, digits or inner hyphens, at most 253 characters in total and
// an alphabetic TLD of two or more characters.
func ValidateDomain(name string) error {
	v := &validator{}
	v.domain("domain", name)
	return v.err()
}

func (v *validator) domain(field, name string) {
	name = NormalizeDomain(name)
	if name == "" {
		v.add(field, "is required")
		return
	}
	if len(name) > maxDomainLength {
		v.add(field, "must be at most %d characters", maxDomainLength)
		return
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		v.add(field, "%q must include a TLD", name)
		return
	}
	for _, label := range labels {
		if msg := checkLabel(label); msg != "" {
			v.add(field, "%q: %s", name, msg)
			return
		}
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 || !isAlpha(tld) {
		v.add(field, "%q: TLD must be at least two letters", name)
	}
}

func checkLabel(label string) string {
	if label == "" {
		return "empty label"
	}
	if len(label) > maxLabelLength {
		return fmt.Sprintf("label %q exceeds %d characters", label, maxLabelLength)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Sprintf("label %q starts or ends with a hyphen", label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if !isAlnum(c) && c != '-' {
			return fmt.Sprintf("label %q contains %q", label, c)
		}
	}
	return ""
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

func ValidateYears(years int) error {
	v := &validator{}
	v.years(years)
	return v.err()
}

func (v *validator) years(years int) {
	if years < MinYears || years > MaxYears {
		v.add("years", "must be between %d and %d", MinYears, MaxYears)
	}
}

// NormalizeNameservers trims, lowercases and dedupes the list.
func NormalizeNameservers(ns []string) []string {
	return pkgstrings.UniqueHostnames(ns)
}

// ValidateNameservers requires 2-13 distinct, syntactically valid hostnames.
func ValidateNameservers(ns []string) error {
	v := &validator{}
	v.nameservers(ns)
	return v.err()
}

func (v *validator) nameservers(ns []string) {
	ns = NormalizeNameservers(ns)
	if len(ns) < MinNameservers || len(ns) > MaxNameservers {
		v.add("nameservers", "need between %d and %d, got %d", MinNameservers, MaxNameservers, len(ns))
		return
	}
	for _, n := range ns {
		v.hostname("nameservers", n)
	}
}

func (v *validator) hostname(field, host string) {
	if len(host) > maxDomainLength || !strings.Contains(host, ".") {
		v.add(field, "%q is not a valid hostname", host)
		return
	}
	for _, label := range strings.Split(host, ".") {
		if msg := checkLabel(label); msg != "" {
			v.add(field, "%q: %s", host, msg)
			return
		}
	}
}

// ValidateDNSRecords checks record types and required fields. MX and SRV
// records must carry a priority.
func ValidateDNSRecords(records []DNSRecord) error {
	v := &validator{}
	for i, r := range records {
		field := fmt.Sprintf("records[%d]", i)
		typ := strings.ToUpper(strings.TrimSpace(r.Type))
		if _, ok := dnsRecordTypes[typ]; !ok {
			v.add(field+".type", "unsupported record type %q", r.Type)
		}
		if strings.TrimSpace(r.Name) == "" {
			v.add(field+".name", "is required")
		}
		if strings.TrimSpace(r.Value) == "" {
			v.add(field+".value", "is required")
		}
		if (typ == "MX" || typ == "SRV") && r.Priority == nil {
			v.add(field+".priority", "is required for %s records", typ)
		}
		if r.TTL < 0 {
			v.add(field+".ttl", "must not be negative")
		}
	}
	return v.err()
}

// ValidateContacts requires a registrant with name, email and country.
func ValidateContacts(c Contacts) error {
	v := &validator{}
	v.contacts(c)
	return v.err()
}

func (v *validator) contacts(c Contacts) {
	if c.Registrant == nil {
		v.add("contacts.registrant", "is required")
		return
	}
	r := c.Registrant
	if strings.TrimSpace(r.FirstName) == "" && strings.TrimSpace(r.Organization) == "" {
		v.add("contacts.registrant.name", "first name or organization is required")
	}
	if !strings.Contains(r.Email, "@") {
		v.add("contacts.registrant.email", "is invalid")
	}
	if len(strings.TrimSpace(r.Country)) != 2 {
		v.add("contacts.registrant.country", "must be a two letter code")
	}
}

// ValidateRegister checks every register parameter. Nameservers are optional
// but must be valid when given.
func ValidateRegister(p RegisterParams) error {
	v := &validator{}
	v.domain("domain", p.Domain)
	v.years(p.Years)
	if len(p.Nameservers) > 0 {
		v.nameservers(p.Nameservers)
	}
	v.contacts(p.Contacts)
	return v.err()
}

func ValidateTransfer(domain, authCode string) error {
	v := &validator{}
	v.domain("domain", domain)
	if strings.TrimSpace(authCode) == "" {
		v.add("auth_code", "is required")
	}
	return v.err()
}

func ValidateRenew(domain string, years int) error {
	v := &validator{}
	v.domain("domain", domain)
	v.years(years)
	return v.err()
}

// ValidateTLD accepts a bare extension with or without a leading dot.
func ValidateTLD(tld string) error {
	t := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tld)), ".")
	v := &validator{}
	if t == "" {
		v.add("tld", "is required")
	} else {
		for _, label := range strings.Split(t, ".") {
			if msg := checkLabel(label); msg != "" {
				v.add("tld", "%q: %s", tld, msg)
				break
			}
		}
	}
	return v.err()
}
