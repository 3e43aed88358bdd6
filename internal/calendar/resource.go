package calendar

import "strings"

// DefaultResourceDomain is the domain of Google Workspace resource calendars.
const DefaultResourceDomain = "resource.calendar.google.com"

// Classifier separates human attendees from bookable resources.
//
// An attendee is a resource when the remote service flags it as one, or
// when its address is in one of the configured resource domains. The zero
// value uses DefaultResourceDomain.
type Classifier struct {
	domains []string
}

// NewClassifier returns a Classifier for the given resource domains. With no
// domains, DefaultResourceDomain is used.
func NewClassifier(domains ...string) Classifier {
	if len(domains) == 0 {
		domains = []string{DefaultResourceDomain}
	}
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return Classifier{domains: normalized}
}

// IsResource reports whether a is a resource attendee.
func (c Classifier) IsResource(a Attendee) bool {
	if a.Resource {
		return true
	}
	return c.IsResourceAddress(a.Email)
}

// IsResourceAddress reports whether email belongs to a resource domain.
func (c Classifier) IsResourceAddress(email string) bool {
	email = strings.ToLower(email)
	domains := c.domains
	if domains == nil {
		domains = []string{DefaultResourceDomain}
	}
	for _, d := range domains {
		if strings.HasSuffix(email, "@"+d) {
			return true
		}
	}
	return false
}

// Partition splits attendees into human and resource email lists,
// preserving order.
func (c Classifier) Partition(attendees []Attendee) (humans, resources []string) {
	for _, a := range attendees {
		if c.IsResource(a) {
			resources = append(resources, a.Email)
		} else {
			humans = append(humans, a.Email)
		}
	}
	return humans, resources
}
