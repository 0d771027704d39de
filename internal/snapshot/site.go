package snapshot

import "strings"

// Site holds every record that shares one proxy name.
type Site struct {
	name      string
	Frontends []*Record
	Backends  []*Record
	Servers   []*Record
}

// NewSite returns an empty site for the given proxy name.
func NewSite(name string) *Site {
	return &Site{name: name}
}

// Name returns the exact proxy name.
func (s *Site) Name() string {
	return s.name
}

// SiteName returns the proxy name up to the first group separator.
func (s *Site) SiteName() string {
	site, _, _ := strings.Cut(s.name, GroupSeparator)
	return site
}

// Group returns the part of the proxy name after the first group separator,
// or "" when the name has none.
func (s *Site) Group() string {
	_, group, _ := strings.Cut(s.name, GroupSeparator)
	return group
}

// Add routes r to the frontend, backend or server list by its svname.
func (s *Site) Add(r *Record) {
	switch {
	case r.IsFrontend():
		s.Frontends = append(s.Frontends, r)
	case r.IsBackend():
		s.Backends = append(s.Backends, r)
	default:
		s.Servers = append(s.Servers, r)
	}
}
