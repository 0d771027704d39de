package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// Well known column names in the stats CSV.
const (
	FieldProxyName  = "pxname"
	FieldServerName = "svname"
	FieldStatus     = "status"
	FieldLastChange = "lastchg"
)

// Distinguished svname values.
const (
	ServerFrontend = "FRONTEND"
	ServerBackend  = "BACKEND"
)

// Status values the engine interprets. Anything else counts as not up.
const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// GroupSeparator splits a proxy name into site name and group.
const GroupSeparator = "__"

// Header is the ordered list of column names from the legend line.
type Header struct {
	names []string
	index map[string]int
}

func newHeader(names []string) *Header {
	h := &Header{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}

	unknown := 0
	for i, name := range names {
		if name == "-" {
			name = fmt.Sprintf("unknown%d", unknown)
			unknown++
		}
		h.names[i] = name
		if _, exists := h.index[name]; !exists {
			h.index[name] = i
		}
	}

	return h
}

// Names returns the column names in header order.
func (h *Header) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Len returns the number of columns.
func (h *Header) Len() int {
	return len(h.names)
}

// Has reports whether the header contains the named column.
func (h *Header) Has(name string) bool {
	_, ok := h.index[name]
	return ok
}

// Record is one data row of the snapshot.
type Record struct {
	header *Header
	values []string
}

// Get returns the value of the named column and whether the column exists.
func (r *Record) Get(name string) (string, bool) {
	i, ok := r.header.index[name]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// ProxyName returns the pxname column.
func (r *Record) ProxyName() string {
	v, _ := r.Get(FieldProxyName)
	return v
}

// ServerName returns the svname column.
func (r *Record) ServerName() string {
	v, _ := r.Get(FieldServerName)
	return v
}

// Status returns the status column.
func (r *Record) Status() string {
	v, _ := r.Get(FieldStatus)
	return v
}

// LastChange returns the lastchg column in seconds. ok is false when the
// column is missing or not an integer, in which case seconds is 0.
func (r *Record) LastChange() (seconds int64, ok bool) {
	v, found := r.Get(FieldLastChange)
	if !found {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsBackend reports whether the record is a proxy's aggregate pool row.
func (r *Record) IsBackend() bool {
	return r.ServerName() == ServerBackend
}

// IsFrontend reports whether the record is a proxy's frontend row.
func (r *Record) IsFrontend() bool {
	return r.ServerName() == ServerFrontend
}

// Fields returns all columns as name/value pairs in header order.
func (r *Record) Fields() [][2]string {
	out := make([][2]string, len(r.values))
	for i, v := range r.values {
		out[i] = [2]string{r.header.names[i], v}
	}
	return out
}

// String renders the record as name=value pairs, for debug logging.
func (r *Record) String() string {
	var b strings.Builder
	for i, v := range r.values {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.header.names[i])
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}
