package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	headerMarker = "# "
	delimiter    = ','
)

var (
	// ErrNoData is returned when the stats source returned nothing.
	ErrNoData = errors.New("no status data")
	// ErrNoRecords is returned when the response holds at most a header line.
	ErrNoRecords = errors.New("status data has no records")
	// ErrBadHeader is returned when the header lacks pxname or svname.
	ErrBadHeader = errors.New("status header is missing required fields")
)

// Parse turns raw "show stat" output into sites, in the order their proxy
// names first appear. Rows that do not match the header are logged and
// skipped.
func Parse(raw string, log *slog.Logger) ([]*Site, error) {
	if log == nil {
		log = slog.Default()
	}

	if raw == "" {
		return nil, ErrNoData
	}

	if !strings.HasPrefix(raw, headerMarker) {
		log.Warn("Unexpected status response from haproxy",
			slog.Int("bytes", len(raw)),
			slog.String("start", truncate(raw, 80)))
	}

	lines := splitLines(raw)
	if len(lines) < 2 {
		log.Warn("haproxy did not return status for any backends",
			slog.Int("lines", len(lines)))
		return nil, ErrNoRecords
	}

	header := parseHeader(lines[0])
	if !header.Has(FieldProxyName) || !header.Has(FieldServerName) {
		return nil, fmt.Errorf("%w: %s", ErrBadHeader, strings.Join(header.names, ","))
	}

	var (
		sites  []*Site
		byName = make(map[string]*Site)
	)

	for n, line := range lines[1:] {
		values, err := splitRow(line)
		if err != nil {
			log.Warn("Bad CSV data",
				slog.Int("row", n+1),
				slog.String("line", line),
				slog.String("err", err.Error()))
			continue
		}

		if len(values) != header.Len() {
			log.Warn("Bad CSV data",
				slog.Int("row", n+1),
				slog.String("line", line),
				slog.Int("fields", len(values)),
				slog.Int("expected", header.Len()))
			continue
		}

		rec := &Record{header: header, values: values}

		site, ok := byName[rec.ProxyName()]
		if !ok {
			site = NewSite(rec.ProxyName())
			byName[site.Name()] = site
			sites = append(sites, site)
		}
		site.Add(rec)
	}

	return sites, nil
}

// ParseReader reads r to EOF and parses the result.
func ParseReader(r io.Reader, log *slog.Logger) ([]*Site, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read status data: %w", err)
	}
	return Parse(string(data), log)
}

// splitLines drops empty lines and the trailing delimiter HAProxy appends
// to every line.
func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		line = strings.TrimSuffix(line, string(delimiter))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func parseHeader(line string) *Header {
	if len(line) >= len(headerMarker) {
		line = line[len(headerMarker):]
	} else {
		line = ""
	}
	return newHeader(strings.Split(line, string(delimiter)))
}

func splitRow(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
