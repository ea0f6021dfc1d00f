package proxystats

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// svnamePattern matches the synthetic backend name the proxy fleet derives
// from a task's host and port: "<octet>_<octet>_<octet>_<octet>_<port>".
var svnamePattern = regexp.MustCompile(`^(\d+)_(\d+)_(\d+)_(\d+)_(\d+)$`)

// parseSvName splits a backend's svname into its host and port, or reports
// ok=false for rows that aren't task backends (e.g. FRONTEND/BACKEND).
func parseSvName(svname string) (host string, port int, ok bool) {
	m := svnamePattern.FindStringSubmatch(svname)
	if m == nil {
		return "", 0, false
	}
	port, err := strconv.Atoi(m[5])
	if err != nil {
		return "", 0, false
	}
	return strings.Join(m[1:5], "."), port, true
}

// parseCSV reads a "stats;csv" body — possibly several responses
// concatenated — and returns the rows whose pxname equals backendName,
// plus the number of header rows seen. The format uses a single quote as
// the quote character (not the usual double quote) and repeats its header
// row once per responding proxy process, which is how the fleet's
// instance count is derived.
//
// backendName is "<deployment group>_<service port>"; FRONTEND/BACKEND
// aggregate rows are always skipped.
func parseCSV(body string, backendName string) (rows []Backend, headers int, err error) {
	r := csv.NewReader(strings.NewReader(body))
	r.Comma = ','
	// encoding/csv has no concept of an alternate quote character; the
	// upstream format quotes with a single quote, which never collides with
	// a comma-delimited field here, so we strip stray quote bytes per field
	// rather than reconfigure the reader.
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("parse stats csv: %w", err)
	}

	var columns map[string]int

	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		if strings.HasPrefix(record[0], "#") {
			columns = indexColumns(record)
			headers++
			continue
		}
		if columns == nil {
			continue
		}

		pxname := field(record, columns, "pxname")
		svname := field(record, columns, "svname")
		if pxname != backendName {
			continue
		}
		if svname == "FRONTEND" || svname == "BACKEND" {
			continue
		}

		host, port, ok := parseSvName(svname)
		if !ok {
			continue
		}

		qcur, _ := strconv.Atoi(field(record, columns, "qcur"))
		scur, _ := strconv.Atoi(field(record, columns, "scur"))

		rows = append(rows, Backend{
			SvName: svname,
			Host:   host,
			Port:   port,
			Status: field(record, columns, "status"),
			Qcur:   qcur,
			Scur:   scur,
		})
	}

	return rows, headers, nil
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#"))
		idx[name] = i
	}
	return idx
}

func field(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.Trim(record[i], "'")
}
