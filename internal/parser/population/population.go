// Package population parses the pipe-delimited record format of the DOPA
// yearly population statistics files.
//
// Each non-blank line carries exactly 13 fields wrapped in leading and
// trailing delimiters:
//
//	|yymm|cc_code|cc_desc|rcode_code|rcode_desc|ccaatt_code|ccaatt_desc|ccaattmm_code|ccaattmm_desc|male|female|total|house|
//
// The count fields (and cc_code) may embed thousands separators, which are
// stripped before integer parsing. There is no header row and no quoting, so
// a plain split is both correct and simpler than encoding/csv. Malformed
// lines are hard errors: the pipeline has no row-level recovery policy.
package population

import (
	"fmt"
	"strconv"
	"strings"
)

// fieldCount is the fixed per-line field count of the source format.
const fieldCount = 13

// utf8BOM is stripped from the start of the body if present.
const utf8BOM = "\uFEFF"

// Record is one parsed line: the population of one administrative region
// for one publication month. The fetch year is supplied externally by the
// loader and is not part of the wire format.
type Record struct {
	YYMM         string
	CCCode       int
	CCDesc       string
	RcodeCode    string
	RcodeDesc    string
	CcaattCode   string
	CcaattDesc   string
	CcaattmmCode string
	CcaattmmDesc string
	Male         int
	Female       int
	Total        int
	House        int
}

// ParseBody splits a decoded body into lines and parses each. Blank lines
// are skipped; the first malformed line aborts with its line number.
func ParseBody(body string) ([]Record, error) {
	body = strings.TrimPrefix(body, utf8BOM)

	var out []Record
	for i, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseLine parses a single record line. The leading/trailing delimiter and
// surrounding whitespace are stripped before the split.
func ParseLine(line string) (Record, error) {
	fields := strings.Split(strings.Trim(line, "| \r\n"), "|")
	if len(fields) != fieldCount {
		return Record{}, fmt.Errorf("population: expected %d fields, got %d", fieldCount, len(fields))
	}

	ccCode, err := atoiGrouped(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("population: cc_code %q: %w", fields[1], err)
	}
	male, err := atoiGrouped(fields[9])
	if err != nil {
		return Record{}, fmt.Errorf("population: male %q: %w", fields[9], err)
	}
	female, err := atoiGrouped(fields[10])
	if err != nil {
		return Record{}, fmt.Errorf("population: female %q: %w", fields[10], err)
	}
	total, err := atoiGrouped(fields[11])
	if err != nil {
		return Record{}, fmt.Errorf("population: total %q: %w", fields[11], err)
	}
	house, err := atoiGrouped(fields[12])
	if err != nil {
		return Record{}, fmt.Errorf("population: house %q: %w", fields[12], err)
	}

	return Record{
		YYMM:         fields[0],
		CCCode:       ccCode,
		CCDesc:       fields[2],
		RcodeCode:    fields[3],
		RcodeDesc:    fields[4],
		CcaattCode:   fields[5],
		CcaattDesc:   fields[6],
		CcaattmmCode: fields[7],
		CcaattmmDesc: fields[8],
		Male:         male,
		Female:       female,
		Total:        total,
		House:        house,
	}, nil
}

// atoiGrouped parses an integer that may embed thousands separators,
// e.g. "1,234" -> 1234.
func atoiGrouped(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}
