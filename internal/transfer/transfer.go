// Package transfer handles the username----secret line format used for
// bulk import and export of accounts.
package transfer

import "strings"

// Separator splits username from secret in one import/export line.
const Separator = "----"

// Record is one parsed import line. Invalid records (wrong separator
// count, empty username or secret) keep Valid=false and are fed to the
// import as failures rather than dropped, so reported counts match the
// file contents.
type Record struct {
	Username string
	Secret   string
	Valid    bool
}

// ParseLine splits a single line into a Record. The line must contain
// exactly one separator and non-empty trimmed fields on both sides.
func ParseLine(line string) Record {
	parts := strings.Split(line, Separator)
	if len(parts) != 2 {
		return Record{}
	}
	username := strings.TrimSpace(parts[0])
	secret := strings.TrimSpace(parts[1])
	if username == "" || secret == "" {
		return Record{}
	}
	return Record{Username: username, Secret: secret, Valid: true}
}

// ParseLines parses all non-blank lines. Blank lines are skipped entirely;
// malformed lines become invalid records.
func ParseLines(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, ParseLine(line))
	}
	return out
}

// FormatLine renders one export line.
func FormatLine(username, secret string) string {
	return username + Separator + secret
}
