package grouping

import "github.com/linnemanlabs/warden/internal/vuln"

func rec(id, endpoint, cve, title, description string) vuln.Record {
	return vuln.Record{
		ID:          id,
		Title:       title,
		Endpoint:    endpoint,
		Severity:    "high",
		CVE:         cve,
		Description: description,
		Sensor:      "zap",
	}
}

var (
	sqliA = rec("A", "/login", "CVE-1", "SQL injection in login form",
		"The username parameter is vulnerable to SQL injection")
	sqliB = rec("B", "/login", "CVE-1", "SQL injection in login form",
		"The username parameter is vulnerable to blind SQL injection")
	tlsC = rec("C", "/login", "CVE-1", "Outdated TLS configuration",
		"Server supports TLS 1.0 with weak ciphers")
)

func ids(records []vuln.Record) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].ID
	}
	return out
}
