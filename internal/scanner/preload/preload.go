// Package preload answers HSTS preload membership queries against an
// embedded snapshot of the published preload list.
package preload

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

//go:embed snapshot.json
var snapshotJSON []byte

// Result describes a preload lookup for one host.
type Result struct {
	// Preloaded reports whether the host is covered by the snapshot.
	Preloaded bool `json:"preloaded"`
	// Entry is the snapshot entry that covered the host, if any.
	Entry string `json:"entry,omitempty"`
	// IncludeSubdomains mirrors the matched entry's subdomain flag.
	IncludeSubdomains bool `json:"includeSubdomains,omitempty"`
}

type entry struct {
	Name              string `json:"name"`
	IncludeSubdomains bool   `json:"include_subdomains"`
}

type snapshot struct {
	Entries []entry `json:"entries"`
}

// List is a queryable preload snapshot.
type List struct {
	entries map[string]entry
}

// Embedded parses the compiled-in snapshot. The snapshot is validated at
// start-up; a malformed snapshot is a build defect, not a runtime condition.
func Embedded() (*List, error) {
	return Parse(snapshotJSON)
}

// Parse builds a List from snapshot JSON.
func Parse(data []byte) (*List, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse preload snapshot: %w", err)
	}
	entries := make(map[string]entry, len(snap.Entries))
	for _, e := range snap.Entries {
		entries[strings.ToLower(e.Name)] = e
	}
	return &List{entries: entries}, nil
}

// Len returns the number of snapshot entries.
func (l *List) Len() int { return len(l.entries) }

// Lookup reports whether host is covered by the snapshot. The query is by
// registrable domain, not hostname: a subdomain is covered only when the
// matched entry carries include_subdomains. Entries for bare public
// suffixes (preloaded TLDs) cover every registrable domain under them.
func (l *List) Lookup(host string) Result {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return Result{}
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// The host may itself be a public suffix (e.g. a preloaded TLD).
		registrable = host
	}

	if e, ok := l.entries[registrable]; ok {
		if host == registrable || e.IncludeSubdomains {
			return Result{Preloaded: true, Entry: e.Name, IncludeSubdomains: e.IncludeSubdomains}
		}
	}

	// Walk parent suffixes to catch preloaded TLDs and suffix entries.
	rest := registrable
	for {
		i := strings.Index(rest, ".")
		if i < 0 {
			break
		}
		rest = rest[i+1:]
		if e, ok := l.entries[rest]; ok && e.IncludeSubdomains {
			return Result{Preloaded: true, Entry: e.Name, IncludeSubdomains: true}
		}
	}
	return Result{}
}
