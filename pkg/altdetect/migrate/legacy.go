package migrate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// LegacyRecord is one entry of the legacy file.
type LegacyRecord struct {
	IPAddress string
	StableID  string
	Name      string
	SeenAt    time.Time
}

// LegacyEntryError reports a malformed legacy entry.
type LegacyEntryError struct {
	Key   string
	Value string
	Cause error
}

// Error implements the error interface.
func (e *LegacyEntryError) Error() string {
	return fmt.Sprintf("malformed legacy entry %s=%q: %v", e.Key, e.Value, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *LegacyEntryError) Unwrap() error {
	return e.Cause
}

type legacyFile struct {
	IP map[string]map[string]any `yaml:"ip"`
}

// ParseLegacy reads a legacy ipdata.yml document. Records are sorted by
// stable ID, address and time. Malformed entries are skipped and returned
// as *LegacyEntryError values in malformed; err is reserved for documents
// that cannot be read at all.
func ParseLegacy(r io.Reader) (records []LegacyRecord, malformed []error, err error) {
	var doc legacyFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []LegacyRecord{}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to parse legacy file: %w", err)
	}

	records = []LegacyRecord{}

	for ipKey, entries := range doc.IP {
		ip := strings.ReplaceAll(ipKey, "_", ".")
		for stableID, raw := range entries {
			key := "ip." + ipKey + "." + stableID
			value := fmt.Sprint(raw)

			rec, err := parseLegacyValue(value)
			if err != nil {
				malformed = append(malformed, &LegacyEntryError{Key: key, Value: value, Cause: err})
				continue
			}
			rec.IPAddress = ip
			rec.StableID = canonicalID(stableID)
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.StableID != b.StableID {
			return a.StableID < b.StableID
		}
		if a.IPAddress != b.IPAddress {
			return a.IPAddress < b.IPAddress
		}
		return a.SeenAt.Before(b.SeenAt)
	})

	return records, malformed, nil
}

// parseLegacyValue splits "<millis>,<name>" on the first comma; names may
// themselves contain commas.
func parseLegacyValue(value string) (LegacyRecord, error) {
	millisText, name, ok := strings.Cut(value, ",")
	if !ok {
		return LegacyRecord{}, errors.New("missing comma separator")
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(millisText), 10, 64)
	if err != nil {
		return LegacyRecord{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	if name == "" {
		return LegacyRecord{}, errors.New("empty name")
	}
	return LegacyRecord{
		Name:   name,
		SeenAt: time.UnixMilli(millis).Truncate(time.Second),
	}, nil
}

// canonicalID lower-cases and hyphenates IDs that parse as UUIDs and returns
// anything else unchanged.
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

// ReadLegacyFile parses the legacy file at path.
func ReadLegacyFile(path string) ([]LegacyRecord, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open legacy file: %w", err)
	}
	defer f.Close()

	return ParseLegacy(f)
}

// latestNames returns, per stable ID, the name carried by its most recent
// record.
func latestNames(records []LegacyRecord) map[string]LegacyRecord {
	latest := make(map[string]LegacyRecord)
	for _, rec := range records {
		cur, ok := latest[rec.StableID]
		if !ok || rec.SeenAt.After(cur.SeenAt) {
			latest[rec.StableID] = rec
		}
	}
	return latest
}
