package engine

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"sort"
)

// snapshotEntry marshals as a two-element JSON array ["key", record] rather
// than an object, matching the on-disk snapshot format.
type snapshotEntry struct {
	Key    string
	Record Record
}

func (e snapshotEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Key, e.Record})
}

func (e *snapshotEntry) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.Key); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Record)
}

// writeSnapshot gzip-compresses the table as a JSON array of [key, record]
// pairs and atomically replaces path. Keys are sorted first so the same
// table always produces byte-identical snapshot output, which keeps
// recovery reproducible.
func writeSnapshot(path string, table map[string]Record) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]snapshotEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, snapshotEntry{Key: k, Record: table[k]})
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(entries); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// loadSnapshot reads and decompresses path. A missing file is not an error
// — it returns a nil table, meaning "start empty". Any other error
// (corrupt gzip stream, malformed JSON) is returned to the caller, which
// per spec.md discards it and starts empty rather than refusing to open.
func loadSnapshot(path string) (map[string]Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var entries []snapshotEntry
	if err := json.NewDecoder(gz).Decode(&entries); err != nil {
		return nil, err
	}

	table := make(map[string]Record, len(entries))
	for _, e := range entries {
		table[e.Key] = e.Record
	}
	return table, nil
}
