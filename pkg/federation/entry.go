package federation

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
)

// EntryManifestPrefix starts the line of a remote entry that embeds the
// manifest the entry was built from. The rest of the line is the manifest as
// compact JSON followed by ";".
const EntryManifestPrefix = "export const manifest = "

// EntryManifestLine returns the line embedding m in a remote entry.
func EntryManifestLine(m *Manifest) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return EntryManifestPrefix + string(data) + ";", nil
}

// ManifestFromEntry extracts the embedded manifest from a remote entry.
func ManifestFromEntry(src []byte) (*Manifest, error) {
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, EntryManifestPrefix) {
			continue
		}
		body := strings.TrimSuffix(strings.TrimPrefix(line, EntryManifestPrefix), ";")
		return Parse([]byte(body))
	}
	if err := sc.Err(); err != nil {
		return nil, perrors.New("P017").WithDetail("reading remote entry").Wrap(err)
	}
	return nil, perrors.New("P017").WithDetail("remote entry does not embed a manifest")
}

// Equal reports whether m and other describe the same remote.
func (m *Manifest) Equal(other *Manifest) bool {
	if m == nil || other == nil {
		return m == other
	}
	a, errA := json.Marshal(m)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}
