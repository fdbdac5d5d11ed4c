// Package index persists the set of already-processed song ids as an
// append-only archive file, one id per line, read back on subsequent
// runs to avoid re-processing.
package index

import (
	"bufio"
	"os"
	"sort"
	"strings"
	"sync"
)

type Index struct {
	mutex sync.RWMutex
	ids   map[string]bool
}

func New() *Index {
	return &Index{ids: map[string]bool{}}
}

// Load reads the archive file at the given path, ignoring blank
// lines and duplicates. A missing file is an empty archive, not
// an error.
func (index *Index) Load(path string) error {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	defer file.Close()

	index.mutex.Lock()
	defer index.mutex.Unlock()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			index.ids[id] = true
		}
	}
	return scanner.Err()
}

func (index *Index) Has(id string) bool {
	index.mutex.RLock()
	defer index.mutex.RUnlock()
	return index.ids[id]
}

// Add records the id and appends it to the archive file, unless
// already known. An empty path keeps the archive in memory only.
func (index *Index) Add(id, path string) error {
	index.mutex.Lock()
	defer index.mutex.Unlock()

	if index.ids[id] {
		return nil
	}
	index.ids[id] = true

	if path == "" {
		return nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(id + "\n")
	return err
}

func (index *Index) Size() int {
	index.mutex.RLock()
	defer index.mutex.RUnlock()
	return len(index.ids)
}

// IDs returns the archived ids, sorted for stable output.
func (index *Index) IDs() []string {
	index.mutex.RLock()
	defer index.mutex.RUnlock()

	ids := make([]string, 0, len(index.ids))
	for id := range index.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
