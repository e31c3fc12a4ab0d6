package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Artifacts is a crawl read back from an output directory.
type Artifacts struct {
	Corpus []CorpusRecord
	Graph  *Graph
	Log    []string
}

// ReadCorpus decodes a stream of corpus records.
func ReadCorpus(r io.Reader) ([]CorpusRecord, error) {
	dec := json.NewDecoder(r)
	records := make([]CorpusRecord, 0)
	for {
		var rec CorpusRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode corpus record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}

// ReadGraph decodes a graph.json document.
func ReadGraph(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return &g, nil
}

// ReadLog splits a run.log into events. An empty log has no events.
func ReadLog(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []string{}, nil
	}
	return strings.Split(string(data), "\n"), nil
}

// ReadDir loads all three artifacts from dir.
func ReadDir(dir string) (*Artifacts, error) {
	var a Artifacts

	if err := readFile(filepath.Join(dir, CorpusFileName), func(r io.Reader) (err error) {
		a.Corpus, err = ReadCorpus(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := readFile(filepath.Join(dir, GraphFileName), func(r io.Reader) (err error) {
		a.Graph, err = ReadGraph(r)
		return err
	}); err != nil {
		return nil, err
	}

	if err := readFile(filepath.Join(dir, LogFileName), func(r io.Reader) (err error) {
		a.Log, err = ReadLog(r)
		return err
	}); err != nil {
		return nil, err
	}

	return &a, nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path) //nolint:gosec // Output path is chosen by the user
	if err != nil {
		return err
	}
	defer f.Close()

	if err := read(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
