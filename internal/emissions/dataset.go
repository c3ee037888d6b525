package emissions

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/minio/crc64nvme"
)

// Source supplies raw dataset files by slash separated name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads dataset files from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, filepath.FromSlash(name)))
}

// HTTPSource fetches dataset files from a base URL, retrying transient
// failures. Responses are read fully before parsing so a retried request
// never hands back a half consumed body.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := strings.TrimSuffix(s.BaseURL, "/") + "/" + name

	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", fs.ErrNotExist, url))
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
		}

		return io.ReadAll(resp.Body)
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(4),
	)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(body)), nil
}

// NewSource returns an HTTP source when the location looks like a URL and a
// directory source otherwise.
func NewSource(location string, client *http.Client) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSource{BaseURL: location, Client: client}
	}
	return DirSource{Dir: location}
}

// Observation is one row of a sector dataset: emissions for a state in a
// given year.
type Observation struct {
	State string
	Year  int
	Value float64
}

// Dataset holds the parsed sector series plus a fingerprint of every file
// that went into it.
type Dataset struct {
	Sectors      map[string][]Observation
	Fingerprints map[string]string
}

// LoadDataset reads every sector file named by the manifest.
func LoadDataset(ctx context.Context, src Source, manifest Manifest) (*Dataset, error) {
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	dataset := &Dataset{
		Sectors:      make(map[string][]Observation, len(manifest.Sectors)),
		Fingerprints: make(map[string]string, len(manifest.Sectors)),
	}

	for _, sector := range manifest.Sectors {
		rc, err := src.Open(ctx, sector.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", sector.File, err)
		}

		observations, fingerprint, err := readObservations(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sector.File, err)
		}

		dataset.Sectors[sector.Name] = observations
		dataset.Fingerprints[sector.File] = fingerprint
	}

	return dataset, nil
}

// readObservations parses a tidy State,Year,Emissions CSV and fingerprints
// the raw bytes as it reads them.
func readObservations(r io.Reader) ([]Observation, string, error) {
	sum := crc64nvme.New()
	reader := csv.NewReader(io.TeeReader(r, sum))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing header row", ErrInvalidDataset)
	}

	state, year, value := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "state":
			state = i
		case "year":
			year = i
		case "emissions", "value":
			value = i
		}
	}
	if state == -1 || year == -1 || value == -1 {
		return nil, "", fmt.Errorf("%w: header must include State, Year and Emissions columns", ErrInvalidDataset)
	}

	var observations []Observation
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}

		y, err := strconv.Atoi(strings.TrimSpace(record[year]))
		if err != nil {
			return nil, "", fmt.Errorf("%w: year %q is not an integer", ErrInvalidDataset, record[year])
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(record[value]), 64)
		if err != nil {
			return nil, "", fmt.Errorf("%w: emissions %q is not a number", ErrInvalidDataset, record[value])
		}

		observations = append(observations, Observation{
			State: strings.TrimSpace(record[state]),
			Year:  y,
			Value: v,
		})
	}

	return observations, fmt.Sprintf("%016x", sum.Sum64()), nil
}
