package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/supplier"
	"github.com/fekuna/omnipos-stock-sync-service/pkg/logger"
	"go.uber.org/zap"
)

var (
	errEmptyDirectory = errors.New("no suppliers configured")
	errInvalidFormat  = errors.New("expected a list of suppliers or an object with a \"suppliers\" list")
)

// Loader reads the supplier directory from a JSON file. The file holds
// either a plain list or {"suppliers": [...]}, and each record may use
// SUPPLIER_ID/SUPPLIER_GLN/SUPPLIER_NAME or the lower-case keys.
type Loader struct {
	path   string
	logger logger.ZapLogger
}

var _ supplier.Directory = (*Loader)(nil)

func NewLoader(path string, log logger.ZapLogger) *Loader {
	return &Loader{path: path, logger: log}
}

func (l *Loader) Load(ctx context.Context) ([]model.Supplier, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &supplier.ConfigError{Source: l.path, Err: err}
	}

	suppliers, err := Parse(data)
	if err != nil {
		return nil, &supplier.ConfigError{Source: l.path, Err: err}
	}

	l.logger.Info("Loaded supplier directory", zap.String("path", l.path), zap.Int("suppliers", len(suppliers)))
	return suppliers, nil
}

type rawRecord map[string]json.RawMessage

// Parse normalizes a supplier directory document.
func Parse(data []byte) ([]model.Supplier, error) {
	records, err := unwrap(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errEmptyDirectory
	}

	suppliers := make([]model.Supplier, 0, len(records))
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		s, err := normalize(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if prev, ok := seen[s.GLN]; ok {
			return nil, fmt.Errorf("record %d: duplicate supplier gln %s (first seen in record %d)", i+1, s.GLN, prev)
		}
		seen[s.GLN] = i + 1
		suppliers = append(suppliers, s)
	}
	return suppliers, nil
}

func unwrap(data []byte) ([]rawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errInvalidFormat
	}

	switch trimmed[0] {
	case '[':
		var records []rawRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to decode suppliers: %w", err)
		}
		return records, nil
	case '{':
		var wrapper struct {
			Suppliers *[]rawRecord `json:"suppliers"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode suppliers: %w", err)
		}
		if wrapper.Suppliers == nil {
			return nil, errInvalidFormat
		}
		return *wrapper.Suppliers, nil
	default:
		return nil, errInvalidFormat
	}
}

func normalize(rec rawRecord) (model.Supplier, error) {
	rawID, ok := lookup(rec, "supplier_id")
	if !ok {
		return model.Supplier{}, errors.New("missing supplier_id")
	}
	id, err := parseID(rawID)
	if err != nil {
		return model.Supplier{}, err
	}

	gln, err := stringField(rec, "supplier_gln")
	if err != nil {
		return model.Supplier{}, err
	}
	name, err := stringField(rec, "supplier_name")
	if err != nil {
		return model.Supplier{}, err
	}

	return model.Supplier{ID: id, GLN: gln, Name: name}, nil
}

// lookup prefers the lower-case key and falls back to the upper-case one.
func lookup(rec rawRecord, key string) (json.RawMessage, bool) {
	for _, k := range []string{key, strings.ToUpper(key)} {
		if v, ok := rec[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func stringField(rec rawRecord, key string) (string, error) {
	raw, ok := lookup(rec, key)
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return s, nil
}

// parseID accepts a JSON number or a numeric string.
func parseID(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errors.New("supplier_id must be a number")
		}
		n = json.Number(strings.TrimSpace(s))
	}

	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid supplier_id %q", n.String())
	}
	return id, nil
}
