package importer

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/green-ecolution/demo-plugin/internal/config"
	"github.com/green-ecolution/demo-plugin/internal/errors"
)

// Column positions within the configured header row.
const (
	colArea = iota
	colStreet
	colNumber
	colSpecies
	colNorth
	colEast
	colPlantingYear

	requiredColumns
)

const utf8BOM = "\uFEFF"

// Converter turns a tree register CSV file into trees.
type Converter struct {
	headers     []string
	sourceEPSG  int
	targetEPSG  int
	transformer *Transformer
	logger      *slog.Logger
}

// NewConverter creates a converter for the given import settings.
func NewConverter(cfg config.ImportConfig) (*Converter, error) {
	if len(cfg.Headers) < requiredColumns {
		return nil, errors.New("P065").WithDetailf("got %d columns %q", len(cfg.Headers), cfg.Headers)
	}

	transformer, err := NewTransformer(cfg.SourceEPSG, cfg.TargetEPSG)
	if err != nil {
		return nil, err
	}

	return &Converter{
		headers:     cfg.Headers,
		sourceEPSG:  cfg.SourceEPSG,
		targetEPSG:  cfg.TargetEPSG,
		transformer: transformer,
		logger:      slog.Default().With("component", "importer"),
	}, nil
}

// ConvertFile opens path and converts it.
func (c *Converter) ConvertFile(ctx context.Context, path string) ([]*Tree, error) {
	if err := checkExtension(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("P064").WithDetail(path).Wrap(err)
	}
	defer f.Close()
	return c.Convert(ctx, path, f)
}

// Convert reads a CSV document from r. name is the file name the document
// was uploaded or stored under and must end in .csv. The first row must
// equal the configured headers; every following row becomes one tree.
// Coordinates are converted from the source to the target system.
func (c *Converter) Convert(ctx context.Context, name string, r io.Reader) ([]*Tree, error) {
	start := time.Now()
	if err := checkExtension(name); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New("P061").WithDetailf("%s is empty", name)
		}
		return nil, errors.New("P064").WithDetail(name).Wrap(err)
	}
	if err := c.checkHeaders(header); err != nil {
		return nil, err
	}

	var trees []*Tree
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New("P064").WithDetailf("%s row %d", name, row).Wrap(err)
		}

		tree, err := c.parseRow(row, record)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}

	if !c.transformer.Identity() {
		for _, tree := range trees {
			p := c.transformer.Transform(Coord{North: tree.Latitude, East: tree.Longitude})
			tree.Latitude, tree.Longitude = p.North, p.East
		}
	}

	c.logger.Info("imported trees from CSV",
		"file", name,
		"trees", len(trees),
		"from_epsg", c.sourceEPSG,
		"to_epsg", c.targetEPSG,
		"elapsed", time.Since(start),
	)
	return trees, nil
}

func checkExtension(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return errors.New("P060").WithDetail(name)
	}
	return nil
}

func (c *Converter) checkHeaders(header []string) error {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	if len(header) != len(c.headers) {
		return errors.New("P061").WithDetailf("got %d columns %q, want %q", len(header), header, c.headers)
	}
	for i, h := range header {
		if h != c.headers[i] {
			return errors.New("P061").WithDetailf("column %d is %q, want %q", i+1, h, c.headers[i])
		}
	}
	return nil
}

// parseRow maps one record. Species may be empty; every other column is
// required. Decimal commas are accepted in the coordinate columns.
func (c *Converter) parseRow(row int, record []string) (*Tree, error) {
	field := func(col int) (string, error) {
		if col >= len(record) {
			return "", errors.New("P062").WithDetailf("column %q missing at row %d", c.headers[col], row)
		}
		value := strings.TrimSpace(record[col])
		if value == "" {
			return "", errors.New("P062").WithDetailf("invalid %q value at row %d", c.headers[col], row)
		}
		return value, nil
	}

	float := func(col int) (float64, error) {
		raw, err := field(col)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return 0, errors.New("P062").WithDetailf("invalid %q value at row %d", c.headers[col], row).Wrap(err)
		}
		return v, nil
	}

	tree := &Tree{}
	var err error

	if tree.Area, err = field(colArea); err != nil {
		return nil, err
	}
	if tree.Street, err = field(colStreet); err != nil {
		return nil, err
	}
	if tree.Number, err = field(colNumber); err != nil {
		return nil, err
	}
	// Missing species is common in the register and not an error.
	tree.Species, _ = field(colSpecies)

	if tree.Latitude, err = float(colNorth); err != nil {
		return nil, err
	}
	if tree.Longitude, err = float(colEast); err != nil {
		return nil, err
	}

	yearRaw, err := field(colPlantingYear)
	if err != nil {
		return nil, err
	}
	year, err := strconv.ParseInt(yearRaw, 10, 32)
	if err != nil {
		return nil, errors.New("P062").WithDetailf("invalid %q value at row %d", c.headers[colPlantingYear], row).Wrap(err)
	}
	tree.PlantingYear = int32(year)

	return tree, nil
}
