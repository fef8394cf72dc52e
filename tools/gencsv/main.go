// Command gencsv writes a pair of CSV files holding the same rows in a different order,
// optionally with a planted difference.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
)

const (
	// Default values
	defaultRows   = 100000
	defaultCols   = 8
	defaultOutDir = "test_data"
	defaultSeed   = 42
)

// Configuration for the data generator
type Config struct {
	rowCount    int
	colCount    int
	outputDir   string
	firstFile   string
	secondFile  string
	randomSeed  int64
	nullRate    float64
	changeValue bool
	extraRow    bool
	permuteCols bool
	separator   rune
}

// table is a header plus rows of optional text cells.
type table struct {
	header []string
	rows   [][]*string
}

func main() {
	config := parseFlags()

	if err := os.MkdirAll(config.outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	rnd := rand.New(rand.NewSource(config.randomSeed))
	first, second := generate(config, rnd)

	firstPath := filepath.Join(config.outputDir, config.firstFile)
	if err := writeTable(firstPath, first, config.separator); err != nil {
		log.Fatalf("Failed to write %s: %v", firstPath, err)
	}
	secondPath := filepath.Join(config.outputDir, config.secondFile)
	if err := writeTable(secondPath, second, config.separator); err != nil {
		log.Fatalf("Failed to write %s: %v", secondPath, err)
	}

	log.Printf("Successfully generated test files:")
	log.Printf("  - First:  %s (%d rows, %d columns)", firstPath, len(first.rows), len(first.header))
	log.Printf("  - Second: %s (%d rows, %d columns)", secondPath, len(second.rows), len(second.header))
}

// parseFlags parses command-line arguments and returns a Config
func parseFlags() Config {
	rowCount := flag.Int("rows", defaultRows, "Number of rows to generate")
	colCount := flag.Int("cols", defaultCols, "Number of columns, including the key column")
	outputDir := flag.String("outdir", defaultOutDir, "Output directory for generated files")
	firstFile := flag.String("first", "first.csv", "Filename for the first CSV file")
	secondFile := flag.String("second", "second.csv", "Filename for the shuffled CSV file")
	seed := flag.Int64("seed", defaultSeed, "Random seed for data generation")
	nullRate := flag.Float64("nulls", 0.05, "Rate of empty cells in non-key columns (0.0-1.0)")
	changeValue := flag.Bool("change", false, "Change one cell in the second file")
	extraRow := flag.Bool("extra-row", false, "Append one extra row to the second file")
	permuteCols := flag.Bool("permute-cols", false, "Reverse the column order of the second file")
	separator := flag.String("separator", ",", "Field separator")

	flag.Parse()

	sep := []rune(*separator)
	if len(sep) != 1 {
		log.Fatalf("Separator must be a single character, got %q", *separator)
	}

	return Config{
		rowCount:    *rowCount,
		colCount:    max(*colCount, 1),
		outputDir:   *outputDir,
		firstFile:   *firstFile,
		secondFile:  *secondFile,
		randomSeed:  *seed,
		nullRate:    *nullRate,
		changeValue: *changeValue,
		extraRow:    *extraRow,
		permuteCols: *permuteCols,
		separator:   sep[0],
	}
}

// generate builds the first table and a shuffled copy with the requested differences.
func generate(config Config, rnd *rand.Rand) (table, table) {
	header := make([]string, config.colCount)
	header[0] = "id"
	for i := 1; i < config.colCount; i++ {
		header[i] = fmt.Sprintf("col_%d", i)
	}

	first := table{header: header, rows: make([][]*string, config.rowCount)}
	for r := range first.rows {
		row := make([]*string, config.colCount)
		id := uuid.NewString()
		row[0] = &id
		for c := 1; c < config.colCount; c++ {
			if rnd.Float64() < config.nullRate {
				continue
			}
			v := fmt.Sprintf("v%d", rnd.Intn(1000000))
			row[c] = &v
		}
		first.rows[r] = row
	}

	second := table{header: append([]string(nil), header...), rows: make([][]*string, len(first.rows))}
	for i, row := range first.rows {
		second.rows[i] = append([]*string(nil), row...)
	}
	rnd.Shuffle(len(second.rows), func(i, j int) {
		second.rows[i], second.rows[j] = second.rows[j], second.rows[i]
	})

	if config.changeValue && len(second.rows) > 0 && config.colCount > 1 {
		r := rnd.Intn(len(second.rows))
		c := 1 + rnd.Intn(config.colCount-1)
		changed := "changed"
		second.rows[r][c] = &changed
	}
	if config.extraRow {
		row := make([]*string, config.colCount)
		id := uuid.NewString()
		row[0] = &id
		second.rows = append(second.rows, row)
	}
	if config.permuteCols {
		reverse(second.header)
		for _, row := range second.rows {
			reverse(row)
		}
	}

	return first, second
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// writeTable writes t as CSV with a header row. Missing cells are written empty.
func writeTable(path string, t table, separator rune) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	fields := make([]arrow.Field, len(t.header))
	for i, name := range t.header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.NewGoAllocator()
	writer := csv.NewWriter(file, schema,
		csv.WithComma(separator),
		csv.WithHeader(true),
		csv.WithNullWriter(""),
	)

	// An empty batch still writes the header.
	const batchSize = 10000
	for start := 0; ; start += batchSize {
		end := min(start+batchSize, len(t.rows))
		record := buildRecord(mem, schema, t.rows[start:end])
		err := writer.Write(record)
		record.Release()
		if err != nil {
			return fmt.Errorf("failed to write rows %d-%d: %w", start, end, err)
		}
		if end == len(t.rows) {
			break
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return file.Close()
}

func buildRecord(mem memory.Allocator, schema *arrow.Schema, rows [][]*string) arrow.Record {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for _, row := range rows {
		for c, cell := range row {
			sb := b.Field(c).(*array.StringBuilder)
			if cell == nil {
				sb.AppendNull()
				continue
			}
			sb.Append(*cell)
		}
	}
	return b.NewRecord()
}
