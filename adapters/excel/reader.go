package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scoregaps/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger.With("DataReader")}
}

// WithSheet selects a worksheet by name; the first sheet is used otherwise
func (r *DataReader) WithSheet(name string) *DataReader {
	r.sheet = name
	return r
}

// WithLogger replaces the default logger
func (r *DataReader) WithLogger(l *internal.Logger) *DataReader {
	if l != nil {
		r.logger = l.With("DataReader")
	}
	return r
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		data *ExcelData
		err  error
	)
	switch r.fileType {
	case "csv":
		data, err = r.readCSVData()
	case "xlsx":
		data, err = r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s data processed (%d columns, %d rows)", strings.ToUpper(r.fileType), len(data.Headers), len(data.Rows))
	return data, nil
}

// readExcelData reads the configured (or first) sheet into structured format
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	r.logger.Debug("Sheet %q read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return processRows(rows, "xlsx")
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	startTime := time.Now()
	data, err := ReadCSV(file)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("CSV read in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)
	return data, nil
}

// ReadCSV parses comma-delimited text with a header row
func ReadCSV(src io.Reader) (*ExcelData, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return processRows(rows, "csv")
}

// processRows converts raw string rows into ExcelData format. Blank lines are skipped.
func processRows(rows [][]string, kind string) (*ExcelData, error) {
	if len(rows) < 1 {
		return nil, fmt.Errorf("%s data has no header row", strings.ToUpper(kind))
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	data := &ExcelData{Headers: headers}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		data.Rows = append(data.Rows, rowData)
		data.Lines = append(data.Lines, i+1)
	}
	return data, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
