package excel

// RawRowData represents a row of raw sheet data as header -> cell text
type RawRowData map[string]string

// ExcelData represents a complete sheet or CSV file
type ExcelData struct {
	Headers []string     // Column headers, trimmed
	Rows    []RawRowData // Data rows
	Lines   []int        // 1-based source line of each row, for error messages
}
