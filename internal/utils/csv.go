package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"stockDecoder/internal/domain"
)

var csvHeader = []string{"date", "symbol", "open", "high", "low", "close", "volume", "label"}

// WriteRecordsToCSV writes records to filename, creating parent directories as needed.
func WriteRecordsToCSV(records []domain.StockRecord, symbol, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteRecords(file, records, symbol); err != nil {
		return err
	}
	return file.Sync()
}

// WriteRecords writes a header row followed by one row per record, labeled with its direction.
func WriteRecords(w io.Writer, records []domain.StockRecord, symbol string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		err := writer.Write([]string{
			r.Date,
			symbol,
			strconv.FormatFloat(r.Open, 'f', -1, 64),
			strconv.FormatFloat(r.High, 'f', -1, 64),
			strconv.FormatFloat(r.Low, 'f', -1, 64),
			strconv.FormatFloat(r.Close, 'f', -1, 64),
			strconv.FormatInt(r.Volume, 10),
			string(domain.LabelFor(r.Open, r.Close)),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
