// Package recipients reads the CSV recipient list.
package recipients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/mailcast/internal/address"
)

// ReadFile reads and validates a recipient list from a CSV file with a
// personal_name,email_address header row.
func ReadFile(path string) ([]address.Address, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipient list: %w", err)
	}
	defer f.Close()

	recipients, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recipients, nil
}

// Read parses the CSV list. Every address is validated up front so an
// invalid mailbox never reaches sealing. A UTF-8 byte order mark before
// the header is tolerated; spreadsheet exports often carry one.
func Read(r io.Reader) ([]address.Address, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("recipient list is empty")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	nameIdx, addrIdx := -1, -1
	for i, column := range header {
		switch strings.TrimSpace(column) {
		case "personal_name":
			nameIdx = i
		case "email_address":
			addrIdx = i
		}
	}
	if addrIdx < 0 {
		return nil, fmt.Errorf("recipient list requires an email_address column")
	}

	var recipients []address.Address
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		name := ""
		if nameIdx >= 0 && nameIdx < len(record) {
			name = strings.TrimSpace(record[nameIdx])
		}

		recipient, err := address.New(name, strings.TrimSpace(record[addrIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recipients = append(recipients, recipient)
	}

	return recipients, nil
}
