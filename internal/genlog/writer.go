package genlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// File permission for generated fixtures.
const filePermission = 0600

// Sentinel error kinds for this package.
var ErrWriteFixture = errors.New("write fixture failed")

// WriteCSV writes the generated events as a headered CSV file in the
// same column layout the ingest reader expects.
func WriteCSV(out Output, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFixture, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "attacker", "victim", "room_id", "room_name", "value"}); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFixture, err)
	}
	for _, ev := range out.Events {
		record := []string{
			ev.Time,
			ev.Attacker,
			ev.Victim,
			ev.RoomID,
			ev.RoomName,
			strconv.FormatFloat(ev.Value, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFixture, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFixture, err)
	}
	return nil
}

// WriteSeedsYAML writes the exposed seed teams as the flat YAML mapping
// the seed loader expects.
func WriteSeedsYAML(out Output, path string) error {
	users := make([]string, 0, len(out.Seeds))
	for u := range out.Seeds {
		users = append(users, u)
	}
	sort.Strings(users)

	buf := make([]byte, 0, len(users)*32)
	for _, u := range users {
		buf = append(buf, fmt.Sprintf("%s: %s\n", u, out.Seeds[u])...)
	}
	if err := os.WriteFile(path, buf, filePermission); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFixture, err)
	}
	return nil
}
