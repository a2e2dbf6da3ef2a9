package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tcgsim/battlesim/internal/sim"
)

// WriteCSV writes one "Archetype,Wins" row per archetype, sorted by name.
func WriteCSV(w io.Writer, res *sim.AggregateResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Archetype", "Wins"}); err != nil {
		return err
	}
	for _, archetype := range res.Archetypes() {
		if err := cw.Write([]string{archetype, strconv.Itoa(res.Wins[archetype])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the CSV report to path, replacing any existing file.
func WriteCSVFile(path string, res *sim.AggregateResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteCSV(f, res); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
