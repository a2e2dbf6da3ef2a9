package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/tcgsim/battlesim/internal/sim"
)

// RatePlaces is the precision of reported rates.
const RatePlaces = 4

// Row summarises one archetype.
type Row struct {
	Archetype   string          `json:"archetype"`
	Wins        int             `json:"wins"`
	Appearances int             `json:"appearances"`
	Knockouts   int             `json:"knockouts"`
	// WinRate is wins per seat the archetype took.
	WinRate decimal.Decimal `json:"win_rate"`
	// Share is the archetype's part of all wins.
	Share decimal.Decimal `json:"share"`
}

// Summary returns one row per archetype, sorted by name.
func Summary(res *sim.AggregateResult) []Row {
	total := res.TotalWins()
	rows := make([]Row, 0, len(res.Appearances))
	for _, archetype := range res.Archetypes() {
		wins := res.Wins[archetype]
		seats := res.Appearances[archetype]
		rows = append(rows, Row{
			Archetype:   archetype,
			Wins:        wins,
			Appearances: seats,
			Knockouts:   res.Knockouts[archetype],
			WinRate:     rate(wins, seats),
			Share:       rate(wins, total),
		})
	}
	return rows
}

func rate(n, d int) decimal.Decimal {
	if d == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).DivRound(decimal.NewFromInt(int64(d)), RatePlaces)
}

// WriteSummary renders the summary as an aligned table followed by the
// run totals.
func WriteSummary(w io.Writer, res *sim.AggregateResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHETYPE\tWINS\tSEATS\tWIN RATE\tSHARE\tKNOCKOUTS")
	for _, row := range Summary(res) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%d\n",
			row.Archetype, row.Wins, row.Appearances,
			row.WinRate.StringFixed(RatePlaces), row.Share.StringFixed(RatePlaces), row.Knockouts)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nmatches=%d draws=%d failures=%d mean_turns=%s seed=%d\n",
		res.Matches, res.Draws, len(res.Failures),
		decimal.NewFromFloat(res.MeanTurns()).StringFixed(2), res.Seed)
	return err
}
