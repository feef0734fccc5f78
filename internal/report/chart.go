// Package report rasterizes category aggregates into a pie chart image
// for the chat transport to send as a photo attachment.
package report

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"

	"spendbot/internal/core"
)

const (
	chartWidth  = 720
	chartHeight = 720
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces a PNG pie chart of the given category totals. An empty
// input yields a "no data" placeholder image rather than an error.
func (r *Renderer) Render(totals []core.CategoryTotal, periodLabel string) ([]byte, error) {
	if len(totals) == 0 {
		return r.renderPlaceholder(periodLabel)
	}

	sum := decimal.Zero
	values := make([]chart.Value, 0, len(totals))
	for _, ct := range totals {
		sum = sum.Add(ct.Total)
		values = append(values, chart.Value{
			Value: ct.Total.InexactFloat64(),
			Label: fmt.Sprintf("%s (%s)", ct.Category, ct.Total.StringFixed(2)),
		})
	}

	pie := chart.PieChart{
		Title:  fmt.Sprintf("Spending %s, total %s", periodLabel, sum.StringFixed(2)),
		Width:  chartWidth,
		Height: chartHeight,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie chart: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderPlaceholder(periodLabel string) ([]byte, error) {
	pie := chart.PieChart{
		Title:  fmt.Sprintf("No expenses %s", periodLabel),
		Width:  chartWidth,
		Height: chartHeight,
		Values: []chart.Value{
			{Value: 1, Label: "No data"},
		},
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render placeholder chart: %w", err)
	}
	return buf.Bytes(), nil
}
