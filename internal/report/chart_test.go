package report

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"

	"spendbot/internal/core"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	totals := []core.CategoryTotal{
		{Category: "Food", Total: decimal.RequireFromString("42.5")},
		{Category: "Transport", Total: decimal.RequireFromString("7.25")},
	}

	img, err := r.Render(totals, "for the last 7 days")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Error("rendered chart is not a PNG")
	}
}

func TestRenderer_RenderEmpty(t *testing.T) {
	r := NewRenderer()

	img, err := r.Render(nil, "for the last 7 days")
	if err != nil {
		t.Fatalf("Render(empty): %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Error("placeholder chart is not a PNG")
	}
}
