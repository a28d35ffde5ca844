package indicator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
)

func TestLabel(t *testing.T) {
	long := strings.Repeat("x", 80)

	tests := []struct {
		name     string
		comments []models.Comment
		el       Element
		found    bool
		want     string
	}{
		{
			name:     "inner html text",
			comments: []models.Comment{{InnerHTML: "<b>Total</b> <span>due</span><script>x()</script>"}},
			want:     "Total due",
		},
		{
			name:     "long inner html is cut",
			comments: []models.Comment{{InnerHTML: "<p>" + long + "</p>"}},
			want:     strings.Repeat("x", 50) + "...",
		},
		{
			name:     "element snapshot title",
			comments: []models.Comment{{Element: `<button title="Export CSV"></button>`}},
			want:     "Export CSV",
		},
		{
			name:     "element snapshot aria label",
			comments: []models.Comment{{Element: `<button aria-label="Close"></button>`}},
			want:     "Close",
		},
		{
			name:     "element snapshot text",
			comments: []models.Comment{{Element: `<span>  Acme   Corp </span>`}},
			want:     "Acme Corp",
		},
		{
			name:     "live element title",
			comments: []models.Comment{{}},
			el:       Element{Title: "Balance", Text: "ignored"},
			found:    true,
			want:     "Balance",
		},
		{
			name:     "live element text",
			comments: []models.Comment{{}},
			el:       Element{Text: "\n  Overdue invoices \n"},
			found:    true,
			want:     "Overdue invoices",
		},
		{
			name:     "live element ignored when missing",
			comments: []models.Comment{{}},
			el:       Element{Title: "stale"},
			want:     "Element: total",
		},
		{
			name: "fallback",
			want: "Element: total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label("total", tt.comments, tt.el, tt.found))
		})
	}
}
