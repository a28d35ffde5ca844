package models

import (
	"time"
)

// Position is where a comment was captured. X and Y are document pixels
// (viewport offset plus scroll); the percentages are relative to the viewport
// at capture time and are absent on older rows.
type Position struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	XPercent *float64 `json:"xPercent,omitempty"`
	YPercent *float64 `json:"yPercent,omitempty"`
}

func (p Position) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.XPercent == nil && p.YPercent == nil
}

type Comment struct {
	ID        string    `json:"id"`
	ElementID string    `json:"elementId"`
	Text      string    `json:"text"`
	InnerHTML string    `json:"innerHTML,omitempty"`
	Position  Position  `json:"position"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Element   string    `json:"element,omitempty"`
}

// Valid reports whether the comment carries the fields every stored comment
// must have.
func (c *Comment) Valid() bool {
	return c.ID != "" && c.ElementID != "" && c.Text != ""
}

func (c *Comment) HasPosition() bool {
	return !c.Position.IsZero()
}

// GroupByElement groups valid comments of one route by element id. Comments
// for other paths are skipped.
func GroupByElement(comments []Comment, path string) map[string][]Comment {
	groups := make(map[string][]Comment)
	for _, c := range comments {
		if c.ElementID == "" || c.Path != path {
			continue
		}
		groups[c.ElementID] = append(groups[c.ElementID], c)
	}
	return groups
}
