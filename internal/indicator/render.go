// Package indicator derives where comment markers go on a page.
//
// Positions are document coordinates in CSS pixels. Nothing here is stored:
// markers are recomputed from the current comments, document and viewport
// every time a trigger fires.
package indicator

import (
	"math"
	"sort"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
)

const (
	// Padding keeps markers away from the viewport edges.
	Padding = 20
	// MarkerSize is the rendered marker's width and height.
	MarkerSize = 28

	anchorOffset     = 10
	fallbackInset    = 100
	offscreenScaling = 0.8
)

type Viewport struct {
	Width   float64
	Height  float64
	ScrollX float64
	ScrollY float64
}

// Contains reports whether the document point lies in the scrolled viewport.
func (v Viewport) Contains(top, left float64) bool {
	return left >= v.ScrollX && left <= v.ScrollX+v.Width &&
		top >= v.ScrollY && top <= v.ScrollY+v.Height
}

// Rect is a bounding box relative to the viewport, like getBoundingClientRect.
type Rect struct {
	Top    float64
	Left   float64
	Right  float64
	Bottom float64
}

// Element is what the page reports about a live node.
type Element struct {
	Rect      Rect
	Text      string
	Title     string
	AriaLabel string
}

type Document interface {
	Lookup(id string) (Element, bool)
}

// StaticDocument is a Document backed by a map.
type StaticDocument map[string]Element

func (d StaticDocument) Lookup(id string) (Element, bool) {
	el, ok := d[id]
	return el, ok
}

type Marker struct {
	ElementID string  `json:"elementId"`
	Count     int     `json:"count"`
	Top       float64 `json:"top"`
	Left      float64 `json:"left"`
	Present   bool    `json:"present"`
	Label     string  `json:"label"`
}

// Render returns one marker per element id, sorted by id. Groups with no
// comments are skipped.
func Render(groups map[string][]models.Comment, doc Document, vp Viewport) []Marker {
	ids := make([]string, 0, len(groups))
	for id, comments := range groups {
		if len(comments) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	markers := make([]Marker, 0, len(ids))
	for _, id := range ids {
		comments := groups[id]

		var (
			el    Element
			found bool
		)
		if doc != nil {
			el, found = doc.Lookup(id)
		}

		var top, left float64
		if found {
			top, left = anchor(el.Rect, vp)
		} else {
			top, left = fallback(comments[0], vp)
		}
		top, left = Clamp(top, left, vp)

		markers = append(markers, Marker{
			ElementID: id,
			Count:     len(comments),
			Top:       top,
			Left:      left,
			Present:   found,
			Label:     Label(id, comments, el, found),
		})
	}
	return markers
}

// anchor puts the marker on the element's top-right corner.
func anchor(r Rect, vp Viewport) (top, left float64) {
	return vp.ScrollY + r.Top - anchorOffset, vp.ScrollX + r.Right - anchorOffset
}

// fallback places a marker for an element that is no longer in the document.
func fallback(c models.Comment, vp Viewport) (top, left float64) {
	if !c.HasPosition() {
		return vp.ScrollY + vp.Height - fallbackInset, vp.ScrollX + vp.Width - fallbackInset
	}

	pos := c.Position
	top, left = pos.Y, pos.X
	if vp.Contains(top, left) {
		return top, left
	}
	if pos.XPercent != nil && pos.YPercent != nil {
		return vp.ScrollY + *pos.YPercent*vp.Height, vp.ScrollX + *pos.XPercent*vp.Width
	}
	return vp.ScrollY + math.Min(pos.Y, vp.Height*offscreenScaling),
		vp.ScrollX + math.Min(pos.X, vp.Width*offscreenScaling)
}

// Clamp keeps a marker fully inside the scrolled viewport, Padding away from
// each edge.
func Clamp(top, left float64, vp Viewport) (float64, float64) {
	minTop, maxTop := vp.ScrollY+Padding, vp.ScrollY+vp.Height-MarkerSize-Padding
	minLeft, maxLeft := vp.ScrollX+Padding, vp.ScrollX+vp.Width-MarkerSize-Padding
	if maxTop < minTop {
		maxTop = minTop
	}
	if maxLeft < minLeft {
		maxLeft = minLeft
	}
	return math.Max(minTop, math.Min(top, maxTop)), math.Max(minLeft, math.Min(left, maxLeft))
}
