// Package dropzone turns a drag pointer position into a semantic insertion
// index over the page's component stack, plus the geometry of the feedback
// bar the canvas draws at that slot. It is pure geometry: boxes come from a
// live measurement pass, ordering follows the document.
package dropzone

// Box is one tracked component's vertical extent on the rendered canvas,
// in canvas CSS pixels.
type Box struct {
	ID     string  `json:"id"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Bar is the insertion indicator geometry for a resolved index. Top is the
// line position; the bar spans Left..Left+Width horizontally.
type Bar struct {
	Top   float64 `json:"top"`
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

func (b Box) bottom() float64 { return b.Top + b.Height }

func (b Box) midpoint() float64 { return b.Top + b.Height/2 }

// Resolve maps pointerY to an insertion index over boxes, which must be in
// document order top to bottom. The slot is the first box whose vertical
// midpoint sits below the pointer; a pointer below every midpoint appends.
// No boxes means index 0.
func Resolve(pointerY float64, boxes []Box) int {
	for i, b := range boxes {
		if pointerY < b.midpoint() {
			return i
		}
	}
	return len(boxes)
}

// Highlight derives the feedback bar for an insertion index: at the top
// edge of the first box for index 0, at the bottom edge of the last box for
// index len(boxes), and straddling the gap between neighbours otherwise.
// The index is clamped into range.
func Highlight(index int, boxes []Box, canvasWidth float64) Bar {
	bar := Bar{Left: 0, Width: canvasWidth}
	if len(boxes) == 0 {
		return bar
	}
	if index < 0 {
		index = 0
	}
	if index > len(boxes) {
		index = len(boxes)
	}
	switch index {
	case 0:
		bar.Top = boxes[0].Top
	case len(boxes):
		bar.Top = boxes[len(boxes)-1].bottom()
	default:
		bar.Top = (boxes[index-1].bottom() + boxes[index].Top) / 2
	}
	return bar
}
