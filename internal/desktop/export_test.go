package desktop

import "image"

var WriteFrameForTest = writeFrame

// SwapBackendForTest replaces the display backend and returns a restore
// function.
func SwapBackendForTest(displays func() int, bounds func(int) image.Rectangle, grab func(image.Rectangle) (*image.RGBA, error)) func() {
	prevDisplays, prevBounds, prevGrab := numDisplays, displayBounds, captureRect
	numDisplays = displays
	displayBounds = bounds
	captureRect = grab
	return func() {
		numDisplays = prevDisplays
		displayBounds = prevBounds
		captureRect = prevGrab
	}
}
