// Package detector provides face landmark detection interfaces and types.
package detector

import "image"

// Face mesh landmark indices following the MediaPipe FaceMesh topology.
// Left and right are from the subject's point of view.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	MouthLeft     = 61
	RightEyeLower = 145
	RightEyeUpper = 159
	MouthRight    = 291
	LeftEyeLower  = 374
	LeftEyeUpper  = 386
	NumLandmarks  = 468
)

// Point3D represents a normalized landmark. X and Y are in [0,1] relative
// to the frame width and height, Z is depth relative to the face center.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceLandmarks represents the 468 landmarks of one detected face.
type FaceLandmarks struct {
	Points [NumLandmarks]Point3D `json:"points"`
}

// ToPixel converts a normalized point to pixel coordinates of a frame with
// the given size. The boolean is false when the point lies outside the frame.
func ToPixel(p Point3D, width, height int) (image.Point, bool) {
	if !inUnitRange(p.X) || !inUnitRange(p.Y) {
		return image.Point{}, false
	}

	x := int(p.X * float64(width))
	y := int(p.Y * float64(height))
	if x > width-1 {
		x = width - 1
	}
	if y > height-1 {
		y = height - 1
	}

	return image.Point{X: x, Y: y}, true
}

func inUnitRange(v float64) bool {
	const eps = 1e-9
	return v > -eps && v < 1+eps
}
