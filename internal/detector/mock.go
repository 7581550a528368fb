package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	faces  []FaceLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []FaceLandmarks) {
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]FaceLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	return m.closed
}

// Close marks the mock as closed.
func (m *MockDetector) Close() error {
	m.closed = true
	return nil
}

// baseFace lays out every landmark on a small ellipse around the frame
// center so that drawing code always has in-frame points to work with.
func baseFace() FaceLandmarks {
	var face FaceLandmarks
	for i := 0; i < NumLandmarks; i++ {
		// deterministic spread, no trigonometry needed
		fx := float64(i%24) / 24.0
		fy := float64(i/24) / 20.0
		face.Points[i] = Point3D{
			X: 0.35 + fx*0.3,
			Y: 0.25 + fy*0.5,
			Z: 0,
		}
	}
	return face
}

// OpenEyesSmileLandmarks returns a face with open eyes and wide mouth corners.
func OpenEyesSmileLandmarks() FaceLandmarks {
	face := baseFace()

	// Eyelids 0.03 apart, above the eye-closed threshold
	face.Points[RightEyeUpper] = Point3D{X: 0.42, Y: 0.40}
	face.Points[RightEyeLower] = Point3D{X: 0.42, Y: 0.43}
	face.Points[LeftEyeUpper] = Point3D{X: 0.58, Y: 0.40}
	face.Points[LeftEyeLower] = Point3D{X: 0.58, Y: 0.43}

	// Mouth corners 0.12 apart
	face.Points[MouthLeft] = Point3D{X: 0.44, Y: 0.60}
	face.Points[MouthRight] = Point3D{X: 0.56, Y: 0.60}

	return face
}

// ClosedEyesLandmarks returns a face with both eyes closed and the mouth
// corners pinched together.
func ClosedEyesLandmarks() FaceLandmarks {
	face := baseFace()

	face.Points[RightEyeUpper] = Point3D{X: 0.42, Y: 0.415}
	face.Points[RightEyeLower] = Point3D{X: 0.42, Y: 0.420}
	face.Points[LeftEyeUpper] = Point3D{X: 0.58, Y: 0.415}
	face.Points[LeftEyeLower] = Point3D{X: 0.58, Y: 0.420}

	face.Points[MouthLeft] = Point3D{X: 0.495, Y: 0.60}
	face.Points[MouthRight] = Point3D{X: 0.505, Y: 0.60}

	return face
}
