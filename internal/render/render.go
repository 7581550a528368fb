// Package render draws face meshes and heuristic labels onto frames.
package render

import (
	"image"
	"image/color"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/ayusman/facemesh/internal/detector"
	"github.com/ayusman/facemesh/internal/heuristic"
)

// DefaultAlpha is the weight of the annotated copy in the composite.
const DefaultAlpha = 0.5

// Label layout. Each face gets its own block of lines, stacked downwards.
const (
	labelX     = 20
	smileY     = 30
	eyesY      = 60
	labelBlock = 60
)

// Label texts.
const (
	TextSmile      = "SMILE!"
	TextDanger     = "DANGER!"
	TextEyesClosed = "Eyes Closed!"
)

var (
	meshColor  = color.RGBA{R: 224, G: 224, B: 224, A: 255}
	green      = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	red        = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	indexColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Label is a piece of text placed on the composite.
type Label struct {
	Text   string
	Origin image.Point
	Color  color.RGBA
}

// Options configures a Renderer.
type Options struct {
	// Alpha is the weight of the annotated copy, the frame gets 1-Alpha.
	Alpha float64
	// AnnotateIndices draws the landmark index next to every point of every face.
	AnnotateIndices bool
}

// DefaultOptions returns the stock rendering options.
func DefaultOptions() Options {
	return Options{
		Alpha:           DefaultAlpha,
		AnnotateIndices: true,
	}
}

// Renderer composes the displayed frame.
type Renderer struct {
	opts     Options
	contours []detector.Connection
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	return &Renderer{
		opts:     opts,
		contours: detector.Contours(),
	}
}

// Compose draws the mesh of every face onto a scratch copy of frame, blends
// the copy over frame and draws the labels on the result. frame is not
// modified. The caller is responsible for closing the returned Mat.
func (r *Renderer) Compose(frame gocv.Mat, faces []detector.FaceLandmarks, results []heuristic.Result) gocv.Mat {
	scratch := frame.Clone()
	defer scratch.Close()

	for i := range faces {
		r.drawMesh(&scratch, &faces[i])
	}

	composite := Blend(frame, scratch, r.opts.Alpha)

	for i, res := range results {
		for _, l := range Labels(i, res) {
			gocv.PutText(&composite, l.Text, l.Origin, gocv.FontHersheySimplex, 1, l.Color, 2)
		}
	}

	if r.opts.AnnotateIndices {
		for i := range faces {
			DrawIndices(&composite, &faces[i])
		}
	}

	return composite
}

func (r *Renderer) drawMesh(img *gocv.Mat, face *detector.FaceLandmarks) {
	w, h := img.Cols(), img.Rows()

	for _, c := range r.contours {
		p1, ok1 := detector.ToPixel(face.Points[c[0]], w, h)
		p2, ok2 := detector.ToPixel(face.Points[c[1]], w, h)
		if ok1 && ok2 {
			gocv.Line(img, p1, p2, meshColor, 1)
		}
	}

	for _, p := range face.Points {
		if pt, ok := detector.ToPixel(p, w, h); ok {
			gocv.Circle(img, pt, 1, meshColor, 1)
		}
	}
}

// Blend returns base*(1-alpha) + overlay*alpha.
// The caller is responsible for closing the returned Mat.
func Blend(base, overlay gocv.Mat, alpha float64) gocv.Mat {
	dst := gocv.NewMat()
	gocv.AddWeighted(base, 1-alpha, overlay, alpha, 0, &dst)
	return dst
}

// Labels returns the text to draw for the face at position index.
func Labels(index int, res heuristic.Result) []Label {
	offset := index * labelBlock

	labels := make([]Label, 0, 2)
	if res.Smile {
		labels = append(labels, Label{Text: TextSmile, Origin: image.Pt(labelX, smileY+offset), Color: green})
	} else {
		labels = append(labels, Label{Text: TextDanger, Origin: image.Pt(labelX, smileY+offset), Color: red})
	}
	if res.EyesClosed {
		labels = append(labels, Label{Text: TextEyesClosed, Origin: image.Pt(labelX, eyesY+offset), Color: red})
	}
	return labels
}

// DrawIndices writes each landmark's index next to its position.
func DrawIndices(img *gocv.Mat, face *detector.FaceLandmarks) {
	w, h := img.Cols(), img.Rows()
	for i, p := range face.Points {
		if pt, ok := detector.ToPixel(p, w, h); ok {
			gocv.PutText(img, strconv.Itoa(i), pt, gocv.FontHersheySimplex, 0.3, indexColor, 1)
		}
	}
}
