package viz

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/record"
)

// FrameRenderer draws cart-pole states as raster frames. The cart
// track runs horizontally through the lower third of the frame, with
// world x = 0 at the frame centre.
type FrameRenderer struct {
	width  int
	height int

	// Scale converts metres to pixels.
	Scale float64

	Background color.Color
	Track      color.Color
	Cart       color.Color
	Pole       color.Color
	Bob        color.Color
}

// NewFrameRenderer returns a FrameRenderer producing width×height
// frames with a default palette.
func NewFrameRenderer(width, height int) (*FrameRenderer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("viz: frame must have positive dimensions, "+
			"got %dx%d", width, height)
	}

	return &FrameRenderer{
		width:      width,
		height:     height,
		Scale:      100,
		Background: color.White,
		Track:      color.Gray{Y: 180},
		Cart:       color.RGBA{R: 40, G: 40, B: 160, A: 255},
		Pole:       color.RGBA{R: 160, G: 80, B: 20, A: 255},
		Bob:        color.RGBA{R: 200, G: 30, B: 30, A: 255},
	}, nil
}

// Render draws the plant in the given state and returns the frame.
func (r *FrameRenderer) Render(pend *pendulum.Pendulum,
	state *mat.VecDense) image.Image {
	dc := gg.NewContext(r.width, r.height)
	dc.SetColor(r.Background)
	dc.Clear()

	trackY := float64(r.height) * 2 / 3
	cartX := float64(r.width)/2 + state.AtVec(0)*r.Scale

	dc.SetColor(r.Track)
	dc.SetLineWidth(2)
	dc.DrawLine(0, trackY, float64(r.width), trackY)
	dc.Stroke()

	cartW, cartH := 0.4*r.Scale, 0.2*r.Scale
	dc.SetColor(r.Cart)
	dc.DrawRectangle(cartX-cartW/2, trackY-cartH, cartW, cartH)
	dc.Fill()

	// the pole angle is measured from upright, so θ = 0 points up
	theta := state.AtVec(2)
	pivotY := trackY - cartH
	length := pend.Length() * r.Scale
	tipX := cartX + length*math.Sin(theta)
	tipY := pivotY - length*math.Cos(theta)

	dc.SetColor(r.Pole)
	dc.SetLineWidth(4)
	dc.DrawLine(cartX, pivotY, tipX, tipY)
	dc.Stroke()

	dc.SetColor(r.Bob)
	dc.DrawCircle(tipX, tipY, 0.06*r.Scale)
	dc.Fill()

	return dc.Image()
}

// Save renders one state and writes it as a PNG at path.
func (r *FrameRenderer) Save(pend *pendulum.Pendulum, state *mat.VecDense,
	path string) error {
	dc := gg.NewContextForImage(r.Render(pend, state))
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("viz: could not save frame: %w", err)
	}
	return nil
}

// SaveSequence renders every skip-th row of a recorded run into dir as
// frame_0000.png, frame_0001.png, … and returns the number of frames
// written.
func (r *FrameRenderer) SaveSequence(pend *pendulum.Pendulum,
	table *record.Table, skip int, dir string) (int, error) {
	if table == nil || table.Len() == 0 {
		return 0, fmt.Errorf("viz: nothing to render")
	}
	if skip < 1 {
		skip = 1
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("viz: %w", err)
	}

	frames := 0
	state := mat.NewVecDense(pendulum.StateDim, nil)
	for i := 0; i < table.Len(); i += skip {
		for j, label := range controller.StateLabels {
			value, ok := table.At(i, controller.Key{
				Category: "state",
				Label:    label,
			})
			if !ok {
				return frames, fmt.Errorf("viz: table has no column "+
					"state/%s", label)
			}
			state.SetVec(j, value)
		}

		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", frames))
		if err := r.Save(pend, state, path); err != nil {
			return frames, err
		}
		frames++
	}
	return frames, nil
}
