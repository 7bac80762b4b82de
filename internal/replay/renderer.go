// Package replay turns captured movement traces into PNG frames for
// offline inspection. This is forensic tooling for tuning work, not a
// real-time view: a frame is drawn from an archived trace long after the
// match finished.
package replay

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"matchday/internal/match"
	"matchday/internal/pitch"
)

// Pitch palette.
var (
	grassColor   = color.RGBA{43, 109, 56, 255}
	grassStripe  = color.RGBA{49, 119, 62, 255}
	lineColor    = color.RGBA{235, 235, 235, 255}
	homeColor    = color.RGBA{205, 52, 52, 255}
	awayColor    = color.RGBA{52, 88, 205, 255}
	keeperColor  = color.RGBA{230, 190, 40, 255}
	ballColor    = color.RGBA{250, 250, 250, 255}
	ballShadow   = color.RGBA{0, 0, 0, 70}
	ownerRing    = color.RGBA{255, 255, 255, 200}
	hudTextColor = color.RGBA{245, 245, 245, 255}
	hudBackColor = color.RGBA{15, 15, 20, 200}
)

const (
	padPx        = 24.0 // margin around the pitch in pixels
	playerRadius = 5.0
	ballRadius   = 3.0
	stripeCount  = 10
)

// HUD is the overlay state for one frame. The trace itself carries only
// positions; the caller supplies match context.
type HUD struct {
	Home      string
	Away      string
	HomeGoals int
	AwayGoals int
	Minute    uint16
}

// Renderer draws trace frames at a fixed output size. One renderer may be
// reused across frames and matches; it holds no per-match state.
type Renderer struct {
	width  int
	height int
	scale  float64 // pixels per meter
	offX   float64
	offY   float64
}

// NewRenderer fits the full margin rectangle into width×height, preserving
// aspect ratio.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	spanX := pitch.FieldLengthM + 2*pitch.MarginM
	spanY := pitch.FieldWidthM + 2*pitch.MarginM

	sx := (float64(width) - 2*padPx) / spanX
	sy := (float64(height) - 2*padPx) / spanY
	scale := sx
	if sy < sx {
		scale = sy
	}

	return &Renderer{
		width:  width,
		height: height,
		scale:  scale,
		offX:   (float64(width) - spanX*scale) / 2,
		offY:   (float64(height) - spanY*scale) / 2,
	}
}

// px maps field meters to pixel coordinates. Y is flipped so the lower
// touchline renders at the bottom of the image.
func (r *Renderer) px(xM, yM float64) (float64, float64) {
	x := r.offX + (xM+pitch.MarginM)*r.scale
	y := float64(r.height) - r.offY - (yM+pitch.MarginM)*r.scale
	return x, y
}

// Frame renders one trace frame over the pitch and returns the image.
func (r *Renderer) Frame(f match.TraceFrame, hud HUD) image.Image {
	dc := gg.NewContext(r.width, r.height)

	r.drawPitch(dc)
	r.drawPlayers(dc, &f)
	r.drawBall(dc, &f)
	r.drawHUD(dc, hud)

	return dc.Image()
}

// drawPitch paints the grass, mowing stripes and all fixed markings.
func (r *Renderer) drawPitch(dc *gg.Context) {
	dc.SetColor(grassColor)
	dc.DrawRectangle(0, 0, float64(r.width), float64(r.height))
	dc.Fill()

	// Mowing stripes across the length.
	stripeW := pitch.FieldLengthM / stripeCount
	for i := 0; i < stripeCount; i += 2 {
		x0, y0 := r.px(float64(i)*stripeW, pitch.FieldWidthM)
		x1, y1 := r.px(float64(i+1)*stripeW, 0)
		dc.SetColor(grassStripe)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Fill()
	}

	dc.SetColor(lineColor)
	dc.SetLineWidth(2)

	// Touchlines and goal lines.
	r.strokeRectM(dc, 0, 0, pitch.FieldLengthM, pitch.FieldWidthM)

	// Halfway line.
	hx0, hy0 := r.px(pitch.FieldLengthM/2, 0)
	hx1, hy1 := r.px(pitch.FieldLengthM/2, pitch.FieldWidthM)
	dc.DrawLine(hx0, hy0, hx1, hy1)
	dc.Stroke()

	// Center circle and spot.
	cx, cy := r.px(pitch.FieldLengthM/2, pitch.FieldWidthM/2)
	dc.DrawCircle(cx, cy, pitch.CenterCircleRadiusM*r.scale)
	dc.Stroke()
	dc.DrawCircle(cx, cy, 2)
	dc.Fill()

	// Penalty and goal areas, both ends.
	paY := (pitch.FieldWidthM - pitch.PenaltyAreaWidthM) / 2
	gaY := (pitch.FieldWidthM - pitch.GoalAreaWidthM) / 2
	r.strokeRectM(dc, 0, paY, pitch.PenaltyAreaDepthM, paY+pitch.PenaltyAreaWidthM)
	r.strokeRectM(dc, pitch.FieldLengthM-pitch.PenaltyAreaDepthM, paY, pitch.FieldLengthM, paY+pitch.PenaltyAreaWidthM)
	r.strokeRectM(dc, 0, gaY, pitch.GoalAreaDepthM, gaY+pitch.GoalAreaWidthM)
	r.strokeRectM(dc, pitch.FieldLengthM-pitch.GoalAreaDepthM, gaY, pitch.FieldLengthM, gaY+pitch.GoalAreaWidthM)

	// Goal mouths drawn just behind the lines.
	gY := (pitch.FieldWidthM - pitch.GoalWidthM) / 2
	r.strokeRectM(dc, -1.5, gY, 0, gY+pitch.GoalWidthM)
	r.strokeRectM(dc, pitch.FieldLengthM, gY, pitch.FieldLengthM+1.5, gY+pitch.GoalWidthM)

	// Penalty spots.
	for _, spotX := range []float64{pitch.PenaltySpotDepthM, pitch.FieldLengthM - pitch.PenaltySpotDepthM} {
		sx, sy := r.px(spotX, pitch.FieldWidthM/2)
		dc.DrawCircle(sx, sy, 2)
		dc.Fill()
	}
}

// strokeRectM strokes an axis-aligned rectangle given in field meters.
func (r *Renderer) strokeRectM(dc *gg.Context, x0, y0, x1, y1 float64) {
	px0, py0 := r.px(x0, y1)
	px1, py1 := r.px(x1, y0)
	dc.DrawRectangle(px0, py0, px1-px0, py1-py0)
	dc.Stroke()
}

func (r *Renderer) drawPlayers(dc *gg.Context, f *match.TraceFrame) {
	for slot := 0; slot < match.TotalSlots; slot++ {
		pos := f.Players[slot]
		x, y := r.px(pos.X.Meters(), pos.Y.Meters())

		c := homeColor
		if match.SlotTeam(int8(slot)) == match.TeamAway {
			c = awayColor
		}
		// Keepers wear their own color: slot 0 on each side.
		if slot%match.SlotsPerTeam == 0 {
			c = keeperColor
		}

		// Owner gets a ring so possession reads at a glance.
		if int8(slot) == f.BallOwner {
			dc.SetColor(ownerRing)
			dc.DrawCircle(x, y, playerRadius+3)
			dc.Stroke()
		}

		dc.SetColor(c)
		dc.DrawCircle(x, y, playerRadius)
		dc.Fill()
	}
}

func (r *Renderer) drawBall(dc *gg.Context, f *match.TraceFrame) {
	x, y := r.px(f.Ball.X.Meters(), f.Ball.Y.Meters())
	h := f.Ball.H.Meters()

	// Shadow stays on the ground; the ball lifts and grows with height.
	dc.SetColor(ballShadow)
	dc.DrawCircle(x, y, ballRadius)
	dc.Fill()

	lift := h * r.scale * 0.5
	radius := ballRadius + h*0.8
	dc.SetColor(ballColor)
	dc.DrawCircle(x, y-lift, radius)
	dc.Fill()
}

func (r *Renderer) drawHUD(dc *gg.Context, hud HUD) {
	text := fmt.Sprintf("%s %d - %d %s   %d'", hud.Home, hud.HomeGoals, hud.AwayGoals, hud.Away, hud.Minute)

	w, hgt := dc.MeasureString(text)
	x := (float64(r.width) - w) / 2
	dc.SetColor(hudBackColor)
	dc.DrawRectangle(x-10, 4, w+20, hgt+10)
	dc.Fill()

	dc.SetColor(hudTextColor)
	dc.DrawString(text, x, 8+hgt)
}

// RenderResult dumps every nth trace frame of a finished match as PNGs
// under dir, tracking the score from the event record so the HUD is
// accurate per frame. It returns how many frames were written.
func RenderResult(res *match.MatchResult, dir string, every int, width, height int) (int, error) {
	if res.Trace == nil || len(res.Trace.Frames) == 0 {
		return 0, fmt.Errorf("replay: result has no trace")
	}
	if every <= 0 {
		every = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("replay: %w", err)
	}

	r := NewRenderer(width, height)

	// Goals in tick order drive the running score.
	goals := make([]match.Event, 0, 8)
	minutes := make(map[uint32]uint16, len(res.Events))
	for _, ev := range res.Events {
		minutes[ev.Tick] = ev.Minute
		if ev.Kind == match.EventGoal {
			goals = append(goals, ev)
		}
	}

	written := 0
	gi := 0
	hud := HUD{Home: res.HomeTeam, Away: res.AwayTeam}
	for i := 0; i < len(res.Trace.Frames); i += every {
		f := res.Trace.Frames[i]
		for gi < len(goals) && goals[gi].Tick <= f.Tick {
			if goals[gi].Team == match.TeamHome {
				hud.HomeGoals++
			} else {
				hud.AwayGoals++
			}
			gi++
		}
		hud.Minute = uint16(f.Tick / (60 * match.TickHz))
		if m, ok := minutes[f.Tick]; ok {
			hud.Minute = m
		}

		img := r.Frame(f, hud)
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", f.Tick))
		if err := gg.SavePNG(path, img); err != nil {
			return written, fmt.Errorf("replay: save %s: %w", path, err)
		}
		written++
	}
	return written, nil
}
