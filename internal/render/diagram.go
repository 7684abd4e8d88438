package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	diagramWidth  = 1280
	diagramHeight = 720
	maxTextLines  = 8
	lineWidth     = 70 // characters per wrapped line
)

// colorSchemes map a scheme name to background top/bottom and text colors.
var colorSchemes = map[string][3]color.NRGBA{
	"blue_gradient": {
		{R: 16, G: 36, B: 84, A: 255},
		{R: 42, G: 82, B: 152, A: 255},
		{R: 255, G: 255, B: 255, A: 255},
	},
	"dark": {
		{R: 24, G: 24, B: 32, A: 255},
		{R: 48, G: 48, B: 64, A: 255},
		{R: 235, G: 235, B: 235, A: 255},
	},
	"light": {
		{R: 245, G: 247, B: 250, A: 255},
		{R: 222, G: 230, B: 240, A: 255},
		{R: 30, G: 30, B: 50, A: 255},
	},
}

// DiagramRenderer draws simple educational diagram cards locally:
// a gradient background with the wrapped description text. Diagrams do
// not round-trip through an image provider.
type DiagramRenderer struct {
	outputDir string
}

// NewDiagramRenderer prepares the diagram output directory.
func NewDiagramRenderer(outputDir string) (*DiagramRenderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create diagram output dir: %w", err)
	}
	return &DiagramRenderer{outputDir: outputDir}, nil
}

// Render draws the diagram and returns the saved PNG path.
func (r *DiagramRenderer) Render(ctx context.Context, description, style, colorScheme string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	scheme, ok := colorSchemes[colorScheme]
	if !ok {
		scheme = colorSchemes["blue_gradient"]
	}

	canvas := imaging.New(diagramWidth, diagramHeight, scheme[0])
	drawGradient(canvas, scheme[0], scheme[1])
	drawText(canvas, wrapText(description, lineWidth), scheme[2])

	outPath := filepath.Join(r.outputDir, fmt.Sprintf("diagram_%s.png", uuid.NewString()[:8]))
	if err := imaging.Save(canvas, outPath); err != nil {
		return "", fmt.Errorf("failed to save diagram: %w", err)
	}
	return outPath, nil
}

// drawGradient fills the canvas with a vertical blend of top and bottom.
func drawGradient(img *image.NRGBA, top, bottom color.NRGBA) {
	bounds := img.Bounds()
	height := bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		t := float64(y-bounds.Min.Y) / float64(height-1)
		c := color.NRGBA{
			R: blend(top.R, bottom.R, t),
			G: blend(top.G, bottom.G, t),
			B: blend(top.B, bottom.B, t),
			A: 255,
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func blend(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// drawText renders the wrapped lines centered vertically.
func drawText(img *image.NRGBA, lines []string, textColor color.NRGBA) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 10
	startY := (diagramHeight - lineHeight*len(lines)) / 2

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
	}
	for i, line := range lines {
		width := drawer.MeasureString(line).Ceil()
		drawer.Dot = fixed.P((diagramWidth-width)/2, startY+lineHeight*(i+1))
		drawer.DrawString(line)
	}
}

// wrapText splits text into lines of at most width characters, capped
// at maxTextLines.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	lines = append(lines, current)

	if len(lines) > maxTextLines {
		lines = lines[:maxTextLines]
		lines[maxTextLines-1] += "..."
	}
	return lines
}
