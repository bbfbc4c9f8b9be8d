// Package card renders level cards as PNGs: avatar, username, level,
// rank and an XP progress bar over a default or user-supplied
// background.
package card

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"guild-leveling-bot/internal/metrics"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	cardWidth  = 420
	cardHeight = 140

	avatarSize = 96
)

// Data is everything a card needs; images may be nil, in which case the
// renderer falls back to flat fills.
type Data struct {
	Username   string
	Level      int
	Rank       int
	XP         int64
	LevelFloor int64 // cumulative XP at the current level
	LevelCeil  int64 // cumulative XP at the next level
	Avatar     image.Image
	Background image.Image
	Theme      Theme
}

// Progress returns the XP earned within the current level span and the
// span's size, clamped so a freshly set profile never reports negative
// progress.
func Progress(xp, floor, ceil int64) (current, span int64) {
	span = ceil - floor
	if span <= 0 {
		span = 1
	}
	current = xp - floor
	if current < 0 {
		current = 0
	}
	if current > span {
		current = span
	}
	return current, span
}

type Renderer struct {
	titleFace font.Face
	bodyFace  font.Face
}

// NewRenderer loads the first TrueType font found under fontsDir,
// falling back to the builtin bitmap face when none is usable. A missing
// font never blocks startup; cards just render plainer.
func NewRenderer(fontsDir string) *Renderer {
	r := &Renderer{
		titleFace: basicfont.Face7x13,
		bodyFace:  basicfont.Face7x13,
	}

	paths, _ := filepath.Glob(filepath.Join(fontsDir, "*.ttf"))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := truetype.Parse(raw)
		if err != nil {
			slog.Warn("Failed to parse font, skipping", "file", path, "error", err)
			continue
		}
		r.titleFace = truetype.NewFace(parsed, &truetype.Options{Size: 22})
		r.bodyFace = truetype.NewFace(parsed, &truetype.Options{Size: 14})
		slog.Info("Loaded card font", "file", path)
		break
	}

	return r
}

// Render draws the card and returns it PNG-encoded.
func (r *Renderer) Render(data Data) ([]byte, error) {
	theme := data.Theme
	if theme.Name == "" {
		theme = DefaultTheme()
	}

	dc := gg.NewContext(cardWidth, cardHeight)

	if data.Background != nil {
		scaled := resize.Resize(cardWidth, 0, data.Background, resize.Bilinear)
		dc.DrawImage(scaled, 0, 0)
		// darken so the text stays readable on busy images
		dc.SetRGBA255(0, 0, 0, 110)
		dc.DrawRectangle(0, 0, cardWidth, cardHeight)
		dc.Fill()
	} else {
		dc.SetRGB255(theme.background.r, theme.background.g, theme.background.b)
		dc.Clear()
	}

	// avatar disc
	cx, cy := 22.0+avatarSize/2, float64(cardHeight)/2
	dc.SetRGB255(theme.track.r, theme.track.g, theme.track.b)
	dc.DrawCircle(cx, cy, avatarSize/2+3)
	dc.Fill()
	if data.Avatar != nil {
		avatar := resize.Resize(avatarSize, avatarSize, data.Avatar, resize.Bilinear)
		dc.DrawCircle(cx, cy, avatarSize/2)
		dc.Clip()
		dc.DrawImage(avatar, int(cx)-avatarSize/2, int(cy)-avatarSize/2)
		dc.ResetClip()
	}

	textX := 22.0 + avatarSize + 18

	dc.SetFontFace(r.titleFace)
	dc.SetRGB255(theme.title.r, theme.title.g, theme.title.b)
	dc.DrawStringAnchored(data.Username, textX, 34, 0, 0.5)

	dc.SetFontFace(r.bodyFace)
	dc.SetRGB255(theme.body.r, theme.body.g, theme.body.b)
	dc.DrawStringAnchored(fmt.Sprintf("Level %d", data.Level), textX, 62, 0, 0.5)
	if data.Rank > 0 {
		dc.DrawStringAnchored(fmt.Sprintf("Rank #%d", data.Rank), textX+110, 62, 0, 0.5)
	}

	// progress bar
	current, span := Progress(data.XP, data.LevelFloor, data.LevelCeil)
	barX, barY := textX, 88.0
	barW, barH := float64(cardWidth)-textX-24, 18.0

	dc.SetRGBA255(theme.track.r, theme.track.g, theme.track.b, 160)
	dc.DrawRoundedRectangle(barX, barY, barW, barH, barH/2)
	dc.Fill()

	filled := barW * float64(current) / float64(span)
	if filled > 0 {
		dc.SetRGBA255(theme.bar.r, theme.bar.g, theme.bar.b, 235)
		dc.DrawRoundedRectangle(barX, barY, filled, barH, barH/2)
		dc.Fill()
	}

	dc.SetRGB255(theme.title.r, theme.title.g, theme.title.b)
	dc.DrawStringAnchored(fmt.Sprintf("%d / %d XP", current, span), barX+barW/2, barY+barH+14, 0.5, 0.5)

	var buffer bytes.Buffer
	if err := dc.EncodePNG(&buffer); err != nil {
		metrics.CardsRendered.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("encode card: %w", err)
	}

	metrics.CardsRendered.WithLabelValues("success").Inc()
	return buffer.Bytes(), nil
}
