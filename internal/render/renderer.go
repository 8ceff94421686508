package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var ErrBadSquare = errors.New("invalid square")

// Highlight marks the last move, squares in algebraic form ("e2", "e4").
type Highlight struct {
	From string
	To   string
}

type Options struct {
	Highlight *Highlight
	Caption   string
}

type Renderer struct {
	squareSize int
}

func New(squareSize int) *Renderer {
	if squareSize < 16 {
		squareSize = 64
	}
	return &Renderer{squareSize: squareSize}
}

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	background     = color.RGBA{24, 26, 38, 255}
	whiteMoveFill  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	neutralArrow   = color.NRGBA{R: 182, G: 184, B: 190, A: 140}
	panelColor     = color.NRGBA{R: 40, G: 44, B: 64, A: 250}
	captionColor   = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordColor     = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// RenderPNG draws the position described by fen.
func (r *Renderer) RenderPNG(ctx context.Context, fen string, opts Options) ([]byte, error) {
	pos, err := rules.FromFEN(fen)
	if err != nil {
		return nil, err
	}
	board := pos.Board()

	sq := r.squareSize
	margin := sq / 2
	top := margin
	if strings.TrimSpace(opts.Caption) != "" {
		top = margin + 36
	}
	boardSize := sq * 8
	origin := image.Pt(margin, top)
	img := image.NewRGBA(image.Rect(0, 0, boardSize+margin*2, boardSize+top+margin))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Caption != "" {
		drawCaption(img, image.Rect(origin.X, margin/2, origin.X+boardSize, top-12), opts.Caption)
	}
	drawSquares(img, sq, origin)
	if opts.Highlight != nil {
		if err := drawHighlight(img, board, *opts.Highlight, sq, origin); err != nil {
			return nil, err
		}
	}
	if err := drawPieces(ctx, img, board, sq, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, sq, origin)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func parseSquare(s string) (nchess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return nchess.NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1')), nil
}

// squareRect maps a square to pixels with White at the bottom.
func squareRect(sq nchess.Square, size int, origin image.Point) image.Rectangle {
	x := origin.X + int(sq.File())*size
	y := origin.Y + (7-int(sq.Rank()))*size
	return image.Rect(x, y, x+size, y+size)
}

func drawSquares(img *image.RGBA, size int, origin image.Point) {
	for i := 0; i < 64; i++ {
		sq := nchess.Square(i)
		clr := lightSquare
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			clr = darkSquare
		}
		draw.Draw(img, squareRect(sq, size, origin), image.NewUniform(clr), image.Point{}, draw.Src)
	}
}

func drawPieces(ctx context.Context, img *image.RGBA, board *nchess.Board, size int, origin image.Point) error {
	for sq, piece := range board.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		glyph, err := pieceImage(piece, size)
		if err != nil {
			return err
		}
		draw.Draw(img, squareRect(sq, size, origin), glyph, image.Point{}, draw.Over)
	}
	return nil
}

// drawHighlight fills both squares for a White move and draws an arrow for a Black one.
func drawHighlight(img *image.RGBA, board *nchess.Board, h Highlight, size int, origin image.Point) error {
	from, err := parseSquare(h.From)
	if err != nil {
		return err
	}
	to, err := parseSquare(h.To)
	if err != nil {
		return err
	}
	mover := board.Piece(to)
	switch {
	case mover != nchess.NoPiece && mover.Color() == nchess.White:
		fill := image.NewUniform(whiteMoveFill)
		draw.Draw(img, squareRect(from, size, origin), fill, image.Point{}, draw.Over)
		draw.Draw(img, squareRect(to, size, origin), fill, image.Point{}, draw.Over)
	case mover != nchess.NoPiece:
		drawArrow(img, from, to, size, origin, blackMoveArrow)
	default:
		drawArrow(img, from, to, size, origin, neutralArrow)
	}
	return nil
}

func drawArrow(img *image.RGBA, from, to nchess.Square, size int, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	a, b := squareRect(from, size, origin), squareRect(to, size, origin)
	sx, sy := float64(a.Min.X+size/2), float64(a.Min.Y+size/2)
	ex, ey := float64(b.Min.X+size/2), float64(b.Min.Y+size/2)
	length := math.Hypot(ex-sx, ey-sy)
	dx, dy := (ex-sx)/length, (ey-sy)/length
	px, py := -dy, dx

	s := float64(size)
	shaft := length - s*0.45
	if shaft < s*0.35 {
		shaft = length * 0.6
	}
	half, head := s*0.09, s*0.18
	bx, by := sx+dx*shaft, sy+dy*shaft

	bounds := img.Bounds()
	filler := rasterx.NewFiller(bounds.Dx(), bounds.Dy(), rasterx.NewScannerGV(bounds.Dx(), bounds.Dy(), img, bounds))
	filler.SetColor(clr)
	filler.Start(rasterx.ToFixedP(sx-px*half, sy-py*half))
	filler.Line(rasterx.ToFixedP(bx-px*half, by-py*half))
	filler.Line(rasterx.ToFixedP(bx-px*head, by-py*head))
	filler.Line(rasterx.ToFixedP(ex, ey))
	filler.Line(rasterx.ToFixedP(bx+px*head, by+py*head))
	filler.Line(rasterx.ToFixedP(bx+px*half, by+py*half))
	filler.Line(rasterx.ToFixedP(sx+px*half, sy+py*half))
	filler.Stop(true)
	filler.Draw()
}

func drawCaption(img *image.RGBA, rect image.Rectangle, text string) {
	bounds := img.Bounds()
	filler := rasterx.NewFiller(bounds.Dx(), bounds.Dy(), rasterx.NewScannerGV(bounds.Dx(), bounds.Dy(), img, bounds))
	filler.SetColor(panelColor)
	rasterx.AddRoundRect(float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Max.X), float64(rect.Max.Y), 10, 10, 0, rasterx.RoundGap, filler)
	filler.Draw()

	d := &font.Drawer{Dst: img, Src: image.NewUniform(captionColor), Face: basicfont.Face7x13}
	text = truncate(d, strings.TrimSpace(text), rect.Dx()-24)
	width := d.MeasureString(text).Round()
	m := d.Face.Metrics()
	baseline := rect.Min.Y + (rect.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	d.Dot = fixed.P(rect.Min.X+(rect.Dx()-width)/2, baseline)
	d.DrawString(text)
}

func truncate(d *font.Drawer, text string, maxWidth int) string {
	if d.MeasureString(text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if c := string(runes) + "..."; d.MeasureString(c).Round() <= maxWidth {
			return c
		}
	}
	return ""
}

func drawCoordinates(img *image.RGBA, size int, origin image.Point) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(coordColor), Face: basicfont.Face7x13}
	ascent := d.Face.Metrics().Ascent.Ceil()
	bottom := origin.Y + size*8
	for i := 0; i < 8; i++ {
		file := string(rune('a' + i))
		rank := string(rune('8' - i))

		fx := origin.X + i*size + size/2 - d.MeasureString(file).Round()/2
		d.Dot = fixed.P(fx, bottom+ascent+2)
		d.DrawString(file)

		rx := origin.X/2 - d.MeasureString(rank).Round()/2
		d.Dot = fixed.P(rx, origin.Y+i*size+size/2+ascent/2)
		d.DrawString(rank)
	}
}
