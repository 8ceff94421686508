package render

import (
	"fmt"
	"image"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece outlines on a 45x45 canvas. FILL and STROKE are substituted per color.
var pieceShapes = map[nchess.PieceType]string{
	nchess.Pawn: `<circle cx="22.5" cy="14" r="5"/>
<polygon points="14,38 31,38 27,24 18,24"/>`,
	nchess.Rook: `<polygon points="11,9 15,9 15,12 20,12 20,9 25,9 25,12 30,12 30,9 34,9 34,16 11,16"/>
<rect x="14" y="16" width="17" height="18"/>
<rect x="12" y="34" width="21" height="5"/>`,
	nchess.Knight: `<polygon points="14,38 33,38 31,20 26,10 22,8 20,12 13,18 12,24 16,25 21,21 18,30"/>
<circle cx="19" cy="15" r="1.2"/>`,
	nchess.Bishop: `<ellipse cx="22.5" cy="22" rx="7" ry="10"/>
<circle cx="22.5" cy="9" r="2.5"/>
<rect x="12" y="33" width="21" height="5"/>`,
	nchess.Queen: `<polygon points="10,14 15,28 18,12 22.5,27 27,12 30,28 35,14 32,34 13,34"/>
<circle cx="10" cy="13" r="2"/>
<circle cx="18" cy="11" r="2"/>
<circle cx="27" cy="11" r="2"/>
<circle cx="35" cy="13" r="2"/>
<rect x="11" y="34" width="23" height="5"/>`,
	nchess.King: `<rect x="21" y="5" width="3" height="10"/>
<rect x="18" y="8" width="9" height="3"/>
<polygon points="12,24 17,16 28,16 33,24 30,34 15,34"/>
<rect x="12" y="34" width="21" height="5"/>`,
}

type pieceStyle struct {
	fill, stroke string
}

var pieceStyles = map[nchess.Color]pieceStyle{
	nchess.White: {fill: "#fafafa", stroke: "#111111"},
	nchess.Black: {fill: "#1f1f1f", stroke: "#000000"},
}

type pieceKey struct {
	piece nchess.Piece
	size  int
}

var (
	pieceCache   = map[pieceKey]*image.RGBA{}
	pieceCacheMu sync.RWMutex
)

func pieceSVG(piece nchess.Piece) (string, error) {
	shape, ok := pieceShapes[piece.Type()]
	if !ok {
		return "", fmt.Errorf("no shape for piece %v", piece)
	}
	style, ok := pieceStyles[piece.Color()]
	if !ok {
		return "", fmt.Errorf("no style for piece %v", piece)
	}
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">`)
	fmt.Fprintf(&b, `<g fill="%s" stroke="%s" stroke-width="1.5">`, style.fill, style.stroke)
	b.WriteString(shape)
	b.WriteString(`</g></svg>`)
	return b.String(), nil
}

func pieceImage(piece nchess.Piece, size int) (*image.RGBA, error) {
	key := pieceKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	img, ok := pieceCache[key]
	pieceCacheMu.RUnlock()
	if ok {
		return img, nil
	}

	src, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img = image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}
