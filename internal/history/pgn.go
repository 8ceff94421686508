package history

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-arena/pkg/arenadto"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// BuildPGN renders a record as PGN with seven-tag-roster headers.
// Non-standard start positions get SetUp/FEN tags and correct move numbering.
func BuildPGN(rec arenadto.GameRecord) string {
	var b strings.Builder
	date := rec.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	result := rec.Result
	if result == "" {
		result = "*"
	}

	b.WriteString("[Event \"Cheese Arena\"]\n")
	b.WriteString("[Site \"arena\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[Round \"%d\"]\n", rec.Game))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(rec.White)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(rec.Black)))
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n", result))
	custom := rec.StartFEN != "" && rec.StartFEN != startFEN
	if custom {
		b.WriteString("[SetUp \"1\"]\n")
		b.WriteString(fmt.Sprintf("[FEN \"%s\"]\n", sanitizePGN(rec.StartFEN)))
	}
	if m := strings.TrimSpace(rec.Method); m != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(m)))
	}
	b.WriteString("\n")

	number, blackFirst := 1, false
	if custom {
		number, blackFirst = fenMoveNumber(rec.StartFEN)
	}
	for i, san := range rec.MovesSAN {
		white := (i%2 == 0) != blackFirst
		switch {
		case i == 0 && !white:
			b.WriteString(fmt.Sprintf("%d... ", number))
		case white:
			b.WriteString(fmt.Sprintf("%d. ", number))
		}
		b.WriteString(strings.TrimSpace(san))
		b.WriteString(" ")
		if !white {
			number++
		}
	}
	b.WriteString(result)
	return b.String()
}

// fenMoveNumber returns the fullmove number and whether black is to move.
func fenMoveNumber(fen string) (int, bool) {
	fields := strings.Fields(fen)
	black := len(fields) > 1 && fields[1] == "b"
	n := 1
	if len(fields) > 5 {
		if v, err := strconv.Atoi(fields[5]); err == nil && v > 0 {
			n = v
		}
	}
	return n, black
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
