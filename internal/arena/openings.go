package arena

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/park285/cheese-arena/internal/rules"
)

// Book rotates sessions through a list of start positions (FEN or EPD lines).
// A nil Book always yields the standard initial position.
type Book struct {
	entries []string
	random  bool

	mu  sync.Mutex
	rng *rand.Rand
}

// LoadBook reads one position per line. Blank lines and lines starting with '#' are skipped.
func LoadBook(path, order string, rng *rand.Rand) (*Book, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read opening book: %w", err)
	}
	return NewBook(strings.Split(string(raw), "\n"), order, rng)
}

// NewBook validates every entry up front so a bad line fails at startup, not mid-run.
// order is "sequential" (default) or "random".
func NewBook(lines []string, order string, rng *rand.Rand) (*Book, error) {
	b := &Book{random: strings.EqualFold(strings.TrimSpace(order), "random"), rng: rng}
	for i, line := range lines {
		line = strings.Trim(line, "\n\r\t ")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fen := fenFromEPD(line)
		if _, err := rules.FromFEN(fen); err != nil {
			return nil, fmt.Errorf("opening book line %d: %w", i+1, err)
		}
		b.entries = append(b.entries, fen)
	}
	if len(b.entries) == 0 {
		return nil, ErrEmptyBook
	}
	if b.random && b.rng == nil {
		b.rng = rand.New(rand.NewSource(1))
	}
	return b, nil
}

func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Position returns the start position for session number seq (1-based).
func (b *Book) Position(seq int64) (rules.Position, error) {
	if b == nil || len(b.entries) == 0 {
		return rules.NewPosition(), nil
	}
	var idx int
	if b.random {
		b.mu.Lock()
		idx = b.rng.Intn(len(b.entries))
		b.mu.Unlock()
	} else {
		if seq < 1 {
			seq = 1
		}
		idx = int((seq - 1) % int64(len(b.entries)))
	}
	return rules.FromFEN(b.entries[idx])
}

// fenFromEPD keeps full FEN lines and pads 4-field EPD records with default move counters.
func fenFromEPD(line string) string {
	if line == "startpos" {
		return line
	}
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return line
	}
	if len(fields) >= 6 && isCounter(fields[4]) && isCounter(fields[5]) {
		return strings.Join(fields[:6], " ")
	}
	return strings.Join(fields[:4], " ") + " 0 1"
}

func isCounter(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
