package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsoleProgress печатает прогресс затирания в терминал одной
// обновляемой строкой
type ConsoleProgress struct {
	out io.Writer

	mu        sync.Mutex
	lastStage string
	lastPct   int
}

// NewConsoleProgress создает консольный принтер прогресса
func NewConsoleProgress(out io.Writer) *ConsoleProgress {
	return &ConsoleProgress{out: out, lastPct: -1}
}

// Update отображает событие прогресса. Строка перерисовывается только
// при смене этапа или целого процента, чтобы не засорять вывод.
func (c *ConsoleProgress) Update(percent float64, stage, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pct := int(percent)
	if stage == c.lastStage && pct == c.lastPct {
		return
	}
	c.lastStage = stage
	c.lastPct = pct

	bar := renderBar(percent, 30)
	fmt.Fprintf(c.out, "\r%s %3d%% %s", bar, pct, message)
	if percent >= 100 {
		fmt.Fprintln(c.out)
	}
}

func renderBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
