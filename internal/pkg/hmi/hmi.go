/*
hmi.go Terminal operator view. A table lists every non-wire component of the diagram with its
switching and energized state; the operator toggles the selected row with enter and walks the
undo history with u and r.
*/

package hmi

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell"
	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/editor"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Config of the terminal view. Refresh is in milliseconds.
type Config struct {
	Enabled bool `json:"Enabled" yaml:"enabled"`
	Refresh int  `json:"Refresh" yaml:"refresh"`
}

// Source is the editor surface the view reads and drives
type Source interface {
	Status() editor.Status
	Toggle(id uuid.UUID) (editor.Result, error)
	Undo() (editor.Result, error)
	Redo() (editor.Result, error)
}

var header = []string{"Name", "Kind", "Position", "State", "Energized"}

// HMI is a tview table over the editor status
type HMI struct {
	mux    *sync.Mutex
	app    *tview.Application
	table  *tview.Table
	footer *tview.TextView
	source Source
	config Config
	ids    []uuid.UUID
	stop   chan bool
	log    *zap.SugaredLogger
}

// New builds the view for source. It is drawn once by Run.
func New(cfg Config, source Source) *HMI {
	h := &HMI{
		mux:    &sync.Mutex{},
		app:    tview.NewApplication(),
		table:  tview.NewTable().SetFixed(1, 0),
		footer: tview.NewTextView().SetTextColor(tcell.ColorDarkMagenta),
		source: source,
		config: cfg,
		stop:   make(chan bool, 1),
		log:    logger.For(logger.HMI),
	}
	h.table.SetBorder(true).SetTitle(" Distribution ")
	h.table.SetSelectable(true, false).SetSeparator(' ')
	h.table.SetInputCapture(h.handleKey)
	h.render()
	return h
}

// Run draws the view until the operator quits or Stop is called.
func (h *HMI) Run() error {
	h.log.Info("Process Started")
	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(h.table, 0, 1, true).
		AddItem(h.footer, 1, 0, false)

	go h.refresh()
	err := h.app.SetRoot(layout, true).Run()
	h.stop <- true
	h.log.Info("Process Shutdown")
	return err
}

// Stop ends Run
func (h *HMI) Stop() {
	h.app.Stop()
}

func (h *HMI) refresh() {
	rate := h.config.Refresh
	if rate <= 0 {
		rate = 500
	}
	tick := time.NewTicker(time.Duration(rate) * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			h.app.QueueUpdateDraw(h.render)
		case <-h.stop:
			return
		}
	}
}

func (h *HMI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	var err error
	switch {
	case event.Key() == tcell.KeyEnter:
		if id, ok := h.selected(); ok {
			_, err = h.source.Toggle(id)
		}
	case event.Key() == tcell.KeyRune && event.Rune() == 'u':
		_, err = h.source.Undo()
	case event.Key() == tcell.KeyRune && event.Rune() == 'r':
		_, err = h.source.Redo()
	case event.Key() == tcell.KeyRune && event.Rune() == 'q':
		h.app.Stop()
		return nil
	default:
		return event
	}
	if err != nil {
		h.footer.SetText(err.Error())
		h.log.Debugf("key %v: %v", event.Name(), err)
	}
	h.render()
	return nil
}

func (h *HMI) selected() (uuid.UUID, bool) {
	h.mux.Lock()
	defer h.mux.Unlock()
	row, _ := h.table.GetSelection()
	if row < 1 || row > len(h.ids) {
		return uuid.Nil, false
	}
	return h.ids[row-1], true
}

func (h *HMI) render() {
	status := h.source.Status()
	ids, data := rows(status)

	h.mux.Lock()
	h.ids = ids
	h.mux.Unlock()

	h.table.Clear()
	for column, title := range header {
		h.table.SetCell(0, column, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	for row, line := range data {
		for column, text := range line {
			color := tcell.ColorWhite
			if column == 0 {
				color = tcell.ColorDarkCyan
			} else if column == len(line)-1 {
				color = tcell.ColorRed
				if text == "yes" {
					color = tcell.ColorGreen
				}
			}
			h.table.SetCell(row+1, column, tview.NewTableCell(text).
				SetTextColor(color).
				SetAlign(tview.AlignLeft))
		}
	}
	h.footer.SetText(fmt.Sprintf("energized %d/%d  undo %d  redo %d  [enter] toggle [u] undo [r] redo [q] quit",
		status.Energized, len(status.Components), status.Undo, status.Redo))
}

// rows returns one table line per non-wire component with the ids in the same order.
func rows(status editor.Status) ([]uuid.UUID, [][]string) {
	ids := make([]uuid.UUID, 0, len(status.Components))
	lines := make([][]string, 0, len(status.Components))
	for _, icon := range status.Components {
		if icon.Kind == component.Wire {
			continue
		}
		energized := "no"
		if icon.Energized {
			energized = "yes"
		}
		ids = append(ids, icon.ID)
		lines = append(lines, []string{icon.Name, string(icon.Kind), icon.Position.String(), state(icon), energized})
	}
	return ids, lines
}

func state(icon component.IconState) string {
	switch {
	case icon.Kind == component.ATS:
		return icon.Transfer
	case icon.Kind.Behavior() == component.SourceBehavior:
		if icon.On {
			return "ON"
		}
		return "OFF"
	case icon.Kind.Behavior() == component.CloseableBehavior:
		s := "OPEN"
		if icon.Closed {
			s = "CLOSED"
		}
		if icon.Locked {
			s += " LOCKED"
		}
		return s
	}
	return ""
}
