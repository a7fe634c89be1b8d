package main

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	ping "github.com/digineo/go-fping"
)

type userInterface struct {
	app          *tview.Application
	table        *tview.Table
	messages     *tview.TextView
	destinations []*destination
}

func buildTUI(destinations []*destination) *userInterface {
	ui := &userInterface{
		app:          tview.NewApplication(),
		table:        tview.NewTable().SetBorders(false).SetFixed(2, 0),
		messages:     tview.NewTextView(),
		destinations: destinations,
	}

	ui.table.SetBorder(true).SetTitle(" multiping (press [q] to exit) ")
	ui.messages.SetBorder(true).SetTitle(" messages ")

	ui.table.SetCell(0, 0, tview.NewTableCell("host").SetAlign(tview.AlignLeft))
	ui.table.SetCell(0, 1, tview.NewTableCell("address").SetAlign(tview.AlignLeft))
	ui.table.SetCell(0, 2, tview.NewTableCell("sent").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 3, tview.NewTableCell("loss").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 4, tview.NewTableCell("last").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 5, tview.NewTableCell("best").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 6, tview.NewTableCell("worst").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 7, tview.NewTableCell("mean").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 8, tview.NewTableCell("stddev").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 9, tview.NewTableCell("last err").SetAlign(tview.AlignLeft))

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			ui.app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				ui.app.Stop()
				return nil
			}
		}
		return event
	})

	cols := 10
	for r, u := range destinations {
		for c := 0; c < cols; c++ {
			var cell *tview.TableCell
			switch c {
			case 0:
				cell = tview.NewTableCell(u.host).SetAlign(tview.AlignLeft)
			case 1:
				cell = tview.NewTableCell(u.display).SetAlign(tview.AlignLeft)
			case 9:
				cell = tview.NewTableCell("").SetAlign(tview.AlignLeft)
			default:
				cell = tview.NewTableCell("n/a").SetAlign(tview.AlignRight)
			}
			ui.table.SetCell(r+2, c, cell)
		}
	}

	return ui
}

func (ui *userInterface) Run() error {
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.table, 0, 3, true).
		AddItem(ui.messages, 0, 1, false)

	ui.app.SetRoot(layout, true).SetFocus(ui.table)
	return ui.app.Run()
}

func (ui *userInterface) update(engine *ping.Engine, log *logInterceptor, interval time.Duration) {
	for {
		time.Sleep(interval)

		report := engine.Report()
		ui.app.QueueUpdateDraw(func() {
			for i, u := range ui.destinations {
				if u.index >= len(report) {
					continue
				}
				for c, text := range u.columns(report[u.index]) {
					ui.table.GetCell(i+2, c+2).SetText(text)
				}
			}
			ui.messages.SetText(log.String()).ScrollToEnd()
		})
	}
}
