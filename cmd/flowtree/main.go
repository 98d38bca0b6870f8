// Package main is the entry point for the flowtree demo viewer. It
// loads a file into a document, reconciles it into a node tree, and
// paints the tree on the terminal while keystrokes edit the document
// live.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/flowtree/internal/config"
	"github.com/dshills/flowtree/internal/doc"
	"github.com/dshills/flowtree/internal/dom"
	"github.com/dshills/flowtree/internal/format"
	"github.com/dshills/flowtree/internal/layout"
	"github.com/dshills/flowtree/internal/sched"
	"github.com/dshills/flowtree/internal/view"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var showVersion bool
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "flowtree - incremental document viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: flowtree [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("flowtree %s\n", version)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	theme, err := buildTheme(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	text := "flowtree\n\nType to edit. Esc or Ctrl-C quits."
	if path := flag.Arg(0); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read %s: %v\n", path, err)
			return 1
		}
		text = string(data)
	}
	if cfg.TabWidth > 0 {
		text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", cfg.TabWidth))
	}

	rootFmt := format.DefaultDocument()
	for kind, path := range cfg.Formatters {
		script, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read formatter %s: %v\n", path, err)
			return 1
		}
		lf, err := format.NewLuaFormatter(string(script))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: formatter %s: %v\n", path, err)
			return 1
		}
		defer lf.Close()
		rootFmt.Registry().Register(doc.Kind(kind), lf)
	}

	ts, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: create screen: %v\n", err)
		return 1
	}
	if err := ts.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: init screen: %v\n", err)
		return 1
	}
	defer ts.Fini()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		ts.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	if err := eventLoop(ts, text, rootFmt, theme); err != nil {
		ts.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// eventLoop runs the edit/reconcile/paint cycle until the user quits.
func eventLoop(ts tcell.Screen, text string, rootFmt layout.Formatter, theme *view.Theme) error {
	d := doc.Load(text)
	root := dom.NewRoot("body")

	// Edits invalidate the layout; the pass itself runs when the frame
	// trigger fires, so a burst of keystrokes coalesces into one pass.
	frame := &sched.Manual{}
	l := layout.New(d, root, rootFmt, layout.WithTrigger(frame))
	defer l.Remove()
	l.Sync(0, d.Length())

	scr := view.NewScreen(ts)
	cursor := d.Length()

	for {
		frame.Fire()
		scr.Paint(view.Render(root, theme))
		row, col := cursorCoords(d, cursor)
		ts.ShowCursor(col, row)
		ts.Show()

		switch ev := ts.PollEvent().(type) {
		case *tcell.EventInterrupt:
			return nil
		case *tcell.EventResize:
			ts.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return nil
			case tcell.KeyEnter:
				if err := d.InsertMarker(cursor, doc.KindParagraph); err != nil {
					return err
				}
				cursor++
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				if cursor > 0 {
					if err := d.Remove(cursor-1, cursor); err != nil {
						return err
					}
					cursor--
				}
			case tcell.KeyLeft:
				if cursor > 0 {
					cursor--
				}
			case tcell.KeyRight:
				if cursor < d.Length() {
					cursor++
				}
			case tcell.KeyRune:
				if err := d.InsertText(cursor, string(ev.Rune())); err != nil {
					return err
				}
				cursor += len(string(ev.Rune()))
			}
		}
	}
}

// cursorCoords maps a document position to screen row and column.
func cursorCoords(d *doc.Document, pos int) (row, col int) {
	text := d.Text()
	if pos > len(text) {
		pos = len(text)
	}
	prefix := text[:pos]
	row = strings.Count(prefix, "\n")
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		prefix = prefix[i+1:]
	}
	return row, uniseg.StringWidth(prefix)
}

// buildTheme converts configured hex colors into a view theme.
func buildTheme(cfg *config.Config) (*view.Theme, error) {
	theme := &view.Theme{Tags: make(map[string]view.Style)}
	if cfg.TextColor != "" {
		c, err := view.ParseColor(cfg.TextColor)
		if err != nil {
			return nil, err
		}
		theme.Text = view.Style{FG: c}
	}
	for tag, hex := range cfg.TagColors {
		c, err := view.ParseColor(hex)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag, err)
		}
		theme.Tags[tag] = view.Style{FG: c}
	}
	return theme, nil
}
