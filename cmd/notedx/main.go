package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/notedx/notedx/internal/backup"
	"github.com/notedx/notedx/internal/cohere"
	"github.com/notedx/notedx/internal/config"
	"github.com/notedx/notedx/internal/db"
	"github.com/notedx/notedx/internal/gate"
	"github.com/notedx/notedx/internal/indexer"
	"github.com/notedx/notedx/internal/logging"
	"github.com/notedx/notedx/internal/notes"
	"github.com/notedx/notedx/internal/pdf"
	"github.com/notedx/notedx/internal/search"
	"github.com/notedx/notedx/internal/tui"
)

type options struct {
	listSections bool
	listNotes    bool
	mkSection    string
	rmSection    string
	section      string
	note         string
	newNote      bool
	rmNote       bool
	cat          bool
	write        bool
	search       string
	export       bool
	output       string
	backup       bool
	backups      bool
	setPassword  string
	clearPass    bool
	password     string
	index        bool
	full         bool
	watch        bool
	ask          string
	setup        bool
}

func parseFlags() options {
	var o options
	flag.BoolVar(&o.listSections, "sections", false, "list sections")
	flag.BoolVar(&o.listNotes, "notes", false, "list notes in -section")
	flag.StringVar(&o.mkSection, "mksection", "", "create a section")
	flag.StringVar(&o.rmSection, "rmsection", "", "delete a section and all of its notes")
	flag.StringVar(&o.section, "section", "", "section to operate on")
	flag.StringVar(&o.note, "note", "", "note to operate on")
	flag.BoolVar(&o.newNote, "new", false, "create -note in -section")
	flag.BoolVar(&o.rmNote, "rm", false, "delete -note from -section")
	flag.BoolVar(&o.cat, "cat", false, "print -note")
	flag.BoolVar(&o.write, "write", false, "replace -note with stdin")
	flag.StringVar(&o.search, "search", "", "find text in every note")
	flag.BoolVar(&o.export, "export", false, "export -section (or one -note) to PDF")
	flag.StringVar(&o.output, "o", "", "output path for -export")
	flag.BoolVar(&o.backup, "backup", false, "take a backup now")
	flag.BoolVar(&o.backups, "backups", false, "list backups")
	flag.StringVar(&o.setPassword, "set-password", "", "protect the notebook with a password")
	flag.BoolVar(&o.clearPass, "clear-password", false, "remove the notebook password")
	flag.StringVar(&o.password, "password", "", "notebook password")
	flag.BoolVar(&o.index, "index", false, "build the semantic index")
	flag.BoolVar(&o.full, "full", false, "full reindex (use with -index)")
	flag.BoolVar(&o.watch, "watch", false, "watch notes and keep the index current")
	flag.StringVar(&o.ask, "ask", "", "semantic search over your notes")
	flag.BoolVar(&o.setup, "setup", false, "run setup wizard")
	flag.Usage = printUsage
	flag.Parse()
	return o
}

// hasCommand reports whether any command flag other than -setup was given.
func (o options) hasCommand() bool {
	return o.listSections || o.listNotes || o.mkSection != "" || o.rmSection != "" ||
		o.newNote || o.rmNote || o.cat || o.write || o.search != "" || o.export ||
		o.backup || o.backups || o.setPassword != "" || o.clearPass ||
		o.index || o.watch || o.ask != ""
}

// interactive reports whether the TUI should run. A bare -setup exits after
// the wizard.
func (o options) interactive() bool {
	return !o.setup && !o.hasCommand()
}

type app struct {
	logger   *slog.Logger
	db       *db.DB
	store    *notes.Store
	gate     *gate.Gate
	exporter *pdf.Exporter
	backups  *backup.Scheduler

	// nil unless a Cohere API key is configured
	indexer  *indexer.Indexer
	searcher *search.Searcher
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logPath, err := config.LogPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get log path: %v\n", err)
		os.Exit(1)
	}
	logFile, err := logging.Setup(logPath, cfg.SlogLevel(), cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close() //nolint:errcheck

	if opts.setup {
		if err := runSetup(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
			os.Exit(1)
		}
		if !opts.hasCommand() {
			fmt.Println("Setup complete")
			return
		}
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.db.Close() //nolint:errcheck

	if opts.interactive() {
		if err := a.runTUI(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to run notedx: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := a.run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Failed: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) (*app, error) {
	logger := slog.Default()

	store, err := notes.Open(cfg.NotesDir)
	if err != nil {
		return nil, err
	}

	dbPath, err := config.DBPath()
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	database, err := db.Open(dbPath, cfg.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		logger:   logger,
		db:       database,
		store:    store,
		gate:     gate.New(cfg.NotesDir),
		exporter: pdf.NewExporter(cfg.FontPath).WithLogger(logger),
		backups: backup.New(cfg.NotesDir, cfg.BackupInterval(),
			backup.WithKeep(cfg.BackupKeep),
			backup.WithLedger(database),
			backup.WithLogger(logger.With("component", "backup")),
		),
	}

	if cfg.SemanticEnabled() {
		client := cohere.New(cohere.Options{
			APIKey:      cfg.CohereAPIKey,
			EmbedModel:  cfg.EmbedModel,
			RerankModel: cfg.RerankModel,
			EmbedDim:    cfg.EmbedDim,
		})
		a.indexer = indexer.New(database, client, store).WithLogger(logger.With("component", "indexer"))
		a.searcher = search.New(database, client, client)
	}

	return a, nil
}

func (a *app) run(o options) error {
	if err := a.unlock(o.password); err != nil {
		return err
	}

	switch {
	case o.setPassword != "":
		if err := a.gate.Set(strings.TrimSpace(o.setPassword)); err != nil {
			return err
		}
		fmt.Println("Password set")
	case o.clearPass:
		if err := a.gate.Clear(); err != nil {
			return err
		}
		fmt.Println("Password removed")

	case o.listSections:
		return a.printSections()
	case o.mkSection != "":
		if err := a.store.CreateSection(o.mkSection); err != nil {
			return err
		}
		fmt.Printf("Section created: %s\n", o.mkSection)
	case o.rmSection != "":
		return a.removeSection(o.rmSection)

	case o.listNotes:
		return a.printNotes(o.section)
	case o.newNote:
		n, err := a.store.CreateNote(o.section, o.note)
		if err != nil {
			return err
		}
		fmt.Printf("Note created: %s\n", n.Ref())
	case o.rmNote:
		return a.removeNote(o.section, o.note)
	case o.cat:
		body, err := a.store.ReadNote(o.section, o.note)
		if err != nil {
			return err
		}
		fmt.Print(body)
	case o.write:
		return a.writeNote(o.section, o.note, os.Stdin)

	case o.search != "":
		return a.printSearch(o.search)
	case o.export:
		return a.export(o.section, o.note, o.output)

	case o.backup:
		snap, err := a.backups.RunOnce(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Backup saved: %s (%d files, %d bytes)\n", snap.Path, snap.Files, snap.Bytes)
	case o.backups:
		return a.printBackups()

	case o.index:
		return a.runIndex(o.full)
	case o.watch:
		return a.runWatch()
	case o.ask != "":
		return a.runAsk(o.ask)
	}
	return nil
}

// unlock applies the password gate to every command-line operation.
func (a *app) unlock(password string) error {
	err := a.gate.Check(gate.PrompterFunc(func() (string, bool) {
		return password, true
	}))
	if errors.Is(err, gate.ErrWrongPassword) && password == "" {
		return errors.New("notebook is password protected, pass -password")
	}
	return err
}

func (a *app) requireSemantic() error {
	if a.indexer == nil {
		return errors.New("semantic search needs a Cohere API key, run notedx -setup")
	}
	return nil
}

func (a *app) printSections() error {
	secs, err := a.store.ListSections()
	if err != nil {
		return err
	}
	for _, s := range secs {
		fmt.Println(s)
	}
	return nil
}

func (a *app) printNotes(section string) error {
	list, err := a.store.ListNotes(section)
	if err != nil {
		return err
	}
	for _, n := range list {
		fmt.Printf("%s\t%s\n", n.Name, n.ModTime.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) removeSection(section string) error {
	if err := a.store.DeleteSection(section); err != nil {
		return err
	}
	if a.indexer != nil {
		if err := a.indexer.RemoveSection(section); err != nil {
			a.logger.Warn("Failed to drop section from index", "section", section, "error", err)
		}
	}
	fmt.Printf("Section deleted: %s\n", section)
	return nil
}

func (a *app) removeNote(section, name string) error {
	if err := a.store.DeleteNote(section, name); err != nil {
		return err
	}
	if a.indexer != nil {
		if err := a.indexer.RemoveNote(section, name); err != nil {
			a.logger.Warn("Failed to drop note from index", "section", section, "note", name, "error", err)
		}
	}
	fmt.Printf("Note deleted: %s/%s\n", section, notes.NoteFileName(name))
	return nil
}

func (a *app) writeNote(section, name string, r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if err := a.store.WriteNote(section, name, string(body)); err != nil {
		return err
	}
	if a.indexer != nil {
		if err := a.indexer.IndexNote(context.Background(), section, name); err != nil {
			a.logger.Warn("Failed to reindex note", "section", section, "note", name, "error", err)
		}
	}
	fmt.Println("Note saved")
	return nil
}

func (a *app) printSearch(query string) error {
	hits, err := a.store.Search(query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results")
		return nil
	}
	for _, h := range hits {
		fmt.Printf("%s:%d\t%s\n", h.Ref(), h.Line, h.Snippet)
	}
	return nil
}

func (a *app) export(section, note, output string) error {
	if section == "" {
		return errors.New("-export needs -section")
	}

	report := pdf.NewReport(tui.NoteReportHeading)
	var list []notes.Note
	if note != "" {
		n, err := a.store.StatNote(section, note)
		if err != nil {
			return err
		}
		list = []notes.Note{n}
	} else {
		var err error
		if list, err = a.store.ListNotes(section); err != nil {
			return err
		}
	}
	for _, n := range list {
		body, err := a.store.ReadNote(n.Section, n.Name)
		if err != nil {
			return err
		}
		report.Add(n.Name, strings.TrimSpace(body))
	}

	if output == "" {
		name := section
		if note != "" {
			name = strings.TrimSuffix(notes.NoteFileName(note), notes.NoteExt)
		}
		output = name + ".pdf"
	}
	if err := a.exporter.WriteFile(output, report); err != nil {
		return err
	}
	fmt.Printf("PDF saved: %s\n", output)
	return nil
}

func (a *app) printBackups() error {
	snaps, err := a.backups.List()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No backups yet")
	}
	for _, s := range snaps {
		fmt.Printf("%s\t%s\n", s.Name, s.Taken.Format("2006-01-02 15:04:05"))
	}

	records, err := a.db.RecentBackups(10)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Failed() {
			fmt.Printf("failed %s\t%s\n", r.Taken.Format("2006-01-02 15:04:05"), r.Err)
		}
	}
	return nil
}

func (a *app) runIndex(full bool) error {
	if err := a.requireSemantic(); err != nil {
		return err
	}

	progress := func(p indexer.Progress) {
		if p.Total > 0 {
			msg := p.Message
			if len(msg) > 60 {
				msg = msg[:57] + "..."
			}
			fmt.Printf("\r\033[K[%d/%d] %s", p.Current, p.Total, msg)
		} else if p.Message != "" {
			fmt.Println(p.Message)
		}
	}

	if err := a.indexer.Index(context.Background(), full, progress); err != nil {
		return err
	}
	fmt.Println()

	noteCount, _ := a.db.NoteCount()
	chunkCount, _ := a.db.ChunkCount()
	fmt.Printf("Index complete: %d notes, %d chunks\n", noteCount, chunkCount)
	return nil
}

func (a *app) runWatch() error {
	if err := a.requireSemantic(); err != nil {
		return err
	}

	watcher, err := indexer.NewWatcher(a.indexer)
	if err != nil {
		return err
	}
	watcher.SetMessageHandler(func(msg string) { fmt.Println(msg) })

	ctx, cancel := signalContext()
	defer cancel()

	return watcher.Start(ctx)
}

func (a *app) runAsk(query string) error {
	if err := a.requireSemantic(); err != nil {
		return err
	}

	results, err := a.searcher.Search(context.Background(), query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%2d. [%.2f] %s:%d\n", r.Rank, r.Score, r.Ref, r.StartLine)
		fmt.Printf("    %s\n", search.Preview(r.Content, 120))
	}
	return nil
}

func (a *app) runTUI() error {
	ctx, cancel := signalContext()
	defer cancel()

	a.backups.Start(ctx)
	defer a.backups.Stop()

	deps := tui.NotesDeps{
		Store:    a.store,
		Gate:     a.gate,
		Exporter: a.exporter,
		Backups:  a.backups,
		Logger:   a.logger,
	}
	if a.indexer != nil {
		deps.Indexer = a.indexer
		deps.Asker = a.searcher
	}

	program := tea.NewProgram(tui.NewNotesModel(deps), tea.WithAltScreen(), tea.WithContext(ctx))

	if a.indexer != nil {
		watcher, err := indexer.NewWatcher(a.indexer)
		if err != nil {
			a.logger.Warn("Watcher disabled", "error", err)
		} else {
			watcher.SetMessageHandler(func(msg string) { program.Send(tui.WatchMsg(msg)) })
			go func() {
				if err := watcher.Start(ctx); err != nil {
					a.logger.Warn("Watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printUsage() {
	fmt.Println("notedx - sections, notes, backups and PDF export")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  notedx                                  Open the notebook")
	fmt.Println("  notedx -sections                        List sections")
	fmt.Println("  notedx -mksection NAME | -rmsection NAME")
	fmt.Println("  notedx -notes -section S                List notes")
	fmt.Println("  notedx -section S -note N -new|-rm|-cat|-write")
	fmt.Println("  notedx -search TEXT                     Find text in every note")
	fmt.Println("  notedx -export -section S [-note N] [-o out.pdf]")
	fmt.Println("  notedx -backup | -backups               Take or list backups")
	fmt.Println("  notedx -set-password PW | -clear-password")
	fmt.Println("  notedx -index [-full] | -watch | -ask QUESTION")
	fmt.Println("  notedx -setup                           Run setup wizard")
	fmt.Println()
	fmt.Println("Pass -password PW when the notebook is protected.")
	fmt.Println()
}
