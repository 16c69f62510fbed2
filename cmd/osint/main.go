package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/notedx/notedx/internal/config"
	"github.com/notedx/notedx/internal/db"
	"github.com/notedx/notedx/internal/logging"
	"github.com/notedx/notedx/internal/osint"
	"github.com/notedx/notedx/internal/pdf"
	"github.com/notedx/notedx/internal/tui"
)

func main() {
	query := flag.String("q", "", "run one lookup and print the result")
	save := flag.Bool("save", false, "save the -q result as a PDF report")
	history := flag.Int("history", 0, "print the last N lookups")
	region := flag.String("region", "", "region for phone numbers without a country code (e.g. US, EG)")
	outDir := flag.String("dir", ".", "directory for saved reports")
	flag.Usage = printUsage
	flag.Parse()

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

	dbPath, err := config.DBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get database path: %v\n", err)
		os.Exit(1)
	}
	database, err := db.Open(dbPath, cfg.EmbedDim)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close() //nolint:errcheck

	if *region == "" {
		*region = cfg.DefaultRegion
	}

	logger := slog.Default().With("component", "osint")
	dispatcher := osint.NewDispatcher(
		osint.WithHTTPClient(&http.Client{Timeout: cfg.LookupTimeout()}),
		osint.WithPublicIPURL(cfg.PublicIPURL),
		osint.WithRegion(*region),
		osint.WithTimeout(cfg.LookupTimeout()),
		osint.WithHistory(database),
		osint.WithLogger(logger),
	)
	exporter := pdf.NewExporter(cfg.FontPath).WithLogger(logger)

	switch {
	case *history > 0:
		if err := printHistory(database, *history); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
			os.Exit(1)
		}

	case *query != "":
		if err := runQuery(dispatcher, exporter, *query, *save, *outDir); err != nil {
			fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
			os.Exit(1)
		}

	default:
		model := tui.NewOSINTModel(tui.OSINTDeps{
			Dispatcher: dispatcher,
			Exporter:   exporter,
			OutDir:     *outDir,
			Logger:     logger,
		})
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to run osint: %v\n", err)
			os.Exit(1)
		}
	}
}

func runQuery(d *osint.Dispatcher, e *pdf.Exporter, query string, save bool, outDir string) error {
	res, err := d.Lookup(context.Background(), query)
	if err != nil {
		return err
	}
	fmt.Print(res.Text())

	if !save {
		return nil
	}
	path := filepath.Join(outDir, osint.ReportFileName(res.Input))
	if err := e.WriteFile(path, osint.NewReport(res)); err != nil {
		return err
	}
	fmt.Printf("Report saved as %s\n", path)
	return nil
}

func printHistory(database *db.DB, limit int) error {
	records, err := database.RecentLookups(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No lookups yet")
		return nil
	}
	for _, r := range records {
		first, _, _ := strings.Cut(r.Result, "\n")
		fmt.Printf("%s  %-9s %s\t%s\n", r.At.Format("2006-01-02 15:04"), r.Kind, r.Input, first)
	}
	return nil
}

func printUsage() {
	fmt.Println("osint - classify one input and run the matching public lookup")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  osint                         Open the lookup screen")
	fmt.Println("  osint -q INPUT [-save]        Look up a username, email, phone, domain or \"my ip\"")
	fmt.Println("  osint -q INPUT -region US     Parse national phone numbers for a region")
	fmt.Println("  osint -history N              Show the last N lookups")
	fmt.Println()
}
