// Package cmd implements the CLI command structure for taskdeck.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nibzard/taskdeck/internal/config"
	"github.com/nibzard/taskdeck/internal/logging"
	"github.com/nibzard/taskdeck/internal/stats"
	"github.com/nibzard/taskdeck/internal/storage"
	"github.com/nibzard/taskdeck/internal/store"
	"github.com/nibzard/taskdeck/internal/task"
	"github.com/nibzard/taskdeck/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the taskdeck CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("taskdeck", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Determine the subcommand. With no args the interactive menu runs.
	subcommand := "menu"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "menu":
		return menuCommand(ctx, cfg, remainingArgs)
	case "ls":
		return lsCommand(cfg, remainingArgs)
	case "stats":
		return statsCommand(cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cfg, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// openStore loads the backing file and wires a store that persists on
// every mutation. A corrupt file aborts startup: saving an implicit empty
// store over existing data is never acceptable.
func openStore(cfg *config.Config) (*store.Store, error) {
	f, err := storage.Load(cfg.DataFile, storage.Options{SchemaPath: cfg.SchemaFile})
	if err != nil {
		return nil, err
	}

	saver := func(tasks []task.Task, nextID int) error {
		return storage.Save(cfg.DataFile, &storage.File{
			SchemaVersion: storage.SchemaVersion,
			NextID:        nextID,
			Tasks:         tasks,
		})
	}

	return store.New(f.Tasks, f.NextID, store.WithSaver(saver)), nil
}

// menuCommand runs the interactive menu loop.
func menuCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	logger := logging.NewFromConfig(cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps)
	return ui.NewMenu(os.Stdin, os.Stdout, st, cfg, logger).Run(ctx)
}

// lsCommand lists tasks non-interactively.
func lsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskdeck ls", flag.ContinueOnError)
	filterFlag := fs.String("filter", "", "Filter tasks (all|pending|completed)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) >= 1 && *filterFlag == "" {
		*filterFlag = remaining[0]
		remaining = remaining[1:]
	}
	if len(remaining) > 0 {
		return fmt.Errorf("unexpected arguments: %v", remaining)
	}

	filter, err := store.ParseFilter(*filterFlag)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	tasks := st.List(filter)
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	groups := store.GroupByCategory(tasks)
	for _, category := range store.SortedCategories(groups) {
		fmt.Printf("%s (%d):\n", category, len(groups[category]))
		for _, t := range groups[category] {
			printTask(t)
		}
		fmt.Println()
	}

	return nil
}

// printTask prints a single task line.
func printTask(t task.Task) {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	due := ""
	if t.DueDate != nil {
		due = fmt.Sprintf("  due %s", t.DueDate)
	}
	fmt.Printf("  %s %3d. (%s) %s%s\n", box, t.ID, t.Priority.Label(), t.Title, due)
}

// statsCommand prints the statistics view non-interactively.
func statsCommand(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	ui.WriteStatistics(os.Stdout, stats.Collect(st.Tasks()))
	return nil
}

// tuiCommand launches the read-only dashboard.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	return ui.RunDashboard(ctx, cfg)
}

// doctorCommand checks config, the task file, and the schema file.
func doctorCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskdeck doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fmt.Println("Taskdeck Doctor")
	fmt.Println("===============")
	fmt.Println()

	allOK := true

	fmt.Printf("Working directory: %s\n", cfg.WorkDir)
	if _, err := os.Stat(cfg.WorkDir); err != nil {
		fmt.Printf("  ❌ Error: %v\n", err)
		allOK = false
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	fmt.Println("Config:")
	if cfg.DefaultCategory == "" {
		fmt.Println("  ❌ Default category: empty")
		allOK = false
	} else {
		fmt.Printf("  ✅ Default category: %s\n", cfg.DefaultCategory)
	}
	fmt.Printf("  ✅ Log level: %s, format: %s\n", cfg.LogLevel, cfg.LogFormat)
	fmt.Println()

	// Check task file
	fmt.Printf("Task file: %s\n", cfg.DataFile)
	info, err := os.Stat(cfg.DataFile)
	switch {
	case os.IsNotExist(err):
		fmt.Println("  ⚠️  Not found (will be created on first save)")
	case err != nil:
		fmt.Printf("  ❌ Error: %v\n", err)
		allOK = false
	case info.IsDir():
		fmt.Println("  ❌ Error: path is a directory")
		allOK = false
	default:
		f, loadErr := storage.Load(cfg.DataFile, storage.Options{SchemaPath: cfg.SchemaFile})
		if loadErr != nil {
			fmt.Printf("  ❌ Load error: %v\n", loadErr)
			allOK = false
		} else {
			fmt.Println("  ✅ Valid")
			if *verbose {
				fmt.Printf("  Tasks: %d (next id %d)\n", len(f.Tasks), f.NextID)
				for _, t := range f.Tasks {
					printTask(t)
				}
			}
		}
	}
	fmt.Println()

	// Check schema file
	fmt.Printf("Schema file: %s\n", cfg.SchemaFile)
	if info, err := os.Stat(cfg.SchemaFile); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (minimal validation only)")
		} else {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if info.IsDir() {
		fmt.Println("  ❌ Error: path is a directory")
		allOK = false
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed. Taskdeck may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("taskdeck version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Taskdeck - A personal task tracker for your terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskdeck [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  menu          Run the interactive menu (default command)")
	fmt.Fprintln(w, "  ls [filter]   List tasks (all|pending|completed)")
	fmt.Fprintln(w, "  stats         Show task statistics")
	fmt.Fprintln(w, "  tui           Launch the read-only dashboard")
	fmt.Fprintln(w, "  doctor        Check config, task file, and schema validity")
	fmt.Fprintln(w, "  version       Show version information")
	fmt.Fprintln(w, "  help          Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options (use with 'ls' command):")
	fmt.Fprintln(w, "  -filter string")
	fmt.Fprintln(w, "        Filter tasks (all|pending|completed)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor Options (use with 'doctor' command):")
	fmt.Fprintln(w, "  -v    Verbose output")
}
