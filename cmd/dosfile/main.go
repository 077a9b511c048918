package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/TigerQ/jsbasic/pkg/store"
)

var (
	logger  *slog.Logger
	dataDir string
)

func init() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	flag.StringVar(&dataDir, "data", "", "Volume directory (required)")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: dosfile -data <dir> <command> [args]\n\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  %s\n", color.GreenString("list"))
	fmt.Fprintf(os.Stderr, "  %s %s\n", color.GreenString("cat"), color.CyanString("<name>"))
	fmt.Fprintf(os.Stderr, "  %s %s %s\n", color.GreenString("put"), color.CyanString("<name>"), color.CyanString("<local-file>"))
	fmt.Fprintf(os.Stderr, "  %s %s\n", color.GreenString("rm"), color.CyanString("<name>"))
	os.Exit(2)
}

func main() {
	flag.Parse()
	args := flag.Args()

	if dataDir == "" || len(args) == 0 {
		usage()
	}

	volume, err := store.NewBadgerStore(store.BadgerConfig{
		Logger:    logger,
		Directory: dataDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
	defer volume.Close()

	switch args[0] {
	case "list":
		cmdList(volume)
	case "cat":
		if len(args) != 2 {
			usage()
		}
		cmdCat(volume, args[1])
	case "put":
		if len(args) != 3 {
			usage()
		}
		cmdPut(volume, args[1], args[2])
	case "rm":
		if len(args) != 2 {
			usage()
		}
		cmdRm(volume, args[1])
	default:
		fmt.Fprintf(os.Stderr, "%s Unknown command '%s'\n", color.RedString("Error:"), color.CyanString(args[0]))
		usage()
	}
}

func cmdList(volume *store.BadgerStore) {
	names, err := volume.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := volume.Get(name)
		if err != nil {
			fmt.Printf("%s %s\n", color.CyanString(name), color.RedString("(unreadable)"))
			continue
		}
		fmt.Printf("%8d  %s\n", len(content), color.CyanString(name))
	}
}

func cmdCat(volume *store.BadgerStore, name string) {
	content, err := volume.Get(name)
	if err != nil {
		var notFound *store.ErrKeyNotFound
		if errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "%s File '%s' not found.\n", color.RedString("Error:"), color.CyanString(name))
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
	fmt.Print(content)
}

func cmdPut(volume *store.BadgerStore, name string, localPath string) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
	if err := volume.Set(name, string(data)); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
	color.HiGreen("OK")
}

func cmdRm(volume *store.BadgerStore, name string) {
	if _, err := volume.Get(name); err != nil {
		var notFound *store.ErrKeyNotFound
		if errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "%s File '%s' not found.\n", color.RedString("Error:"), color.CyanString(name))
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
	if err := volume.Delete(name); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
	color.HiGreen("OK")
}
