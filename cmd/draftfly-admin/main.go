// draftfly-admin manages the shared API credential directly against the
// sqlite store, for operators without access to the admin HTTP surface.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/berryhill/draftfly-wp/internal/db"
	"github.com/berryhill/draftfly-wp/internal/keystore"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: draftfly-admin [-db path] generate|show|revoke")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	dbPath := flag.String("db", "./draftfly.db", "Path to the sqlite database")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
	}

	sqlite := db.NewSQLite(*dbPath)
	if err := sqlite.InitDB(); err != nil {
		fmt.Fprintln(os.Stderr, "Error opening database:", err)
		os.Exit(1)
	}
	defer sqlite.Close()

	keys := keystore.New(sqlite)

	switch flag.Arg(0) {
	case "generate":
		key, err := keys.Generate()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error generating key:", err)
			os.Exit(1)
		}
		fmt.Println(labelStyle.Render("New API key: ") + keyStyle.Render(key))
		fmt.Println(warnStyle.Render("Any previously issued key is now invalid."))
	case "show":
		key, err := keys.Current()
		if err != nil {
			if errors.Is(err, keystore.ErrNoKey) {
				fmt.Println(warnStyle.Render("No API key configured. Run 'draftfly-admin generate'."))
				os.Exit(1)
			}
			fmt.Fprintln(os.Stderr, "Error reading key:", err)
			os.Exit(1)
		}
		fmt.Println(labelStyle.Render("Current API key: ") + keyStyle.Render(key))
	case "revoke":
		if err := keys.Revoke(); err != nil {
			fmt.Fprintln(os.Stderr, "Error revoking key:", err)
			os.Exit(1)
		}
		fmt.Println(labelStyle.Render("API key revoked.") + " " + warnStyle.Render("All clients are now locked out."))
	default:
		usage()
	}
}
