// Command seedcatalog resets the data directory and writes a fresh default
// catalog, so the console starts from a known state.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"bibliotech/config"
	"bibliotech/library"
	"bibliotech/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	fmt.Println("Cleaning up existing catalog files...")
	for _, name := range []string{library.BooksFile, library.MembersFile, library.LoansFile} {
		path := filepath.Join(cfg.DataDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: could not remove %s: %v\n", path, err)
		}
	}

	store := library.NewCatalogStore(cfg.DataDir, logger)
	if err := store.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %s: %d member(s), %d book(s)\n", cfg.DataDir, len(store.Members()), len(store.Books()))
	fmt.Printf("%-15s %-45s %-20s\n", "ISBN", "Title", "Author")
	for _, b := range store.Books() {
		fmt.Printf("%-15s %-45s %-20s\n", b.ISBN, b.Title, b.Author)
	}
}
