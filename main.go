package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"bibliotech/config"
	"bibliotech/library"
	"bibliotech/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bibliotech",
		Short:        "Library catalog with members, loans and star ratings",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			runConsole(lib)
			return nil
		},
	}
	root.AddCommand(newCatalogCmd())
	return root
}

// newCatalogCmd prints the book listing without entering the interactive menu.
func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the book catalog and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			fmt.Print(lib.Catalog())
			return nil
		},
	}
}

func openLibrary() (*library.Library, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.Logging)
	store := library.NewCatalogStore(cfg.DataDir, logger)
	return library.NewLibrary(store, logger)
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

// runConsole drives the interactive menu. All domain decisions live in the
// library package; this loop only prompts, parses and prints.
func runConsole(lib *library.Library) {
	scanner := bufio.NewScanner(os.Stdin)
	var session *library.Session

	fmt.Println("Welcome to Bibliotech!")
	fmt.Println("Available commands:")
	fmt.Println("  Account: login, logout, profile, change email, change password")
	fmt.Println("  Books: catalog, borrow, return, my books, rate, toggle")
	fmt.Println("  System: exit")

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))

		switch cmd {
		case "login":
			session = handleLogin(scanner, lib)
		case "logout":
			lib.Logout(session)
			fmt.Println("Logged out.")
		case "profile":
			printOrError(lib.MemberSummary(session))
		case "change email":
			handleChangeEmail(scanner, lib, session)
		case "change password":
			handleChangePassword(lib, session)
		case "catalog":
			fmt.Print(lib.Catalog())
		case "borrow":
			handleBorrow(scanner, lib, session)
		case "return":
			handleReturn(scanner, lib, session)
		case "my books":
			handleMyBooks(lib, session)
		case "rate":
			handleRate(scanner, lib)
		case "toggle":
			handleToggle(scanner, lib)
		case "exit":
			fmt.Println("Goodbye!")
			return
		case "":
			continue
		default:
			fmt.Println("Unknown command. Type one of the available commands listed above.")
		}
	}
}

func handleLogin(sc *bufio.Scanner, lib *library.Library) *library.Session {
	fmt.Print("Member number: ")
	if !sc.Scan() {
		return nil
	}
	numberStr := strings.TrimSpace(sc.Text())
	number, err := strconv.Atoi(numberStr)
	if err != nil {
		fmt.Printf("Invalid member number: %s\n", numberStr)
		return nil
	}

	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return nil
	}

	session, err := lib.Login(number, password)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return nil
	}

	fmt.Printf("Welcome, %s!\n", session.Member().FullName())
	return session
}

func handleChangeEmail(sc *bufio.Scanner, lib *library.Library, session *library.Session) {
	fmt.Print("New email: ")
	if !sc.Scan() {
		return
	}
	email := strings.TrimSpace(sc.Text())

	if err := lib.ChangeEmail(session, email); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Email updated.")
}

func handleChangePassword(lib *library.Library, session *library.Session) {
	password, err := readPassword("New password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}

	if err := lib.ChangePassword(session, password); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Password updated.")
}

func handleBorrow(sc *bufio.Scanner, lib *library.Library, session *library.Session) {
	fmt.Print("ISBN: ")
	if !sc.Scan() {
		return
	}
	isbn := strings.TrimSpace(sc.Text())

	loan, err := lib.BorrowBook(session, isbn)
	if err != nil {
		fmt.Printf("Error borrowing book: %v\n", err)
		return
	}

	books, err := lib.BorrowedBooks(session)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Borrowed '%s' (loan %s)\n", books[len(books)-1].Title, loan.ID)
}

func handleReturn(sc *bufio.Scanner, lib *library.Library, session *library.Session) {
	fmt.Print("ISBN: ")
	if !sc.Scan() {
		return
	}
	isbn := strings.TrimSpace(sc.Text())

	if err := lib.ReturnBook(session, isbn); err != nil {
		fmt.Printf("Error returning book: %v\n", err)
		return
	}
	fmt.Println("Book returned.")
}

func handleMyBooks(lib *library.Library, session *library.Session) {
	books, err := lib.BorrowedBooks(session)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		fmt.Println("No books on loan.")
		return
	}
	for _, b := range books {
		fmt.Printf("%s by %s (isbn %s)\n", b.Title, b.Author, b.ISBN)
	}
}

func handleRate(sc *bufio.Scanner, lib *library.Library) {
	fmt.Print("ISBN: ")
	if !sc.Scan() {
		return
	}
	isbn := strings.TrimSpace(sc.Text())

	fmt.Print("Stars (0-5): ")
	if !sc.Scan() {
		return
	}
	starsStr := strings.TrimSpace(sc.Text())
	stars, err := strconv.ParseFloat(starsStr, 64)
	if err != nil {
		fmt.Printf("Invalid star count: %s\n", starsStr)
		return
	}

	rating, err := lib.RateBook(isbn, stars)
	if err != nil {
		fmt.Printf("Error rating book: %v\n", err)
		return
	}
	fmt.Printf("New rating: %.1f\n", rating)
}

func handleToggle(sc *bufio.Scanner, lib *library.Library) {
	fmt.Print("ISBN: ")
	if !sc.Scan() {
		return
	}
	isbn := strings.TrimSpace(sc.Text())

	available, err := lib.SetAvailability(isbn)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if available {
		fmt.Println("Book is now available.")
	} else {
		fmt.Println("Book is now unavailable.")
	}
}

func printOrError(s string, err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(s)
}
