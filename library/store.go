package library

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

// File names of the three persisted collections inside the data directory.
const (
	BooksFile   = "books.json"
	MembersFile = "members.json"
	LoansFile   = "loans.json"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// CatalogStore owns the in-memory collections of books, members and loans
// and their JSON files on disk. It knows nothing about sessions or lending
// rules; the Library façade layers those on top.
type CatalogStore struct {
	dir    string
	logger *slog.Logger

	books   []*Book
	members []*Member
	loans   []*Loan
}

// NewCatalogStore wires a store to the given data directory. Nothing is
// read from disk until Initialize or Load is called.
func NewCatalogStore(dir string, logger *slog.Logger) *CatalogStore {
	return &CatalogStore{dir: dir, logger: logger}
}

// Initialize loads all collections from disk. On first run, when the files
// do not exist yet, it recovers by seeding the default catalog and persisting
// it immediately so subsequent runs find the files.
func (s *CatalogStore) Initialize() error {
	err := s.Load()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		s.logger.Info("no catalog files found, seeding defaults", "dir", s.dir)
		s.seed()
		return s.Save()
	default:
		return err
	}
}

// seed installs the hard-coded default catalog: one member and two books.
func (s *CatalogStore) seed() {
	john, _ := NewMember("John", "Doe", "john.doe@ucn.cl", 1, "john123")
	headFirst, _ := NewBook("1491910771", "Head First Java: A Brain-Friendly Guide", "Kathy Sierra", "Programming Languages")
	effective, _ := NewBook("14919107721", "Effective Java", "Joshua Bloch", "Programming Languages")

	s.members = []*Member{john}
	s.books = []*Book{headFirst, effective}
	s.loans = nil
}

// Load replaces the in-memory collections with the file contents. A missing
// books or members file is ErrNotFound; unparseable content is ErrCorruptData.
// A missing loans file alone is tolerated: data directories written before
// loans were persisted simply have no open loans.
func (s *CatalogStore) Load() error {
	var (
		books   []*Book
		members []*Member
		loans   []*Loan
	)
	if err := readJSON(filepath.Join(s.dir, BooksFile), &books); err != nil {
		return err
	}
	if err := readJSON(filepath.Join(s.dir, MembersFile), &members); err != nil {
		return err
	}
	if err := readJSON(filepath.Join(s.dir, LoansFile), &loans); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := checkIdentifiers(books, members, loans); err != nil {
		return err
	}

	s.books, s.members, s.loans = books, members, loans
	s.logger.Debug("catalog loaded", "books", len(books), "members", len(members), "loans", len(loans))
	return nil
}

// Save rewrites every collection, one whole file at a time. Empty
// collections are written as [] so each file always holds a JSON array.
func (s *CatalogStore) Save() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create data dir %s: %v", ErrIOFailure, s.dir, err)
	}
	if err := writeJSON(filepath.Join(s.dir, BooksFile), notNil(s.books)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(s.dir, MembersFile), notNil(s.members)); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.dir, LoansFile), notNil(s.loans))
}

func notNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

// checkIdentifiers rejects loaded data whose identifiers collide; the rest
// of the package relies on ISBNs and member numbers being unique. A JSON
// null inside any array decodes to a nil pointer, so those are rejected
// here too before anything dereferences them.
func checkIdentifiers(books []*Book, members []*Member, loans []*Loan) error {
	isbns := make(map[string]struct{}, len(books))
	for _, b := range books {
		if b == nil {
			return fmt.Errorf("%w: null book entry", ErrCorruptData)
		}
		if _, dup := isbns[b.ISBN]; dup {
			return fmt.Errorf("%w: duplicate isbn %s", ErrCorruptData, b.ISBN)
		}
		isbns[b.ISBN] = struct{}{}
	}
	numbers := make(map[int]struct{}, len(members))
	for _, m := range members {
		if m == nil {
			return fmt.Errorf("%w: null member entry", ErrCorruptData)
		}
		if _, dup := numbers[m.MemberNumber]; dup {
			return fmt.Errorf("%w: duplicate member number %d", ErrCorruptData, m.MemberNumber)
		}
		numbers[m.MemberNumber] = struct{}{}
	}
	for _, l := range loans {
		if l == nil {
			return fmt.Errorf("%w: null loan entry", ErrCorruptData)
		}
	}
	return nil
}

// FindBook resolves a book by scanning for a matching ISBN, never by
// position in the collection.
func (s *CatalogStore) FindBook(isbn string) (*Book, error) {
	for _, b := range s.books {
		if b.ISBN == isbn {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: book with isbn %s", ErrNotFound, isbn)
}

// FindMember resolves a member by scanning for a matching member number.
func (s *CatalogStore) FindMember(number int) (*Member, error) {
	for _, m := range s.members {
		if m.MemberNumber == number {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: member number %d", ErrNotFound, number)
}

// Books returns the catalog in stored order.
func (s *CatalogStore) Books() []*Book { return s.books }

// Members returns the member collection in stored order.
func (s *CatalogStore) Members() []*Member { return s.members }

// Loans returns every loan record, open and closed, in issue order.
func (s *CatalogStore) Loans() []*Loan { return s.loans }

// AddLoan appends a loan record.
func (s *CatalogStore) AddLoan(l *Loan) {
	s.loans = append(s.loans, l)
}

// OpenLoan finds the member's open loan of the given book.
func (s *CatalogStore) OpenLoan(memberNumber int, isbn string) (*Loan, error) {
	for _, l := range s.loans {
		if l.MemberNumber == memberNumber && l.ISBN == isbn && l.Open() {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: member %d has no open loan of %s", ErrNotFound, memberNumber, isbn)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: read %s: %v", ErrIOFailure, path, err)
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrCorruptData, path, err)
	}
	return nil
}

// writeJSON rewrites path atomically: the encoded collection lands in a
// temp file in the same directory which is then renamed over the old one.
func writeJSON(path string, v any) error {
	data, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrIOFailure, path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write %s: %v", ErrIOFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close %s: %v", ErrIOFailure, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: replace %s: %v", ErrIOFailure, path, err)
	}
	return nil
}
