package library

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Session carries the member a caller authenticated as. The caller owns the
// session value and passes it into every member-scoped operation; there is
// no ambient logged-in state inside the Library.
type Session struct {
	member *Member
}

// Member returns the logged-in member, or nil after logout.
func (s *Session) Member() *Member {
	if s == nil {
		return nil
	}
	return s.member
}

// Library is a façade over the CatalogStore, keeping console code simple.
// It coordinates authentication, loan issuance, rating aggregation and
// availability changes, and persists the catalog after every mutation.
//
// A single mutex guards each lookup + mutation + persist sequence, so the
// catalog stays consistent even when the façade is shared between
// goroutines.
type Library struct {
	mu     sync.Mutex
	store  *CatalogStore
	logger *slog.Logger
}

// NewLibrary initializes the store (seeding the default catalog on first
// run) and returns the façade.
func NewLibrary(store *CatalogStore, logger *slog.Logger) (*Library, error) {
	if err := store.Initialize(); err != nil {
		return nil, err
	}
	return &Library{store: store, logger: logger}, nil
}

// Login authenticates a member by number and password and returns a fresh
// session. The member is resolved by scanning for a matching member number,
// never by position in the collection.
func (l *Library) Login(memberNumber int, password string) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if memberNumber <= 0 {
		return nil, fmt.Errorf("%w: member number must be positive, got %d", ErrInvalidArgument, memberNumber)
	}
	m, err := l.store.FindMember(memberNumber)
	if err != nil {
		return nil, err
	}
	if m.Password != password {
		return nil, fmt.Errorf("%w: wrong password for member %d", ErrUnauthorized, memberNumber)
	}

	l.logger.Info("member logged in", "member", memberNumber)
	return &Session{member: m}, nil
}

// Logout clears the session unconditionally; logging out twice is a no-op.
func (l *Library) Logout(s *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s == nil || s.member == nil {
		return
	}
	l.logger.Info("member logged out", "member", s.member.MemberNumber)
	s.member = nil
}

// MemberSummary returns the formatted name and email of the session holder.
func (l *Library) MemberSummary(s *Session) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := requireSession(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Name  : %s\nEmail : %s", m.FullName(), m.Email), nil
}

// ChangeEmail updates the session member's email and persists the catalog.
func (l *Library) ChangeEmail(s *Session, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := requireSession(s)
	if err != nil {
		return err
	}
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email must not be empty", ErrInvalidArgument)
	}
	m.Email = email
	return l.store.Save()
}

// ChangePassword updates the session member's credential and persists the
// catalog.
func (l *Library) ChangePassword(s *Session, password string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := requireSession(s)
	if err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password must not be empty", ErrInvalidArgument)
	}
	m.Password = password
	return l.store.Save()
}

// BorrowBook lends the book to the session member: the book must be
// available, the availability flag flips together with the loan record, and
// all collections are persisted in the same step.
func (l *Library) BorrowBook(s *Session, isbn string) (*Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := requireSession(s)
	if err != nil {
		return nil, err
	}
	b, err := l.store.FindBook(isbn)
	if err != nil {
		return nil, err
	}
	if !b.Available {
		return nil, fmt.Errorf("%w: book %s is lent out", ErrUnavailable, isbn)
	}

	loan := NewLoan(m.MemberNumber, isbn)
	b.Available = false
	l.store.AddLoan(loan)
	if err := l.store.Save(); err != nil {
		return nil, err
	}

	l.logger.Info("book lent", "isbn", isbn, "member", m.MemberNumber)
	return loan, nil
}

// ReturnBook closes the session member's open loan of the book and makes it
// available again.
func (l *Library) ReturnBook(s *Session, isbn string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := requireSession(s)
	if err != nil {
		return err
	}
	loan, err := l.store.OpenLoan(m.MemberNumber, isbn)
	if err != nil {
		return err
	}
	b, err := l.store.FindBook(isbn)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	loan.ReturnedAt = &now
	b.Available = true
	if err := l.store.Save(); err != nil {
		return err
	}

	l.logger.Info("book returned", "isbn", isbn, "member", m.MemberNumber)
	return nil
}

// BorrowedBooks returns the books the session member currently holds, in
// the order the loans were issued.
func (l *Library) BorrowedBooks(s *Session) ([]*Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := requireSession(s)
	if err != nil {
		return nil, err
	}
	var books []*Book
	for _, loan := range l.store.Loans() {
		if loan.MemberNumber != m.MemberNumber || !loan.Open() {
			continue
		}
		b, err := l.store.FindBook(loan.ISBN)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// Catalog renders the complete book listing, one block per book in stored
// order. Read-only, no side effects.
func (l *Library) Catalog() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sb strings.Builder
	for _, b := range l.store.Books() {
		fmt.Fprintf(&sb, "Title     : %s\n", b.Title)
		fmt.Fprintf(&sb, "Author    : %s\n", b.Author)
		fmt.Fprintf(&sb, "ISBN      : %s\n", b.ISBN)
		fmt.Fprintf(&sb, "Category  : %s\n", b.Category)
		fmt.Fprintf(&sb, "Rating    : %.1f\n", b.Rating)
		fmt.Fprintf(&sb, "Available : %t\n", b.Available)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RateBook applies a star rating in [0, 5] to the book and returns the new
// mean. Out-of-range stars are rejected without touching the accumulators.
func (l *Library) RateBook(isbn string, stars float64) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.store.FindBook(isbn)
	if err != nil {
		return 0, err
	}
	if err := b.Rate(stars); err != nil {
		return 0, err
	}
	if err := l.store.Save(); err != nil {
		return 0, err
	}

	l.logger.Debug("book rated", "isbn", isbn, "stars", stars, "rating", b.Rating)
	return b.Rating, nil
}

// SetAvailability toggles the book's availability flag, persists the
// catalog and reports the new state.
func (l *Library) SetAvailability(isbn string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.store.FindBook(isbn)
	if err != nil {
		return false, err
	}
	b.Available = !b.Available
	if err := l.store.Save(); err != nil {
		return false, err
	}

	l.logger.Info("availability toggled", "isbn", isbn, "available", b.Available)
	return b.Available, nil
}

func requireSession(s *Session) (*Member, error) {
	if s == nil || s.member == nil {
		return nil, fmt.Errorf("%w: no member logged in", ErrUnauthorized)
	}
	return s.member, nil
}
