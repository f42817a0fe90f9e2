package library

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Book represents metadata and current availability of a title in the
// catalog, plus the accumulators behind its star rating. The ISBN is the
// identifier and never changes after construction.
type Book struct {
	ISBN        string  `json:"isbn"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	Available   bool    `json:"available"`
	Rating      float64 `json:"rating"`
	TotalStars  float64 `json:"total_stars"`
	RatingCount int     `json:"rating_count"`
}

// NewBook validates the metadata and returns a book that starts out
// available and unrated.
func NewBook(isbn, title, author, category string) (*Book, error) {
	fields := []struct{ name, value string }{
		{"isbn", isbn},
		{"title", title},
		{"author", author},
		{"category", category},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: book %s must not be empty", ErrInvalidArgument, f.name)
		}
	}
	return &Book{
		ISBN:      isbn,
		Title:     title,
		Author:    author,
		Category:  category,
		Available: true,
	}, nil
}

// Rate folds a star rating into the accumulators and recomputes the mean.
// Stars must lie in [0, 5]; anything else leaves the book untouched.
func (b *Book) Rate(stars float64) error {
	if math.IsNaN(stars) || stars < 0 || stars > 5 {
		return fmt.Errorf("%w: stars %v outside [0, 5]", ErrInvalidArgument, stars)
	}
	b.TotalStars += stars
	b.RatingCount++
	b.Rating = b.TotalStars / float64(b.RatingCount)
	return nil
}

// Member represents a registered library member. The member number is the
// identifier and never changes after construction.
type Member struct {
	MemberNumber int    `json:"member_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// NewMember validates the identity fields and the credential.
func NewMember(firstName, lastName, email string, memberNumber int, password string) (*Member, error) {
	fields := []struct{ name, value string }{
		{"first name", firstName},
		{"last name", lastName},
		{"email", email},
		{"password", password},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: member %s must not be empty", ErrInvalidArgument, f.name)
		}
	}
	if memberNumber <= 0 {
		return nil, fmt.Errorf("%w: member number must be positive, got %d", ErrInvalidArgument, memberNumber)
	}
	return &Member{
		MemberNumber: memberNumber,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Password:     password,
	}, nil
}

// FullName joins the member's first and last name for display.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// Loan records that a member holds (or held) a book. The book is referenced
// by ISBN rather than embedded, so catalog state is never duplicated into a
// member's borrowed list.
type Loan struct {
	ID           uuid.UUID  `json:"id"`
	MemberNumber int        `json:"member_number"`
	ISBN         string     `json:"isbn"`
	BorrowedAt   time.Time  `json:"borrowed_at"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
}

// NewLoan opens a loan of the given book to the given member.
func NewLoan(memberNumber int, isbn string) *Loan {
	return &Loan{
		ID:           uuid.New(),
		MemberNumber: memberNumber,
		ISBN:         isbn,
		BorrowedAt:   time.Now().UTC(),
	}
}

// Open reports whether the book is still out.
func (l *Loan) Open() bool {
	return l.ReturnedAt == nil
}
