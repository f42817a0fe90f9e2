package library

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	headFirstISBN = "1491910771"
	effectiveISBN = "14919107721"
)

func libraryAt(t *testing.T, dir string) *Library {
	t.Helper()
	lib, err := NewLibrary(NewCatalogStore(dir, testLogger()), testLogger())
	require.NoError(t, err)
	return lib
}

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	return libraryAt(t, t.TempDir())
}

func login(t *testing.T, lib *Library) *Session {
	t.Helper()
	session, err := lib.Login(1, "john123")
	require.NoError(t, err)
	return session
}

func TestLoginValidation(t *testing.T) {
	lib := newTestLibrary(t)

	_, err := lib.Login(0, "john123")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = lib.Login(-7, "john123")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = lib.Login(99, "john123")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = lib.Login(1, "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginSuccess(t *testing.T) {
	lib := newTestLibrary(t)
	session := login(t, lib)

	require.NotNil(t, session.Member())
	assert.Equal(t, 1, session.Member().MemberNumber)

	summary, err := lib.MemberSummary(session)
	require.NoError(t, err)
	assert.Contains(t, summary, "John Doe")
	assert.Contains(t, summary, "john.doe@ucn.cl")
}

// Members are resolved by their number, not by their position in the
// collection, so sparse or unordered numbering works.
func TestLoginFindsMemberByNumberNotPosition(t *testing.T) {
	dir := t.TempDir()
	s := NewCatalogStore(dir, testLogger())
	grace, err := NewMember("Grace", "Hopper", "grace@example.com", 7, "pw7")
	require.NoError(t, err)
	alan, err := NewMember("Alan", "Turing", "alan@example.com", 3, "pw3")
	require.NoError(t, err)
	book, err := NewBook("111", "Title", "Author", "Category")
	require.NoError(t, err)
	s.members = []*Member{grace, alan}
	s.books = []*Book{book}
	require.NoError(t, s.Save())

	lib := libraryAt(t, dir)

	session, err := lib.Login(3, "pw3")
	require.NoError(t, err)
	assert.Equal(t, "Alan Turing", session.Member().FullName())

	session, err = lib.Login(7, "pw7")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", session.Member().FullName())
}

func TestLogoutClearsSessionUnconditionally(t *testing.T) {
	lib := newTestLibrary(t)
	session := login(t, lib)

	lib.Logout(session)
	assert.Nil(t, session.Member())

	_, err := lib.MemberSummary(session)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Logging out again, or with no session at all, is harmless.
	lib.Logout(session)
	lib.Logout(nil)
}

// Logout takes the catalog lock like every other operation, so clearing a
// session races with nothing. Run with -race.
func TestLogoutIsSafeAlongsideOtherCalls(t *testing.T) {
	lib := newTestLibrary(t)
	session := login(t, lib)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		lib.Logout(session)
	}()
	go func() {
		defer wg.Done()
		_, _ = lib.MemberSummary(session)
	}()
	wg.Wait()

	assert.Nil(t, session.Member())
}

func TestOperationsRequireSession(t *testing.T) {
	lib := newTestLibrary(t)

	_, err := lib.MemberSummary(nil)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.ErrorIs(t, lib.ChangeEmail(nil, "x@example.com"), ErrUnauthorized)
	require.ErrorIs(t, lib.ChangePassword(nil, "secret"), ErrUnauthorized)

	_, err = lib.BorrowBook(nil, headFirstISBN)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.ErrorIs(t, lib.ReturnBook(nil, headFirstISBN), ErrUnauthorized)

	_, err = lib.BorrowedBooks(nil)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestBorrowBook(t *testing.T) {
	lib := newTestLibrary(t)
	session := login(t, lib)

	loan, err := lib.BorrowBook(session, headFirstISBN)
	require.NoError(t, err)
	assert.Equal(t, 1, loan.MemberNumber)
	assert.Equal(t, headFirstISBN, loan.ISBN)
	assert.True(t, loan.Open())

	b, err := lib.store.FindBook(headFirstISBN)
	require.NoError(t, err)
	assert.False(t, b.Available, "borrowing flips availability")

	books, err := lib.BorrowedBooks(session)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, headFirstISBN, books[0].ISBN)
}

func TestBorrowBookErrors(t *testing.T) {
	lib := newTestLibrary(t)
	session := login(t, lib)

	_, err := lib.BorrowBook(session, "0000000000")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = lib.BorrowBook(session, headFirstISBN)
	require.NoError(t, err)

	_, err = lib.BorrowBook(session, headFirstISBN)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestReturnBook(t *testing.T) {
	lib := newTestLibrary(t)
	session := login(t, lib)

	_, err := lib.BorrowBook(session, headFirstISBN)
	require.NoError(t, err)
	require.NoError(t, lib.ReturnBook(session, headFirstISBN))

	b, err := lib.store.FindBook(headFirstISBN)
	require.NoError(t, err)
	assert.True(t, b.Available)

	books, err := lib.BorrowedBooks(session)
	require.NoError(t, err)
	assert.Empty(t, books)

	require.ErrorIs(t, lib.ReturnBook(session, headFirstISBN), ErrNotFound)
}

func TestLoansSurviveRestart(t *testing.T) {
	dir := t.TempDir()

	lib := libraryAt(t, dir)
	session := login(t, lib)
	_, err := lib.BorrowBook(session, effectiveISBN)
	require.NoError(t, err)

	reopened := libraryAt(t, dir)
	session = login(t, reopened)

	books, err := reopened.BorrowedBooks(session)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, effectiveISBN, books[0].ISBN)
	assert.False(t, books[0].Available)
}

func TestChangeEmailAndPasswordPersist(t *testing.T) {
	dir := t.TempDir()

	lib := libraryAt(t, dir)
	session := login(t, lib)
	require.NoError(t, lib.ChangeEmail(session, "john@example.com"))
	require.NoError(t, lib.ChangePassword(session, "sw0rdfish"))

	require.ErrorIs(t, lib.ChangeEmail(session, "  "), ErrInvalidArgument)
	require.ErrorIs(t, lib.ChangePassword(session, ""), ErrInvalidArgument)

	reopened := libraryAt(t, dir)
	_, err := reopened.Login(1, "john123")
	require.ErrorIs(t, err, ErrUnauthorized)

	session, err = reopened.Login(1, "sw0rdfish")
	require.NoError(t, err)

	summary, err := reopened.MemberSummary(session)
	require.NoError(t, err)
	assert.Contains(t, summary, "john@example.com")
}

func TestCatalogListing(t *testing.T) {
	lib := newTestLibrary(t)

	listing := lib.Catalog()
	assert.Contains(t, listing, "Head First Java: A Brain-Friendly Guide")
	assert.Contains(t, listing, "Effective Java")
	assert.Contains(t, listing, "ISBN      : 1491910771")
	assert.Contains(t, listing, "Category  : Programming Languages")
	assert.Contains(t, listing, "Available : true")
	assert.NotContains(t, listing, "Available : false")

	_, err := lib.SetAvailability(effectiveISBN)
	require.NoError(t, err)
	assert.Contains(t, lib.Catalog(), "Available : false")
}

func TestRateBook(t *testing.T) {
	lib := newTestLibrary(t)

	rating, err := lib.RateBook(headFirstISBN, 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rating)

	rating, err = lib.RateBook(headFirstISBN, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, rating)

	_, err = lib.RateBook("0000000000", 3)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = lib.RateBook(headFirstISBN, 5.5)
	require.ErrorIs(t, err, ErrInvalidArgument)

	b, err := lib.store.FindBook(headFirstISBN)
	require.NoError(t, err)
	assert.Equal(t, 2, b.RatingCount, "rejected rating must not mutate accumulators")
	assert.Equal(t, 3.0, b.Rating)
}

func TestSetAvailabilityTogglesOncePerCall(t *testing.T) {
	lib := newTestLibrary(t)

	available, err := lib.SetAvailability(headFirstISBN)
	require.NoError(t, err)
	assert.False(t, available)

	available, err = lib.SetAvailability(headFirstISBN)
	require.NoError(t, err)
	assert.True(t, available)

	_, err = lib.SetAvailability("0000000000")
	require.ErrorIs(t, err, ErrNotFound)
}

// The full first-run walkthrough: seed, log in, borrow, rate twice.
func TestEndToEndScenario(t *testing.T) {
	lib := newTestLibrary(t)

	require.Len(t, lib.store.Members(), 1)
	assert.Equal(t, 1, lib.store.Members()[0].MemberNumber)
	require.Len(t, lib.store.Books(), 2)

	session, err := lib.Login(1, "john123")
	require.NoError(t, err)

	_, err = lib.BorrowBook(session, "1491910771")
	require.NoError(t, err)

	books, err := lib.BorrowedBooks(session)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "1491910771", books[0].ISBN)

	rating, err := lib.RateBook("1491910771", 4.0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rating)

	rating, err = lib.RateBook("1491910771", 2.0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, rating)
}
