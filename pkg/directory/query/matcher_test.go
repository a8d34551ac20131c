package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesEmptyQuery(t *testing.T) {
	q := New()
	require.True(t, q.Matches("cv", "iTitus", "pdf", []string{"Hausaufgaben"}))
	require.True(t, q.Matches("", "", "", nil))
}

func TestMatchesOwnerSubstringCaseInsensitive(t *testing.T) {
	q := New()
	require.NoError(t, q.AddOwner("iTitus"))
	require.True(t, q.Matches("cv", "iTitus", "pdf", []string{"Hausaufgaben"}))
	require.True(t, q.Matches("cv", "ITITUS", "pdf", nil))
	require.False(t, q.Matches("cv", "jens", "pdf", nil))
}

func TestMatchesCategoriesAreAnded(t *testing.T) {
	// Type matches but the tag doesn't: the AND fails.
	q := New()
	require.NoError(t, q.AddTag("lösungen"))
	require.NoError(t, q.AddType("pdf"))
	require.False(t, q.Matches("cv", "iTitus", "pdf", []string{"Hausaufgaben"}))
}

func TestMatchesTagExactAndCaseSensitive(t *testing.T) {
	q := New()
	require.NoError(t, q.AddTag("Hausaufgaben"))
	require.True(t, q.Matches("cv", "iTitus", "pdf", []string{"Hausaufgaben"}))
	require.False(t, q.Matches("cv", "iTitus", "pdf", []string{"hausaufgaben"}))
	require.False(t, q.Matches("cv", "iTitus", "pdf", []string{"Hausaufgabe"}))
}

func TestMatchesWithinCategoryIsOr(t *testing.T) {
	q := New()
	require.NoError(t, q.AddOwner("jens"))
	require.NoError(t, q.AddOwner("chris"))
	require.True(t, q.Matches("cv", "chris", "pdf", nil))
	require.True(t, q.Matches("cv", "jens", "pdf", nil))
	require.False(t, q.Matches("cv", "maria", "pdf", nil))
}

func TestMatchesNameAndTypeSubstrings(t *testing.T) {
	q := New()
	require.NoError(t, q.AddName("report"))
	require.True(t, q.Matches("Annual Report 2024", "x", "pdf", nil))
	require.False(t, q.Matches("notes", "x", "pdf", nil))

	q = New()
	require.NoError(t, q.AddType("application/pdf"))
	require.True(t, q.Matches("x", "x", "application/pdf; charset=binary", nil))
	require.False(t, q.Matches("x", "x", "image/png", nil))
}

func TestParsedQueryMatchesEndToEnd(t *testing.T) {
	q := Parse("owner:ititus type:pdf")
	require.True(t, q.Matches("cv", "iTitus", "pdf", []string{"Hausaufgaben"}))

	q = Parse(`tag:skript`)
	require.True(t, q.Matches("x", "x", "x", []string{"skript"}))
	require.False(t, q.Matches("x", "x", "x", []string{"Skript"}))
}
