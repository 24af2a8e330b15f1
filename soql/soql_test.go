package soql

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	cases := []struct {
		id       string
		expected bool
	}{
		{"0055g00000ABCDE", true},
		{"0055g00000ABCDEAAA", true},
		{"0055g00000ABCD", false},
		{"0055g00000ABCDEAA", false},
		{"005' OR Name != '", false},
		{"", false},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, ValidID(c.id), c.id)
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("Account"))
	assert.True(t, ValidName("Invoice__c"))
	assert.False(t, ValidName("Account/../User"))
	assert.False(t, ValidName("1Account"))
	assert.False(t, ValidName(""))
}

func TestValidField(t *testing.T) {
	assert.True(t, ValidField("Name"))
	assert.True(t, ValidField("Account.Owner.Name"))
	assert.False(t, ValidField("Name,(SELECT Id FROM User)"))
	assert.False(t, ValidField("Account."))
}

func TestQuote(t *testing.T) {
	cases := []struct {
		value    string
		expected string
	}{
		{"Acme", `'Acme'`},
		{"O'Brien", `'O\'Brien'`},
		{`back\slash`, `'back\\slash'`},
		{"line\nbreak", `'line\nbreak'`},
		{`' OR Id != '`, `'\' OR Id != \''`},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, Quote(c.value))
	}
}

func TestContains(t *testing.T) {
	assert.Equal(t, `'%acme%'`, Contains("acme"))
	assert.Equal(t, `'%100\%\_off%'`, Contains("100%_off"))
	assert.Equal(t, `'%it\'s%'`, Contains("it's"))
}

func TestQuery_Build(t *testing.T) {
	q, err := Select("Id", "Name", "Owner.Name").
		From("Opportunity").
		WhereID("OwnerId", "0055g00000ABCDE").
		WhereBool("IsClosed", false).
		OrderBy("CloseDate ASC").
		Limit(200).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "SELECT Id, Name, Owner.Name FROM Opportunity WHERE OwnerId = '0055g00000ABCDE' AND IsClosed = false ORDER BY CloseDate ASC LIMIT 200", q)
}

func TestQuery_Build_contains(t *testing.T) {
	q, err := Select("Id", "Name", "Email").
		From("Contact").
		WhereAnyContains("o'neil", "Name", "Email").
		Build()

	require.NoError(t, err)
	assert.Equal(t, `SELECT Id, Name, Email FROM Contact WHERE (Name LIKE '%o\'neil%' OR Email LIKE '%o\'neil%')`, q)
}

func TestQuery_Build_equals(t *testing.T) {
	q, err := Select("Id").From("Task").WhereEquals("Status", "Not Started").Build()

	require.NoError(t, err)
	assert.Equal(t, `SELECT Id FROM Task WHERE Status = 'Not Started'`, q)
}

func TestQuery_Build_invalidID(t *testing.T) {
	_, err := Select("Id").
		From("Account").
		WhereID("OwnerId", "x' OR OwnerId != 'y").
		Build()

	require.Error(t, err)
	assert.Equal(t, ErrInvalidValue, errors.Cause(err))
	assert.Contains(t, err.Error(), "OwnerId")
}

func TestQuery_Build_invalidNames(t *testing.T) {
	cases := []*Query{
		Select("Id, (SELECT Id FROM Contacts)").From("Account"),
		Select("Id").From("Account WHERE Name != null"),
		Select("Id").From("Account").WhereBool("IsDeleted = true OR IsClosed", true),
	}

	for _, q := range cases {
		_, err := q.Build()
		assert.Equal(t, ErrInvalidValue, errors.Cause(err))
	}
}

func TestQuery_Build_incomplete(t *testing.T) {
	_, err := Select().From("Account").Build()
	assert.Error(t, err)

	_, err = Select("Id").Build()
	assert.Error(t, err)
}
