package services

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestResolveSkipsUsersWithoutToken(t *testing.T) {
	tokens := tokensFor("a", "c")
	r := NewResolver(tokens)

	recipients, skipped := r.Resolve(context.Background(), "a", "b", "c")

	assert.Equal(t, []Recipient{
		{UserID: "a", Target: tokenFor("a")},
		{UserID: "c", Target: tokenFor("c")},
	}, recipients)
	assert.Equal(t, 1, skipped)
}

func TestResolveLookupFailureSkipsOnlyThatUser(t *testing.T) {
	tokens := tokensFor("a", "b")
	tokens.fail["a"] = true
	r := NewResolver(tokens)

	recipients, skipped := r.Resolve(context.Background(), "a", "b")

	assert.Equal(t, []Recipient{{UserID: "b", Target: tokenFor("b")}}, recipients)
	assert.Equal(t, 1, skipped)
}

func TestResolveIgnoresDuplicatesAndEmptyIDs(t *testing.T) {
	id := gofakeit.UUID()
	r := NewResolver(tokensFor(id))

	recipients, skipped := r.Resolve(context.Background(), id, "", id)

	assert.Len(t, recipients, 1)
	assert.Zero(t, skipped)
}

func TestResolveNothing(t *testing.T) {
	r := NewResolver(tokensFor())
	recipients, skipped := r.Resolve(context.Background())
	assert.Empty(t, recipients)
	assert.Zero(t, skipped)
}
