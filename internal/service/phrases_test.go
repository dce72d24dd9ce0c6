package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPhrases(t *testing.T) {
	p := DefaultPhrases()

	assert.Positive(t, p.Version)
	for _, lang := range []string{"en", "nl", "fr", "de"} {
		assert.NotEmpty(t, p.FollowUp[lang], lang)
		assert.NotEmpty(t, p.DirectLink[lang], lang)
	}
	assert.Contains(t, p.SQLKeywords, "drop")
}

func TestIsFollowUp(t *testing.T) {
	p := DefaultPhrases()

	for _, q := range []string{
		"What does THIS EXHIBITOR sell?",
		"Waar staat deze exposant?",
		"Quels sont les produits de cet exposant ?",
		"Wo finde ich dieser Aussteller?",
	} {
		assert.True(t, p.IsFollowUp(q), q)
	}
	assert.False(t, p.IsFollowUp("Who sells parquet?"))
}

func TestIsDirectLinkRequest(t *testing.T) {
	p := DefaultPhrases()

	assert.True(t, p.IsDirectLinkRequest("Can I get the direct link?"))
	assert.True(t, p.IsDirectLinkRequest("Wat is hun website?"))
	assert.True(t, p.IsDirectLinkRequest("Donnez-moi le lien direct"))
	assert.False(t, p.IsDirectLinkRequest("Where is stand 12?"))
}

func TestKeywords(t *testing.T) {
	p := DefaultPhrases()

	assert.Equal(t, []string{"oak", "parquet", "vinyl"}, p.Keywords("Where is the oak parquet, or vinyl?"))
	assert.Equal(t, []string{"carrelage"}, p.Keywords("Où est le carrelage ?"))
	assert.Empty(t, p.Keywords("a b c"))
	assert.Equal(t, []string{"parquet", "more"}, p.Keywords("what&#39;s parquet &amp; more"))
}

func TestLoadPhrases_RequiresLists(t *testing.T) {
	_, err := LoadPhrases([]byte("version: 1\nfollow_up: {}\n"))
	assert.Error(t, err)

	_, err = LoadPhrases([]byte("version: [oops"))
	assert.Error(t, err)

	p, err := LoadPhrases([]byte("version: 9\nfollow_up: {en: [that one]}\ndirect_link: {en: [url]}\n"))
	require.NoError(t, err)
	assert.True(t, p.IsFollowUp("tell me about that one"))
	assert.False(t, p.IsStopword("the"))
}
