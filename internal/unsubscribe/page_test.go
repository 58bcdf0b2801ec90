package unsubscribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlreadyDone(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"confirmation page", "You have been unsubscribed from our mailing list.", true},
		{"removed", "Your address was removed.", true},
		{"no longer receive", "You will no longer receive emails from us.", true},
		{"success", "Success! Your preferences were saved.", true},
		{"case insensitive", "UNSUBSCRIBED", true},
		{"pending confirmation", "Click the button below to confirm.", false},
		{"present tense is not done", "Unsubscribe from this list", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AlreadyDone(tt.text))
		})
	}
}

func TestExtractForms(t *testing.T) {
	const base = "https://news.acme.com/prefs/center"

	t.Run("hidden fields carried in document order", func(t *testing.T) {
		html := `<form action="/prefs/confirm" method="post">
			<p>Unsubscribe from all emails</p>
			<input type="hidden" name="token" value="abc123">
			<input type="email" name="email" value="jo@example.com">
			<button type="submit">Confirm</button>
		</form>`

		forms := ExtractForms(html, base)
		require.Len(t, forms, 1)
		assert.Equal(t, "https://news.acme.com/prefs/confirm", forms[0].SubmitURL)
		assert.Equal(t, "POST", forms[0].Method)
		assert.Equal(t, []FormField{
			{Name: "token", Value: "abc123"},
			{Name: "email", Value: "jo@example.com"},
		}, forms[0].Fields)
	})

	t.Run("empty action submits to the page itself", func(t *testing.T) {
		html := `<form><span>Opt out</span><input name="id" value="7"></form>`

		forms := ExtractForms(html, base)
		require.Len(t, forms, 1)
		assert.Equal(t, base, forms[0].SubmitURL)
		assert.Equal(t, "GET", forms[0].Method)
	})

	t.Run("unchecked checkbox excluded, checked included", func(t *testing.T) {
		html := `<form action="/u">Remove me
			<input type="checkbox" name="marketing" value="yes">
			<input type="checkbox" name="all" value="yes" checked>
			<input type="radio" name="reason" value="too-many" checked>
			<input type="radio" name="other" value="x">
		</form>`

		forms := ExtractForms(html, base)
		require.Len(t, forms, 1)
		assert.Equal(t, []FormField{
			{Name: "all", Value: "yes"},
			{Name: "reason", Value: "too-many"},
		}, forms[0].Fields)
	})

	t.Run("unnamed inputs dropped", func(t *testing.T) {
		html := `<form action="/u">Unsubscribe
			<input type="hidden" value="orphan">
			<input name="kept" value="1">
		</form>`

		forms := ExtractForms(html, base)
		require.Len(t, forms, 1)
		assert.Equal(t, []FormField{{Name: "kept", Value: "1"}}, forms[0].Fields)
	})

	t.Run("duplicate name keeps last value in place", func(t *testing.T) {
		html := `<form action="/u">Unsubscribe
			<input name="mode" value="first">
			<input name="other" value="x">
			<input name="mode" value="second">
		</form>`

		forms := ExtractForms(html, base)
		require.Len(t, forms, 1)
		assert.Equal(t, []FormField{
			{Name: "mode", Value: "second"},
			{Name: "other", Value: "x"},
		}, forms[0].Fields)
	})

	t.Run("form without unsubscribe vocabulary skipped", func(t *testing.T) {
		html := `<form action="/search"><input name="q"></form>
			<form action="/u"><label>Opt-out of emails</label><input name="id" value="9"></form>`

		forms := ExtractForms(html, base)
		require.Len(t, forms, 1)
		assert.Equal(t, "https://news.acme.com/u", forms[0].SubmitURL)
	})

	t.Run("absolute action left untouched", func(t *testing.T) {
		html := `<form action="https://other.example.com/unsub">Unsubscribe<input name="t" value="1"></form>`

		forms := ExtractForms(html, base)
		require.Len(t, forms, 1)
		assert.Equal(t, "https://other.example.com/unsub", forms[0].SubmitURL)
	})

	t.Run("no forms on page", func(t *testing.T) {
		assert.Empty(t, ExtractForms(`<p>Unsubscribe by replying to this email.</p>`, base))
	})
}

func TestFormValues(t *testing.T) {
	f := Form{Fields: []FormField{{Name: "token", Value: "abc123"}, {Name: "email", Value: "jo@example.com"}}}
	v := f.Values()
	assert.Equal(t, "abc123", v.Get("token"))
	assert.Equal(t, "jo@example.com", v.Get("email"))
}

func TestExtractLinks(t *testing.T) {
	const base = "https://news.acme.com/prefs/center"

	html := `<p>We are sorry to see you go.</p>
		<a href="/prefs/confirm?id=42"> Confirm unsubscribe </a>
		<a href="https://news.acme.com/help">Help center</a>
		<a href="stay">Remove me from the list</a>`

	links := ExtractLinks(html, base)
	require.Len(t, links, 2)
	assert.Equal(t, "https://news.acme.com/prefs/confirm?id=42", links[0].URL)
	assert.Equal(t, "Confirm unsubscribe", links[0].Text)
	assert.Equal(t, "https://news.acme.com/prefs/stay", links[1].URL)
}

func TestExtractLinksNoCandidates(t *testing.T) {
	assert.Empty(t, ExtractLinks(`<a href="/home">Home</a>`, "https://news.acme.com/"))
}
