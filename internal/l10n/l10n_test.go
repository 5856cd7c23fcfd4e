package l10n_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/remind-day/internal/config"
	"github.com/tartampluch/remind-day/internal/l10n"
)

func TestTranslator_English(t *testing.T) {
	tr := l10n.New("en")

	assert.Equal(t, "\U0001F389 Birthday Reminder!", tr.Title())
	assert.Equal(t, "Today is Alice's birthday! Don't forget to wish them!", tr.Body("Alice"))
	assert.Equal(t, "Birthday: Alice", tr.Summary("Alice"))
}

func TestTranslator_French(t *testing.T) {
	tr := l10n.New("fr")

	assert.Contains(t, tr.Title(), "Rappel")
	assert.Contains(t, tr.Body("Alice"), "Alice")
	assert.Equal(t, "Anniversaire : Alice", tr.Summary("Alice"))
}

func TestTranslator_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	tr := l10n.New("xx")

	assert.Equal(t, "Birthday: Alice", tr.Summary("Alice"))
}

func TestTranslator_EmptyLanguageUsesDefault(t *testing.T) {
	tr := l10n.New("")

	assert.NotEmpty(t, tr.Title())
}

// TestI18nIntegrity ensures that every translation key defined in config.go
// exists in every locale JSON file.
func TestI18nIntegrity(t *testing.T) {
	keysToCheck := []string{
		config.TKeyNotifTitle,
		config.TKeyNotifBody,
		config.TKeyEvtSummary,
	}

	entries, err := os.ReadDir("locales")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		content, err := os.ReadFile("locales/" + entry.Name())
		require.NoError(t, err)

		var jsonMap map[string]interface{}
		require.NoErrorf(t, json.Unmarshal(content, &jsonMap), "%s must be valid JSON", entry.Name())

		for _, key := range keysToCheck {
			_, exists := jsonMap[key]
			assert.Truef(t, exists, "Key '%s' defined in config.go is missing in %s", key, entry.Name())
		}
	}
}
