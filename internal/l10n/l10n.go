// Package l10n provides the localized user-facing strings: notification
// content and calendar event summaries. Locale files are embedded so the
// binary stays self-contained.
package l10n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/tartampluch/remind-day/internal/config"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves message keys for one configured language, falling
// back to English and then to the built-in strings.
type Translator struct {
	localizer *i18n.Localizer
}

// New loads the embedded locales and returns a translator for lang.
// Unknown languages degrade gracefully to English.
func New(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return &Translator{}
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}
	return &Translator{
		localizer: i18n.NewLocalizer(bundle, lang, config.DefaultLanguage),
	}
}

// Title returns the notification title.
func (t *Translator) Title() string {
	return t.msg(config.TKeyNotifTitle, nil, config.FallbackNotifTitle)
}

// Body returns the notification body for a person.
func (t *Translator) Body(name string) string {
	return t.msg(config.TKeyNotifBody,
		map[string]any{"Name": name},
		fmt.Sprintf(config.FallbackNotifBody, name))
}

// Summary returns the calendar event title for a person.
func (t *Translator) Summary(name string) string {
	return t.msg(config.TKeyEvtSummary,
		map[string]any{"Name": name},
		fmt.Sprintf(config.FallbackSummary, name))
}

func (t *Translator) msg(key string, data map[string]any, fallback string) string {
	if t.localizer == nil {
		return fallback
	}
	out, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return fallback
	}
	return out
}
