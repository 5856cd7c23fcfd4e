package vcf_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/remind-day/internal/vcf"
)

const sampleVCF = `BEGIN:VCARD
VERSION:3.0
FN:Alice Martin
BDAY:1990-03-14
NOTE:Loves pie
END:VCARD
BEGIN:VCARD
VERSION:4.0
FN:Bob Stone
BDAY:--12-25
END:VCARD
BEGIN:VCARD
VERSION:3.0
FN:No Birthday
END:VCARD
`

func TestParseStream_ExtractsContacts(t *testing.T) {
	contacts, err := vcf.ParseStream(context.Background(), strings.NewReader(sampleVCF))
	require.NoError(t, err)
	require.Len(t, contacts, 2, "Cards without a BDAY are skipped")

	assert.Equal(t, "Alice Martin", contacts[0].Name)
	assert.Equal(t, "03-14", contacts[0].BirthDate, "Full dates reduce to MM-DD")
	assert.Equal(t, "Loves pie", contacts[0].Note)

	assert.Equal(t, "Bob Stone", contacts[1].Name)
	assert.Equal(t, "12-25", contacts[1].BirthDate)
	assert.Empty(t, contacts[1].Note)
}

func TestParseStream_DateFormats(t *testing.T) {
	tests := []struct {
		name  string
		bday  string
		want  string
		valid bool
	}{
		{"FullDash", "1985-07-01", "07-01", true},
		{"FullBasic", "19850701", "07-01", true},
		{"RFC3339", "1985-07-01T00:00:00Z", "07-01", true},
		{"NoYearDash", "--02-29", "02-29", true},
		{"NoYearBasic", "--0229", "02-29", true},
		{"Garbage", "someday", "", false},
		{"TextualMonth", "July 1st", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := "BEGIN:VCARD\nVERSION:3.0\nFN:Test\nBDAY:" + tt.bday + "\nEND:VCARD\n"
			contacts, err := vcf.ParseStream(context.Background(), strings.NewReader(card))
			require.NoError(t, err)

			if !tt.valid {
				assert.Empty(t, contacts, "Unparseable dates are skipped, not fatal")
				return
			}
			require.Len(t, contacts, 1)
			assert.Equal(t, tt.want, contacts[0].BirthDate)
		})
	}
}

func TestParseStream_NameFallbacks(t *testing.T) {
	// N only, no FN.
	structured := "BEGIN:VCARD\nVERSION:3.0\nN:Stone;Bob;;;\nBDAY:--12-25\nEND:VCARD\n"
	contacts, err := vcf.ParseStream(context.Background(), strings.NewReader(structured))
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Contains(t, contacts[0].Name, "Stone")

	// Neither FN nor N.
	anonymous := "BEGIN:VCARD\nVERSION:3.0\nBDAY:--12-25\nEND:VCARD\n"
	contacts, err = vcf.ParseStream(context.Background(), strings.NewReader(anonymous))
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Unknown", contacts[0].Name)
}

func TestParseStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := vcf.ParseStream(ctx, strings.NewReader(sampleVCF))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sampleVCF), 0600))

	contacts, err := vcf.ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)

	_, err = vcf.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.vcf"))
	assert.Error(t, err)
}
