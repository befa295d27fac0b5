package notice

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_BaseLocale(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tr := c.Translator("en-US")
	require.Equal(t, "en-US", tr.Locale())
	require.Equal(t, "This course is not available right now.", tr.Text(CourseNotAvailable))
}

func TestTranslator_MatchesRegionVariant(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tr := c.Translator("fr-CA")
	require.Equal(t, "fr-FR", tr.Locale())
	require.Equal(t, "Vous êtes hors ligne", tr.Text(NoInternetTitle))
}

func TestTranslator_UnknownLocaleFallsBack(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tr := c.Translator("xx")
	require.Equal(t, "en-US", tr.Locale())
	require.Equal(t, "You are offline", tr.Text(NoInternetTitle))
}

func TestTranslator_MissingKeyFilledFromBase(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tr := c.Translator("fr-FR")
	require.Equal(t, "Course ended on 01/02/2026", tr.Format(CourseEnded, map[string]string{"Date": "01/02/2026"}))
}

func TestTranslator_UnknownKey(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.Equal(t, "NOT_A_KEY", c.Translator("en-US").Text(Key("NOT_A_KEY")))
}

func TestFormat(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tr := c.Translator("en-US")
	require.Equal(t, "Complete by 12/05/2026", tr.Format(CompleteBy, map[string]string{"Date": "12/05/2026"}))
	require.Equal(t, "Complete by ", tr.Format(CompleteBy, nil))
}

func TestLoad_RequiresBaseLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/fr-FR.yaml": {Data: []byte("locale: fr-FR\nmessages:\n  NO_INTERNET: x\n")},
	}
	_, err := Load(fsys)
	require.Error(t, err)
}

func TestLoad_RejectsMismatchedLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US.yaml": {Data: []byte("locale: fr-FR\nmessages:\n  NO_INTERNET: x\n")},
	}
	_, err := Load(fsys)
	require.Error(t, err)
}
