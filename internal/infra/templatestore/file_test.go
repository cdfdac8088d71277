package templatestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herald/internal/domain/notification"
)

const sampleTree = `
email:
  en:
    welcome:
      subject: "Hi {{userName}}"
      body: "Welcome!"
  es:
    welcome:
      subject: "Hola {{userName}}"
      body: "¡Bienvenido!"
sms:
  en:
    otp: "Your code is {{code}}"
`

func writeTemplates(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileStore_GetStructuredTemplate(t *testing.T) {
	s := NewFileStore(writeTemplates(t, sampleTree))

	tpl, err := s.Get(notification.ChannelEmail, notification.TypeWelcome, "es")

	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, "Hola {{userName}}", tpl.Subject)
	assert.Equal(t, "¡Bienvenido!", tpl.Body)
}

func TestFileStore_GetFlatTemplate(t *testing.T) {
	s := NewFileStore(writeTemplates(t, sampleTree))

	tpl, err := s.Get(notification.ChannelSMS, notification.TypeOTP, "en")

	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Empty(t, tpl.Subject)
	assert.Equal(t, "Your code is {{code}}", tpl.Body)
}

func TestFileStore_MissReturnsNilNil(t *testing.T) {
	s := NewFileStore(writeTemplates(t, sampleTree))

	tpl, err := s.Get(notification.ChannelEmail, notification.TypeWelcome, "fr")
	require.NoError(t, err)
	assert.Nil(t, tpl)

	tpl, err = s.Get(notification.ChannelPush, notification.TypeWelcome, "en")
	require.NoError(t, err)
	assert.Nil(t, tpl)
}

func TestFileStore_ExistsAndLanguages(t *testing.T) {
	s := NewFileStore(writeTemplates(t, sampleTree))

	assert.True(t, s.Exists(notification.ChannelEmail, notification.TypeWelcome))
	assert.False(t, s.Exists(notification.ChannelEmail, notification.TypeOTP))

	assert.Equal(t, []string{"en", "es"}, s.Languages(notification.ChannelEmail, notification.TypeWelcome))
	assert.Empty(t, s.Languages(notification.ChannelPush, notification.TypeWelcome))
}

func TestFileStore_MalformedEntrySkipped(t *testing.T) {
	tree := `
email:
  en:
    welcome:
      subject: "no body here"
    otp:
      subject: "Code"
      body: "Your code is {{code}}"
`
	s := NewFileStore(writeTemplates(t, tree))

	// The entry without a body is dropped; its sibling survives.
	tpl, err := s.Get(notification.ChannelEmail, notification.TypeWelcome, "en")
	require.NoError(t, err)
	assert.Nil(t, tpl)

	tpl, err = s.Get(notification.ChannelEmail, notification.TypeOTP, "en")
	require.NoError(t, err)
	require.NotNil(t, tpl)
}

func TestFileStore_MissingFileDegradesToMiss(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := s.Get(notification.ChannelEmail, notification.TypeWelcome, "en")
	assert.Error(t, err)
	assert.False(t, s.Exists(notification.ChannelEmail, notification.TypeWelcome))
	assert.Nil(t, s.Languages(notification.ChannelEmail, notification.TypeWelcome))
}

func TestFileStore_FailedPrimeRetries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.yaml")
	s := NewFileStore(path)

	// First access fails: the file does not exist yet.
	_, err := s.Get(notification.ChannelEmail, notification.TypeWelcome, "en")
	require.Error(t, err)

	// Once the file appears the next access primes successfully.
	require.NoError(t, os.WriteFile(path, []byte(sampleTree), 0o644))

	tpl, err := s.Get(notification.ChannelEmail, notification.TypeWelcome, "en")
	require.NoError(t, err)
	require.NotNil(t, tpl)
}

func TestFileStore_PrimeIsIdempotent(t *testing.T) {
	path := writeTemplates(t, sampleTree)
	s := NewFileStore(path)

	tpl, err := s.Get(notification.ChannelEmail, notification.TypeWelcome, "en")
	require.NoError(t, err)
	require.NotNil(t, tpl)

	// Replacing the file after a successful prime has no effect: the cache
	// was loaded exactly once.
	require.NoError(t, os.WriteFile(path, []byte("email: {}"), 0o644))

	tpl, err = s.Get(notification.ChannelEmail, notification.TypeWelcome, "en")
	require.NoError(t, err)
	require.NotNil(t, tpl)
}
