package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := NewTestConfig()
	ParseEmailTemplates(conf, NewNopLogger())

	data := map[string]string{"Code": "000417", "ValidFor": "3 minutes"}
	for _, name := range []string{"otp_registration", "otp_student", "otp_teacher", "otp_parent", "otp_login", "otp_child"} {
		t.Run(name, func(t *testing.T) {
			msg := &EmailMessage{
				To:           []mail.Address{{Address: "a@x.com"}},
				TemplateName: name,
				TemplateData: data,
			}
			require.NoError(t, msg.Render())
			assert.True(t, msg.HasContent())
			assert.Contains(t, msg.TextContent, "000417")
			assert.Contains(t, msg.TextContent, "3 minutes")
			assert.Contains(t, msg.TextContent, conf.AppName)
			assert.Contains(t, msg.HTMLContent, "000417")
		})
	}

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hello"}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hello", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
		assert.False(t, msg.HasRecipients())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "nope"}
		assert.Error(t, msg.Render())
	})

	t.Run("missing data", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "otp_login", TemplateData: map[string]string{}}
		assert.Error(t, msg.Render(), "test mode rejects missing keys")
	})
}
