package service

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDisabledEmailService(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "", "http://localhost", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.SendPasswordResetEmail(context.Background(), "a@b.org", "A", "tok"))
	assert.NoError(t, svc.SendWelcomeEmail(context.Background(), "a@b.org", "A"))
}

func TestDisabledEmailServiceDebugLogsResetLink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "", "http://localhost:8080", zap.New(core))
	require.NoError(t, err)
	svc.SetDebug(true)

	require.NoError(t, svc.SendPasswordResetEmail(context.Background(), "a@b.org", "A", "tok"))

	entries := logs.FilterMessage("password reset link (email disabled)").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "http://localhost:8080/reset-password?token=tok", entries[0].ContextMap()["link"])
}

func TestSendPasswordResetEmail(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "office@parish.org", "Parish Office", "https://parish.example", zap.NewNop())

	require.NoError(t, svc.SendPasswordResetEmail(context.Background(), "clerk@parish.org", "<Clerk>", "abc123"))
	require.Len(t, ses.sent, 1)

	in := ses.sent[0]
	assert.Equal(t, "Parish Office <office@parish.org>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"clerk@parish.org"}, in.Destination.ToAddresses)

	html := aws.ToString(in.Content.Simple.Body.Html.Data)
	text := aws.ToString(in.Content.Simple.Body.Text.Data)
	assert.Contains(t, html, "https://parish.example/reset-password?token=abc123")
	assert.Contains(t, html, "&lt;Clerk&gt;", "names are escaped in HTML")
	assert.True(t, strings.Contains(text, "<Clerk>"))
}
