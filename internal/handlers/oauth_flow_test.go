package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userInfoServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchUserInfo(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    oauthUserInfo
		wantErr error
	}{
		{
			name: "verified v2 account",
			body: `{"id":"g-1","email":"ada@parish.org","name":"Ada","verified_email":true}`,
			want: oauthUserInfo{Subject: "g-1", Email: "ada@parish.org", Name: "Ada"},
		},
		{
			name: "verified openid account",
			body: `{"id":"g-2","email":"obi@parish.org","email_verified":true}`,
			want: oauthUserInfo{Subject: "g-2", Email: "obi@parish.org"},
		},
		{
			name:    "unverified account",
			body:    `{"id":"g-3","email":"admin@parish.org","verified_email":false}`,
			wantErr: errEmailNotVerified,
		},
		{
			name:    "verification flag missing",
			body:    `{"id":"g-4","email":"admin@parish.org"}`,
			wantErr: errEmailNotVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := userInfoServer(t, tt.body)
			got, err := fetchUserInfo(context.Background(), srv.Client(), srv.URL)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchUserInfoMissingEmail(t *testing.T) {
	srv := userInfoServer(t, `{"id":"g-5","verified_email":true}`)
	_, err := fetchUserInfo(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errEmailNotVerified)
}
