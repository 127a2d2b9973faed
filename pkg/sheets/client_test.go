package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSheetID(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "edit link",
			url:  "https://docs.google.com/spreadsheets/d/1aB_c-9/edit#gid=0",
			want: "1aB_c-9",
		},
		{
			name: "bare link",
			url:  "https://docs.google.com/spreadsheets/d/SHEET1",
			want: "SHEET1",
		},
		{
			name:    "wrong host",
			url:     "https://drive.google.com/spreadsheets/d/abc",
			wantErr: true,
		},
		{
			name:    "no id",
			url:     "https://docs.google.com/document/d/abc/edit",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractSheetID(tc.url)
			if tc.wantErr {
				assert.True(t, eris.Is(err, ErrNotSheetURL))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUpload(t *testing.T) {
	var cleared bool
	var gotBody valueRange

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/SHEET1/values/Leads:clear":
			cleared = true
		case r.Method == http.MethodPut && r.URL.Path == "/SHEET1/values/Leads!A1":
			assert.True(t, cleared, "update must follow clear")
			assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("token-1", WithBaseURL(srv.URL))
	rows := [][]string{
		{"enterprise_number", "name"},
		{"0776654321", "Salon Aurore"},
	}
	require.NoError(t, client.Upload(context.Background(), "SHEET1", "Leads", rows))
	assert.Equal(t, rows, gotBody.Values)
	assert.Equal(t, "ROWS", gotBody.MajorDimension)
}

func TestUploadEmptyRowsWritesMarker(t *testing.T) {
	var gotBody valueRange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		}
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("t", WithBaseURL(srv.URL))
	require.NoError(t, client.Upload(context.Background(), "S", "Leads", nil))
	assert.Equal(t, [][]string{{"no_data"}}, gotBody.Values)
}

func TestUploadAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("t", WithBaseURL(srv.URL))
	err := client.Upload(context.Background(), "S", "Leads", [][]string{{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
