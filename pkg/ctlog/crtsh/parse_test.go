package crtsh_test

import (
	"context"
	"strings"
	"subhunt/pkg/ctlog/crtsh"
	"subhunt/pkg/domain"
	"subhunt/pkg/logger"
	"subhunt/pkg/serrors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "wildcards are dropped",
			body: `[{"name_value":"a.example.com\n*.b.example.com\nc.example.com"}]`,
			want: []string{"a.example.com", "c.example.com"},
		},
		{
			name: "duplicates across entries",
			body: `[{"name_value":"a.example.com\nb.example.com"},{"name_value":"b.example.com\nc.example.com"}]`,
			want: []string{"a.example.com", "b.example.com", "c.example.com"},
		},
		{
			name: "whitespace and empty lines",
			body: `[{"name_value":"  a.example.com \r\n\n\t\nb.example.com\n"}]`,
			want: []string{"a.example.com", "b.example.com"},
		},
		{
			name: "wildcard behind whitespace",
			body: `[{"name_value":"  *.a.example.com"}]`,
			want: []string{},
		},
		{
			name: "case is preserved",
			body: `[{"name_value":"WWW.example.com\nwww.example.com"}]`,
			want: []string{"WWW.example.com", "www.example.com"},
		},
		{
			name: "missing and null name_value",
			body: `[{"id":1,"common_name":"x.example.com"},{"name_value":null},{"name_value":"a.example.com"}]`,
			want: []string{"a.example.com"},
		},
		{
			name: "other fields are skipped",
			body: `[{"issuer_ca_id":183267,"issuer_name":"C=US, O=Let's Encrypt","name_value":"a.example.com",` +
				`"entry_timestamp":"2024-01-01T00:00:00.000","not_after":"2024-04-01T00:00:00"}]`,
			want: []string{"a.example.com"},
		},
		{
			name: "empty array",
			body: `[]`,
			want: []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := crtsh.Decode([]byte(tc.body))
			require.NoError(t, err)
			require.Equal(t, tc.want, set.Sorted())
		})
	}
}

func TestDecode_malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":             `not json`,
		"empty body":           ``,
		"truncated":            `[{"name_value":"a.example.com"`,
		"trailing data":        `[{"name_value":"a.example.com"}] []`,
		"object at top level":  `{"name_value":"a.example.com"}`,
		"null at top level":    `null`,
		"entry is not object":  `[{"name_value":"a.example.com"},"b.example.com"]`,
		"name_value is number": `[{"name_value":42}]`,
		"html error page":      `<html><body>502 Bad Gateway</body></html>`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			set, err := crtsh.Decode([]byte(body))
			require.Error(t, err)
			require.ErrorIs(t, err, serrors.ErrMalformedResponse)
			require.Nil(t, set)
		})
	}
}

func TestClient_Parse(t *testing.T) {
	c := newTestClient(t, nil, crtsh.Options{})
	ctx := context.Background()

	t.Run("scenario", func(t *testing.T) {
		set := c.Parse(ctx, []byte(`[{"name_value":"a.example.com\n*.b.example.com\nc.example.com"}]`))
		require.Equal(t, domain.NewSubdomainSet("a.example.com", "c.example.com"), set)
	})

	t.Run("invalid json fails open", func(t *testing.T) {
		var set domain.SubdomainSet
		require.NotPanics(t, func() {
			set = c.Parse(ctx, []byte("not json"))
		})
		require.NotNil(t, set)
		require.Equal(t, 0, set.Len())
	})

	t.Run("idempotent", func(t *testing.T) {
		body := []byte(`[{"name_value":"a.example.com\nb.example.com"},{"name_value":"b.example.com\n*.c.example.com"}]`)
		require.Equal(t, c.Parse(ctx, body), c.Parse(ctx, body))
	})

	t.Run("never returns wildcards", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString(`[`)
		for i, n := range []string{"*.a.example.com", "b.example.com", " *.c.example.com", "*.", "*.*.d.example.com"} {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(`{"name_value":"` + n + `\nx` + n + `"}`)
		}
		sb.WriteString(`]`)

		set := c.Parse(ctx, []byte(sb.String()))
		require.NotZero(t, set.Len())
		for name := range set {
			require.False(t, strings.HasPrefix(name, "*."), "wildcard %q leaked into the result", name)
			require.NotEmpty(t, name)
		}
	})
}

func TestClient_Parse_debugListsNames(t *testing.T) {
	c := newTestClient(t, nil, crtsh.Options{})
	body := []byte(`[{"name_value":"b.example.com\na.example.com"}]`)

	debugCore, debugLogs := observer.New(zap.DebugLevel)
	c.Parse(logger.WithLogger(context.Background(), zap.New(debugCore)), body)

	entries := debugLogs.FilterMessage("parsed subdomains").All()
	require.Len(t, entries, 1)
	require.EqualValues(t, 2, entries[0].ContextMap()["count"])
	require.Equal(t, []interface{}{"a.example.com", "b.example.com"}, entries[0].ContextMap()["names"])

	infoCore, infoLogs := observer.New(zap.InfoLevel)
	c.Parse(logger.WithLogger(context.Background(), zap.New(infoCore)), body)
	require.Zero(t, infoLogs.Len())
}
