package discovery_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"subhunt/internal/discovery"
	"subhunt/pkg/ctlog/crtsh"
	"subhunt/pkg/domain"
	"subhunt/pkg/serrors"
	"subhunt/pkg/storage"
	"testing"
	"time"

	mockctlog "subhunt/pkg/ctlog/mock"
	mockstorage "subhunt/pkg/storage/mock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestDiscoverer(t *testing.T) (*gomock.Controller, *mockctlog.MockClient, *mockstorage.MockStorage, discovery.Discoverer) {
	t.Helper()

	ctrl := gomock.NewController(t)
	client := mockctlog.NewMockClient(ctrl)
	st := mockstorage.NewMockStorage(ctrl)

	return ctrl, client, st, discovery.New(client, st)
}

// expectWithTx wires Storage.WithTx to run the callback with a MockAllStorage.
func expectWithTx(
	t *testing.T,
	ctrl *gomock.Controller,
	m *mockstorage.MockStorage,
	fn func(tx *mockstorage.MockAllStorage)) {
	t.Helper()

	m.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cb func(storage.AllStorage) error) error {
			tx := mockstorage.NewMockAllStorage(ctrl)
			if fn != nil {
				fn(tx)
			}

			return cb(tx)
		},
	)
}

func TestDiscoverer_Discover_InvalidDomain(t *testing.T) {
	_, _, _, d := newTestDiscoverer(t)

	// no Fetch expectation: gomock fails the test if the client is touched
	set, err := d.Discover(context.Background(), "-bad.example.com", domain.ScanModeQuick)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrInvalidDomain)
	require.Nil(t, set)
}

func TestDiscoverer_Discover_UpstreamUnavailable(t *testing.T) {
	_, client, _, d := newTestDiscoverer(t)

	upstreamErr := serrors.Wrap(serrors.ErrUpstreamUnavailable, errors.New("connection refused"), "could not send request")
	client.EXPECT().Fetch(gomock.Any(), gomock.Any(), domain.ScanModeQuick).Return(nil, upstreamErr)

	set, err := d.Discover(context.Background(), "example.com", domain.ScanModeQuick)
	require.Error(t, err)
	require.Same(t, upstreamErr, err, "upstream errors are propagated unchanged")
	require.Nil(t, set, "no partial result")
}

func TestDiscoverer_Discover_PassesLowercasedDomain(t *testing.T) {
	_, client, _, d := newTestDiscoverer(t)

	body := []byte(`[]`)
	client.EXPECT().Fetch(gomock.Any(), gomock.Any(), domain.ScanModeComplete).DoAndReturn(
		func(_ context.Context, target domain.Domain, _ domain.ScanMode) ([]byte, error) {
			require.Equal(t, "example.com", target.String())

			return body, nil
		})
	client.EXPECT().Parse(gomock.Any(), body).Return(domain.NewSubdomainSet("www.example.com"))

	set, err := d.Discover(context.Background(), "EXAMPLE.com", domain.ScanModeComplete)
	require.NoError(t, err)
	require.Equal(t, []string{"www.example.com"}, set.Sorted())
}

func TestDiscoverer_Discover_EmptyParse(t *testing.T) {
	_, client, _, d := newTestDiscoverer(t)

	client.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("not json"), nil)
	client.EXPECT().Parse(gomock.Any(), []byte("not json")).Return(domain.NewSubdomainSet())

	set, err := d.Discover(context.Background(), "example.com", domain.ScanModeQuick)
	require.NoError(t, err)
	require.Equal(t, 0, set.Len())
}

func TestDiscoverer_Discover_MockedUpstream(t *testing.T) {
	body := `[` +
		`{"name_value":"a.example.com\nb.example.com\n*.example.com"},` +
		`{"name_value":"b.example.com\nc.example.com\na.example.com"}` +
		`]`
	requests := 0
	httpClient := &http.Client{Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
		requests++
		require.Equal(t, "example.com", r.URL.Query().Get("q"))
		require.Equal(t, "expired", r.URL.Query().Get("exclude"))

		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
	})}

	client, err := crtsh.New(httpClient, crtsh.Options{})
	require.NoError(t, err)

	set, err := discovery.New(client, nil).Discover(context.Background(), "example.com", domain.ScanModeQuick)
	require.NoError(t, err)
	require.Equal(t, 1, requests)
	require.Equal(t, 3, set.Len())
	require.Equal(t, []string{"a.example.com", "b.example.com", "c.example.com"}, set.Sorted())
}

func TestDiscoverer_Discover_ConnectionRefused(t *testing.T) {
	httpClient := &http.Client{Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp 127.0.0.1:443: connect: connection refused")
	})}

	client, err := crtsh.New(httpClient, crtsh.Options{})
	require.NoError(t, err)

	set, err := discovery.New(client, nil).Discover(context.Background(), "example.com", domain.ScanModeQuick)
	require.ErrorIs(t, err, serrors.ErrUpstreamUnavailable)
	require.Nil(t, set)
}

func TestDiscoverer_Record(t *testing.T) {
	ctrl, _, st, d := newTestDiscoverer(t)

	runID := domain.RunID(uuid.New())
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	set := domain.NewSubdomainSet("b.example.com", "a.example.com")

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().StoreRun(gomock.Any(), domain.DiscoveryRun{
			Domain:         "example.com",
			Mode:           domain.ScanModeComplete,
			SubdomainCount: 2,
		}).Return(&domain.DiscoveryRun{
			ID:             runID,
			Domain:         "example.com",
			Mode:           domain.ScanModeComplete,
			SubdomainCount: 2,
			CreatedAt:      createdAt,
		}, nil)
		tx.EXPECT().UpsertSubdomains(gomock.Any(), runID, "example.com",
			[]string{"a.example.com", "b.example.com"}, createdAt).
			Return([]string{"b.example.com"}, nil)
	})

	inserted, err := d.Record(context.Background(), "Example.com", domain.ScanModeComplete, set)
	require.NoError(t, err)
	require.Equal(t, []string{"b.example.com"}, inserted)
}

func TestDiscoverer_Record_StoreError(t *testing.T) {
	ctrl, _, st, d := newTestDiscoverer(t)

	boom := errors.New("db down")
	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().StoreRun(gomock.Any(), gomock.Any()).Return(nil, boom)
	})

	_, err := d.Record(context.Background(), "example.com", domain.ScanModeQuick, domain.NewSubdomainSet("a.example.com"))
	require.ErrorIs(t, err, boom)
}

func TestDiscoverer_WithoutStorage(t *testing.T) {
	d := discovery.New(mockctlog.NewMockClient(gomock.NewController(t)), nil)

	_, err := d.Record(context.Background(), "example.com", domain.ScanModeQuick, domain.NewSubdomainSet())
	require.ErrorIs(t, err, discovery.ErrNoStorage)

	_, err = d.History(context.Background(), "example.com")
	require.ErrorIs(t, err, discovery.ErrNoStorage)
}

func TestDiscoverer_History(t *testing.T) {
	_, _, st, d := newTestDiscoverer(t)

	want := []domain.Subdomain{{Domain: "example.com", Name: "a.example.com"}}
	st.EXPECT().Subdomains(gomock.Any(), "example.com").Return(want, nil)

	got, err := d.History(context.Background(), "EXAMPLE.COM")
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = d.History(context.Background(), "not a domain")
	require.ErrorIs(t, err, serrors.ErrInvalidDomain)
}
