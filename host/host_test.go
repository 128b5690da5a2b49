package host

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benoitkugler/oklabel/bridge"
	"github.com/benoitkugler/oklabel/config"
	"github.com/benoitkugler/oklabel/labelapi"
	"github.com/benoitkugler/oklabel/printsize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type docRecorder struct {
	docs  []string
	media []string
}

func (p *docRecorder) Print(_ context.Context, doc printsize.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	p.docs = append(p.docs, buf.String())
	p.media = append(p.media, doc.MediaType())
	return nil
}

type countNotifier struct{ errs []error }

func (c *countNotifier) Notify(err error) { c.errs = append(c.errs, err) }

const labelMarkups = `[
	{"stage": {"unit": "in", "width": 2, "height": 1},
	 "elements": [{"type": "rect", "width": 20, "height": 10, "fill": "#000"}]},
	{"stage": {"unit": "in", "width": 4, "height": 6}, "elements": []}
]`

func labelService(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(t *testing.T, baseURL string) config.Config {
	cfg := config.Defaults()
	cfg.APIBaseURL = baseURL
	cfg.Username, cfg.Password = "alice", "secret"
	cfg.OutputDir = t.TempDir()
	cfg.SettleDelay = time.Millisecond
	return cfg
}

func TestPrintLabel(t *testing.T) {
	srv, calls := labelService(t, http.StatusOK, labelMarkups)
	cfg := testConfig(t, srv.URL)

	printer := &docRecorder{}
	var notifier countNotifier
	h, err := New(cfg, WithPrinter(printer), WithNotifier(&notifier))
	require.NoError(t, err)

	err = h.PrintLabel(context.Background(), labelapi.Request{LabelName: "shipping", Amount: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	assert.Empty(t, notifier.errs)

	// only the first markup is printed
	require.Len(t, printer.docs, 1)
	assert.Equal(t, "application/pdf", printer.media[0])
	assert.Contains(t, printer.docs[0], "/MediaBox [0 0 144.00 72.00]")
}

func TestPrintLabelToFile(t *testing.T) {
	srv, _ := labelService(t, http.StatusOK, labelMarkups)
	cfg := testConfig(t, srv.URL)
	cfg.PrintOutput = config.OutputHTML

	h, err := New(cfg, WithNotifier(&countNotifier{}))
	require.NoError(t, err)
	require.NoError(t, h.PrintLabel(context.Background(), labelapi.Request{LabelName: "l", Amount: 1}))

	files, err := filepath.Glob(filepath.Join(cfg.OutputDir, "*.html"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "size: 2in 1in;")
}

func TestConfigErrorsNeverReachNetwork(t *testing.T) {
	srv, calls := labelService(t, http.StatusOK, labelMarkups)

	for _, test := range []struct {
		edit  func(*config.Config)
		req   labelapi.Request
		field string
	}{
		{func(c *config.Config) { c.APIBaseURL = "" }, labelapi.Request{LabelName: "l", Amount: 1}, "apiBaseUrl"},
		{func(c *config.Config) { c.Password = "" }, labelapi.Request{LabelName: "l", Amount: 1}, "username"},
		{func(*config.Config) {}, labelapi.Request{Amount: 1}, "label_name"},
		{func(*config.Config) {}, labelapi.Request{LabelName: "l"}, "amount"},
	} {
		cfg := testConfig(t, srv.URL)
		test.edit(&cfg)
		var notifier countNotifier
		h, err := New(cfg, WithPrinter(&docRecorder{}), WithNotifier(&notifier))
		require.NoError(t, err)

		err = h.PrintLabel(context.Background(), test.req)
		var ce *ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, test.field, ce.Field)
		assert.Len(t, notifier.errs, 1)
	}
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestServerErrorNotified(t *testing.T) {
	srv, _ := labelService(t, http.StatusForbidden, `{"message": "Label disabled"}`)
	var notifier countNotifier
	printer := &docRecorder{}
	h, err := New(testConfig(t, srv.URL), WithPrinter(printer), WithNotifier(&notifier))
	require.NoError(t, err)

	err = h.PrintLabel(context.Background(), labelapi.Request{LabelName: "l", Amount: 1})
	var se *labelapi.ServerError
	require.True(t, errors.As(err, &se))
	require.Len(t, notifier.errs, 1)
	assert.Equal(t, "Label disabled (status 403)", notifier.errs[0].Error())
	assert.Empty(t, printer.docs)
}

func TestMissingEntryPoint(t *testing.T) {
	srv, _ := labelService(t, http.StatusOK, labelMarkups)
	var notifier countNotifier
	h, err := New(testConfig(t, srv.URL), WithPrinter(&docRecorder{}), WithNotifier(&notifier))
	require.NoError(t, err)
	h.entry = nil

	err = h.PrintLabel(context.Background(), labelapi.Request{LabelName: "l", Amount: 1})
	assert.ErrorIs(t, err, bridge.ErrNoEntryPoint)
	assert.Len(t, notifier.errs, 1)
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	ConsoleNotifier{Out: &buf}.Notify(errors.New("printer offline"))
	assert.Contains(t, buf.String(), "printer offline")
}
