package scan

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/headscore/headscore/internal/command"
	"github.com/headscore/headscore/internal/command/root"
	"github.com/headscore/headscore/internal/config"
	"github.com/headscore/headscore/internal/pkg/scanerrors"
	"github.com/headscore/headscore/internal/scanner"
	"github.com/headscore/headscore/internal/scanner/retriever"
	"github.com/headscore/headscore/internal/scanner/site"
)

type stubRetriever struct {
	err scanerrors.ScanError
}

func (r stubRetriever) Retrieve(ctx context.Context, s site.Site) (*retriever.Requests, scanerrors.ScanError) {
	if r.err != nil {
		return nil, r.err
	}
	finalURL, _ := url.Parse("https://" + s.Host() + "/")
	headers := http.Header{}
	headers.Set("X-Content-Type-Options", "nosniff")
	return &retriever.Requests{
		Site:       s,
		FinalURL:   finalURL,
		StatusCode: 200,
		Headers:    headers,
		HTTPProbe:  retriever.HTTPProbe{Reachable: true, StatusCode: 301, Location: "https://" + s.Host() + "/"},
	}, nil
}

func execute(t *testing.T, stub stubRetriever, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, cfgErr := config.New(t.TempDir())
	require.Nil(t, cfgErr)

	sc := scanner.New(scanner.Config{SkipResolveCheck: true}, stub, nil, nil)
	cmdContext := command.NewCommandContext(cfg, nil, command.WithScanner(sc))

	rootCmd, rootErr := command.RootCommandToCobra(root.NewRootCommand(cmdContext))
	require.Nil(t, rootErr)

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScanCommandPrintsReport(t *testing.T) {
	out, err := execute(t, stubRetriever{}, "scan", "example.test")
	require.NoError(t, err)

	assert.Equal(t, "example.test", gjson.Get(out, "scan.site_key").String())
	assert.NotEmpty(t, gjson.Get(out, "scan.grade").String())
	assert.Equal(t, int64(10), gjson.Get(out, "scan.tests_quantity").Int())
	// tests live only at the envelope's top level
	assert.False(t, gjson.Get(out, "scan.tests").Exists())
	assert.Len(t, gjson.Get(out, "tests").Map(), 10)
}

func TestScanCommandInvalidHost(t *testing.T) {
	_, err := execute(t, stubRetriever{}, "scan", "not a host")
	require.Error(t, err)
	assert.Equal(t, command.ExitInvalid, command.ExitCode(err))
}

func TestScanCommandNetworkFailure(t *testing.T) {
	stub := stubRetriever{err: scanerrors.NewConnectionError("example.test", assert.AnError)}
	out, err := execute(t, stub, "scan", "example.test")
	require.Error(t, err)
	assert.Equal(t, command.ExitNetwork, command.ExitCode(err))
	// the error report is still printed before the non-zero exit
	assert.Equal(t, "connection-error", gjson.Get(out, "scan.error").String())
}

func TestRootShorthandScansHost(t *testing.T) {
	out, err := execute(t, stubRetriever{}, "example.test")
	require.NoError(t, err)
	assert.Equal(t, "example.test", gjson.Get(out, "scan.site_key").String())
}

func TestScanCommandRequiresArgument(t *testing.T) {
	_, err := execute(t, stubRetriever{}, "scan")
	require.Error(t, err)
}
