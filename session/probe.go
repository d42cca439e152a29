package session

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls2 "github.com/refraction-networking/utls"
)

const probeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const probeTimeout = 10 * time.Second

// chromeH1Spec is a Chrome ClientHello with ALPN forced to http/1.1 only.
// http.Transport with a custom DialTLSContext cannot frame HTTP/2, so the
// stock Chrome ALPN would let the server negotiate h2 and break every
// exchange. Computed once and reused for every connection.
var chromeH1Spec tls2.ClientHelloSpec

func init() {
	spec, err := tls2.UTLSIdToSpec(tls2.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls2.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// probeHTTP checks session liveness out of band: a GET against an
// account-only URL with the browser's cookies, using a Chrome TLS
// fingerprint (utls) so the probe blends in with the rendered traffic.
// A redirect back to the login page means the session is dead.
func probeHTTP(ctx context.Context, targetURL string, cookies []*http.Cookie) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	transport := &http.Transport{
		DialTLSContext:    dialTLSChrome,
		ForceAttemptHTTP2: false,
	}
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", probeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-CL,es;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return !onLoginPath(resp.Header.Get("Location")), nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	}
	return false, &probeStatusError{status: resp.Status}
}

type probeStatusError struct{ status string }

func (e *probeStatusError) Error() string { return "probe: unexpected status " + e.status }

// dialTLSChrome establishes a TLS connection with the h1-only Chrome
// fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host := addr
	if h, _, splitErr := net.SplitHostPort(addr); splitErr == nil {
		host = h
	}
	host = strings.TrimSpace(host)

	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		rawConn.Close()
		return nil, err
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
