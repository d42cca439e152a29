package session

import (
	"testing"

	tls2 "github.com/refraction-networking/utls"
)

func TestProbeHelloOffersHTTP1Only(t *testing.T) {
	found := false
	for _, ext := range chromeH1Spec.Extensions {
		alpn, ok := ext.(*tls2.ALPNExtension)
		if !ok {
			continue
		}
		found = true
		if len(alpn.AlpnProtocols) != 1 || alpn.AlpnProtocols[0] != "http/1.1" {
			t.Errorf("alpn = %v, want [http/1.1]", alpn.AlpnProtocols)
		}
	}
	if !found {
		t.Fatal("client hello spec carries no ALPN extension")
	}
}
