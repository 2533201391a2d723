// Package quictransport implements wire.Dialer and wire.Listener over
// QUIC, as the direct-connection overlay peers
// use to reach each other: one QUIC connection per peer address, one
// QUIC stream per request/reply pair, negotiated on wire.ALPN.
//
// This is a permissionless peer overlay, not a PKI-anchored one: peer
// identity is established by the COSE-signed wire envelope (wire
// package), not by the TLS certificate. The TLS layer here exists only
// to get QUIC's transport encryption; each side presents a fresh
// self-signed certificate and accepts whatever the other side presents.
package quictransport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/meshvault/meshvault/wire"
)

// selfSignedTLSConfig generates a fresh, ephemeral self-signed
// certificate and returns a tls.Config suitable for both the listening
// and dialing sides of a quictransport.Transport.
func selfSignedTLSConfig() (*tls.Config, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("quictransport: generating tls key: %w", err)
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour * 365),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, fmt.Errorf("quictransport: creating tls certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("quictransport: marshaling tls key: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("quictransport: building tls keypair: %w", err)
	}
	return &tls.Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: true,
		NextProtos:         []string{string(wire.ALPN)},
	}, nil
}
