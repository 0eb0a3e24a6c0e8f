//go:build unix

package web

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
)

// CertReloader reloads the TLS certificate and key when a SIGHUP signal is
// received.
type CertReloader struct {
	certMu   sync.RWMutex
	cert     *tls.Certificate
	certPath string
	keyPath  string
}

// NewCertReloader loads the certificate and key and reloads them on SIGHUP
// until ctx is done.
func NewCertReloader(ctx context.Context, certPath, keyPath string) (*CertReloader, error) {
	logger := log.FromContext(ctx).WithPrefix("http.tls")
	reloader := &CertReloader{
		certPath: certPath,
		keyPath:  keyPath,
	}

	if err := reloader.maybeReload(); err != nil {
		return nil, err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)
	go func() {
		defer signal.Stop(sigChan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigChan:
				logger.Info("reloading TLS certificate", "cert", certPath, "key", keyPath)
				if err := reloader.maybeReload(); err != nil {
					logger.Error("failed to reload TLS certificate, keeping old certificate", "err", err)
				}
			}
		}
	}()

	return reloader, nil
}

func (cr *CertReloader) maybeReload() error {
	newCert, err := tls.LoadX509KeyPair(cr.certPath, cr.keyPath)
	if err != nil {
		return err
	}

	cr.certMu.Lock()
	defer cr.certMu.Unlock()
	cr.cert = &newCert
	return nil
}

// GetCertificateFunc returns a function that can be used with tls.Config.GetCertificate.
func (cr *CertReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		cr.certMu.RLock()
		defer cr.certMu.RUnlock()
		return cr.cert, nil
	}
}
