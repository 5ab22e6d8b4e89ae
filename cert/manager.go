// Package cert serves the HTTPS listener's certificate from PEM files, re-reading them
// once the cached copy expires so renewed certificates are picked up without a restart.
package cert

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	logger "github.com/hackcelestial/sports-bridge/log"
)

const (
	cacheDefaultTTL    = 300 // 5 minutes.
	cacheCleanInterval = 600 // 10 minutes.

	cacheKey = "server"
)

// Manager hands out the server certificate to tls.Config.
type Manager struct {
	certFile string
	keyFile  string
	logger   *logrus.Entry
	cache    *cache.Cache
	read     func(string) ([]byte, error)
}

// NewManager loads certFile and keyFile once so configuration mistakes surface at startup.
func NewManager(certFile, keyFile string) (*Manager, error) {
	m := &Manager{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger.Get().WithField("prefix", "CERT"),
		cache:    cache.New(cacheDefaultTTL*time.Second, cacheCleanInterval*time.Second),
		read:     os.ReadFile,
	}
	if _, err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// TLSConfig returns a config whose certificate comes from the manager.
func (m *Manager) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: m.GetCertificate,
	}
}

// GetCertificate implements tls.Config.GetCertificate. A failed reload keeps serving the
// last good certificate.
func (m *Manager) GetCertificate(_ *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if c, found := m.cache.Get(cacheKey); found {
		return c.(*tls.Certificate), nil
	}
	return m.load()
}

// Fingerprint is the hex SHA-256 of the leaf certificate currently served.
func (m *Manager) Fingerprint() string {
	c, err := m.GetCertificate(nil)
	if err != nil || len(c.Certificate) == 0 {
		return ""
	}
	return hexSHA256(c.Certificate[0])
}

func (m *Manager) load() (*tls.Certificate, error) {
	certPEM, err := m.read(m.certFile)
	if err != nil {
		return m.stale(fmt.Errorf("reading certificate: %w", err))
	}
	keyPEM := certPEM
	if m.keyFile != "" && m.keyFile != m.certFile {
		keyPEM, err = m.read(m.keyFile)
		if err != nil {
			return m.stale(fmt.Errorf("reading key: %w", err))
		}
	}

	c, err := parsePEMCertificate(append(append([]byte{}, certPEM...), keyPEM...))
	if err != nil {
		return m.stale(err)
	}
	if c.PrivateKey == nil {
		return m.stale(errors.New("can't find PRIVATE KEY block"))
	}

	m.cache.Set(cacheKey, c, cache.DefaultExpiration)
	m.cache.Set(cacheKey+"-last", c, cache.NoExpiration)
	m.logger.WithField("fingerprint", hexSHA256(c.Certificate[0])).Debug("Loaded server certificate")
	return c, nil
}

func (m *Manager) stale(err error) (*tls.Certificate, error) {
	if last, found := m.cache.Get(cacheKey + "-last"); found {
		m.logger.Error("error while reloading certificate, keeping previous one: ", err)
		return last.(*tls.Certificate), nil
	}
	return nil, err
}

func parsePEMCertificate(data []byte) (*tls.Certificate, error) {
	var c tls.Certificate
	var err error

	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}

		switch {
		case block.Type == "CERTIFICATE":
			c.Certificate = append(c.Certificate, block.Bytes)
		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			c.PrivateKey, err = parsePrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
		}
	}

	if len(c.Certificate) == 0 {
		return nil, errors.New("can't find CERTIFICATE block")
	}

	c.Leaf, err = x509.ParseCertificate(c.Certificate[0])
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parsePrivateKey(der []byte) (crypto.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		switch key := key.(type) {
		case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
			return key, nil
		default:
			return nil, errors.New("tls: found unknown private key type in PKCS#8 wrapping")
		}
	}

	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}

	return nil, errors.New("tls: failed to parse private key")
}

func hexSHA256(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}
