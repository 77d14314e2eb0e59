package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultCertsMaxAge = time.Hour

// KeySource resolves the RSA public key for a token's key id.
type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// CertificateSource fetches a JSON object of key id to PEM certificate and
// caches it for the max-age the endpoint advertises.
type CertificateSource struct {
	url    string
	client *http.Client
	now    func() time.Time

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// NewCertificateSource creates a CertificateSource for url.
func NewCertificateSource(url string, client *http.Client) *CertificateSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CertificateSource{
		url:    url,
		client: client,
		now:    time.Now,
	}
}

// PublicKey implements KeySource. An unknown key id triggers one refresh
// before it is rejected, since signing keys rotate.
func (s *CertificateSource) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refreshed := false
	if s.keys == nil || !s.now().Before(s.expires) {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
		refreshed = true
	}

	if key, ok := s.keys[kid]; ok {
		return key, nil
	}
	if !refreshed {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
		if key, ok := s.keys[kid]; ok {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown key id %q", ErrInvalidToken, kid)
}

func (s *CertificateSource) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch certificates: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fetch certificates: status %d", ErrVerifierUnavailable, resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("%w: decode certificates: %v", ErrVerifierUnavailable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := parseRSACertificate(certPEM)
		if err != nil {
			return fmt.Errorf("%w: certificate %s: %v", ErrVerifierUnavailable, kid, err)
		}
		keys[kid] = key
	}

	s.keys = keys
	s.expires = s.now().Add(maxAge(resp.Header.Get("Cache-Control")))
	return nil
}

func parseRSACertificate(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not RSA", cert.PublicKey)
	}
	return key, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if v, ok := strings.CutPrefix(directive, "max-age="); ok {
			if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return defaultCertsMaxAge
}
