package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"ehsaas-jewels/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrInvalidPincode = errors.New("pincode must be exactly 6 digits")

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// PostalAddress is the city/state pair resolved from a pincode.
// Found is false when the pincode is well-formed but unknown; that is a
// normal outcome, not an error.
type PostalAddress struct {
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
	Found   bool   `json:"found"`
}

// PostalService resolves Indian pincodes to city and state for checkout
// address autofill.
type PostalService interface {
	Lookup(ctx context.Context, pincode string) (*PostalAddress, error)
}

// PincodeClient is the upstream postal directory. Implementations must
// honor context cancellation.
type PincodeClient interface {
	Fetch(ctx context.Context, pincode string) (*PostalAddress, error)
}

type postalService struct {
	client PincodeClient
	cache  *redis.Client
	cfg    config.PostalConfig
	logger *zap.Logger
}

// NewPostalService creates a PostalService with a Redis lookup cache
func NewPostalService(client PincodeClient, cache *redis.Client, cfg config.PostalConfig, logger *zap.Logger) PostalService {
	return &postalService{
		client: client,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

func pincodeKey(pincode string) string {
	return "pincode:" + pincode
}

// Lookup resolves a pincode, serving from the cache when possible. The
// upstream call is bounded by the configured timeout; unknown pincodes
// are cached too so repeated typos do not hammer the upstream.
func (s *postalService) Lookup(ctx context.Context, pincode string) (*PostalAddress, error) {
	if !pincodePattern.MatchString(pincode) {
		return nil, ErrInvalidPincode
	}

	if cached, ok := s.readCache(ctx, pincode); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	addr, err := s.client.Fetch(ctx, pincode)
	if err != nil {
		return nil, fmt.Errorf("pincode lookup failed: %w", err)
	}
	addr.Pincode = pincode

	s.writeCache(ctx, addr)
	return addr, nil
}

func (s *postalService) readCache(ctx context.Context, pincode string) (*PostalAddress, bool) {
	data, err := s.cache.Get(ctx, pincodeKey(pincode)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Failed to read pincode cache", zap.Error(err))
		}
		return nil, false
	}

	addr := &PostalAddress{}
	if err := json.Unmarshal(data, addr); err != nil {
		s.logger.Warn("Failed to decode cached pincode", zap.Error(err))
		return nil, false
	}
	return addr, true
}

func (s *postalService) writeCache(ctx context.Context, addr *PostalAddress) {
	data, err := json.Marshal(addr)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, pincodeKey(addr.Pincode), data, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Warn("Failed to cache pincode",
			zap.String("pincode", addr.Pincode),
			zap.Error(err),
		)
	}
}

// httpPincodeClient talks to the public postal pincode API
// (api.postalpincode.in compatible).
type httpPincodeClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPincodeClient creates a PincodeClient over the given base URL
func NewHTTPPincodeClient(baseURL string) PincodeClient {
	return &httpPincodeClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type pincodeAPIResponse struct {
	Status     string `json:"Status"`
	PostOffice []struct {
		District string `json:"District"`
		State    string `json:"State"`
	} `json:"PostOffice"`
}

func (c *httpPincodeClient) Fetch(ctx context.Context, pincode string) (*PostalAddress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pincode/"+pincode, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postal API returned status %d", resp.StatusCode)
	}

	var payload []pincodeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode postal API response: %w", err)
	}

	if len(payload) == 0 || payload[0].Status != "Success" || len(payload[0].PostOffice) == 0 {
		return &PostalAddress{Pincode: pincode}, nil
	}

	office := payload[0].PostOffice[0]
	return &PostalAddress{
		Pincode: pincode,
		City:    office.District,
		State:   office.State,
		Found:   true,
	}, nil
}
