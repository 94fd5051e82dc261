package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/onsi/gomega"

	"github.com/stacklok/plugin-index/internal/app"
	"github.com/stacklok/plugin-index/internal/config"
)

// ServerTestHelper builds the components against a shared pool and serves
// the API on a free local port
type ServerTestHelper struct {
	ctx        context.Context
	baseURL    string
	httpClient *http.Client
	components *app.Components
	server     *app.ServerApp
}

// Config returns a configuration pointing every registry at the fakes
func Config(registries *FakeRegistries) *config.Config {
	rc := func(path string) *config.RegistryConfig {
		return &config.RegistryConfig{
			BaseURL:           registries.URL + path,
			RequestsPerSecond: 200,
			Concurrency:       4,
			PageSize:          2,
			ReadAhead:         2,
		}
	}
	return &config.Config{
		Registries: config.RegistriesConfig{
			Spigot:   rc("/spigot"),
			Modrinth: rc("/modrinth"),
			Hangar:   rc("/hangar"),
		},
		Cache: &config.CacheConfig{Backend: config.CacheBackendMemory},
	}
}

// NewServerTestHelper builds the components for cfg on pool
func NewServerTestHelper(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*ServerTestHelper, error) {
	c, err := app.Build(ctx, app.WithConfig(cfg), app.WithConnectionPool(pool))
	if err != nil {
		return nil, fmt.Errorf("failed to build components: %w", err)
	}
	return &ServerTestHelper{
		ctx:        ctx,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		components: c,
	}, nil
}

// Components returns the built components
func (s *ServerTestHelper) Components() *app.Components {
	return s.components
}

// StartServer starts the API on a free port without blocking
func (s *ServerTestHelper) StartServer() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	addr := listener.Addr().String()
	if err := listener.Close(); err != nil {
		return err
	}

	server, err := app.NewServerApp(s.ctx, s.components, app.WithAddress(addr))
	if err != nil {
		return err
	}
	s.server = server
	s.baseURL = "http://" + addr

	go func() {
		if err := server.Start(); err != nil {
			// The test fails when it cannot connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()
	return nil
}

// StopServer stops the API and releases the components
func (s *ServerTestHelper) StopServer() error {
	var err error
	if s.server != nil {
		err = s.server.Stop(5 * time.Second)
	}
	if closeErr := s.components.Close(context.Background()); err == nil {
		err = closeErr
	}
	return err
}

// WaitForServerReady waits until /readiness answers 200
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() int {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return 0
		}
		defer resp.Body.Close()
		return resp.StatusCode
	}, timeout, 100*time.Millisecond).Should(gomega.Equal(http.StatusOK))
}

// GetJSON requests path with query and decodes the body into out. It
// returns the status code.
func (s *ServerTestHelper) GetJSON(path string, query url.Values, out any) (int, error) {
	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	resp, err := s.httpClient.Get(target)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s: %w", body, err)
		}
	}
	return resp.StatusCode, nil
}
