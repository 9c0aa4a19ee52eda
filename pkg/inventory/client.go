// Package inventory collects the engine-side object listings a prune
// preview needs and converts them into the immutable snapshot the planner
// consumes. It is the only package that talks to the Docker API.
package inventory

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	dockerClient "github.com/docker/docker/client"
	"github.com/docker/go-connections/tlsconfig"

	"github.com/pruneplan/pruneplan/pkg/types"
)

// Client provides inventory snapshots from a container engine.
type Client interface {
	// Snapshot enumerates all object kinds and returns one immutable
	// capture. Per-kind listing failures are recorded on the snapshot
	// rather than returned; Snapshot itself never fails once the client
	// is constructed.
	Snapshot(ctx context.Context) *types.Snapshot
	// Close releases the underlying API connection.
	Close() error
}

// ClientOptions configures the connection to the Docker daemon.
type ClientOptions struct {
	// Host overrides DOCKER_HOST when non-empty.
	Host string
	// TLSVerify enables TLS with certificate verification, reading the
	// certificates from DOCKER_CERT_PATH (default ~/.docker).
	TLSVerify bool
	// APIVersion pins the negotiated API version when non-empty.
	APIVersion string
}

// client wraps the Docker API client behind the Client interface.
type client struct {
	api dockerClient.APIClient
}

// NewClient initializes a Client for Docker API interactions. The connection
// is configured from the environment (DOCKER_HOST, DOCKER_API_VERSION,
// DOCKER_CERT_PATH) with explicit options taking precedence, and the API
// version is negotiated with the daemon unless pinned.
func NewClient(opts ClientOptions) (Client, error) {
	clientOpts := []dockerClient.Opt{dockerClient.FromEnv}

	if opts.Host != "" {
		clientOpts = append(clientOpts, dockerClient.WithHost(opts.Host))
	}

	if opts.TLSVerify {
		httpClient, err := tlsHTTPClient()
		if err != nil {
			return nil, err
		}

		clientOpts = append(clientOpts, dockerClient.WithHTTPClient(httpClient))
	}

	if opts.APIVersion != "" {
		clientOpts = append(clientOpts, dockerClient.WithVersion(strings.Trim(opts.APIVersion, "\"")))
	} else {
		clientOpts = append(clientOpts, dockerClient.WithAPIVersionNegotiation())
	}

	api, err := dockerClient.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Docker client: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":        api.DaemonHost(),
		"api_version": api.ClientVersion(),
	}).Debug("Initialized Docker client")

	return &client{api: api}, nil
}

// Close releases the underlying API connection.
func (c *client) Close() error {
	if err := c.api.Close(); err != nil {
		return fmt.Errorf("failed to close Docker client: %w", err)
	}

	return nil
}

// tlsHTTPClient builds an HTTP client verifying the daemon against the
// certificates under DOCKER_CERT_PATH.
func tlsHTTPClient() (*http.Client, error) {
	certPath := os.Getenv("DOCKER_CERT_PATH")
	if certPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DOCKER_CERT_PATH: %w", err)
		}

		certPath = filepath.Join(home, ".docker")
	}

	tlsOpts := tlsconfig.Options{
		CAFile:   filepath.Join(certPath, "ca.pem"),
		CertFile: filepath.Join(certPath, "cert.pem"),
		KeyFile:  filepath.Join(certPath, "key.pem"),
	}

	tlsConfig, err := tlsconfig.Client(tlsOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS configuration: %w", err)
	}

	return &http.Client{
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	}, nil
}
