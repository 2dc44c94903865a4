// Package assemblyapi provides a client for the assembly store service, the
// data-loading collaborator that serves packaged reference and stimulus
// assemblies.
package assemblyapi

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/neuralign-labs/neuralign/internal/config"
	"github.com/neuralign-labs/neuralign/pkg/assembly"
)

// AssemblyAPI is a REST client wrapper for the assembly store.
type AssemblyAPI struct {
	cfg    *config.AssemblyAPIEnvConfig
	client *resty.Client
}

// NewAssemblyAPI constructs the client with retrying transport.
func NewAssemblyAPI(cfg *config.AssemblyAPIEnvConfig) (*AssemblyAPI, error) {
	if cfg == nil {
		return nil, fmt.Errorf("assembly api env configuration cannot be nil")
	}

	retrying := retryablehttp.NewClient()
	retrying.RetryMax = 5
	retrying.RetryWaitMin = 500 * time.Millisecond
	retrying.RetryWaitMax = 20 * time.Second
	retrying.HTTPClient.Timeout = cfg.ClientTimeout
	retrying.Logger = nil

	client := resty.NewWithClient(retrying.StandardClient()).
		SetBaseURL(cfg.AssemblyAPIUrl).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	log.Info().
		Str("base_url", cfg.AssemblyAPIUrl).
		Int("retry_max", retrying.RetryMax).
		Str("timeout", cfg.ClientTimeout.String()).
		Msg("assembly api client initialized")

	return &AssemblyAPI{cfg: cfg, client: client}, nil
}

// GetAssembly fetches and unpacks one assembly by identifier.
func (a *AssemblyAPI) GetAssembly(identifier string) (*assembly.Assembly, error) {
	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Encoding", "zstd").
		Get("/assemblies/" + identifier)
	if err != nil {
		return nil, fmt.Errorf("assemblyapi: get %q: %w", identifier, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("assemblyapi: get %q: bad status %d: %s",
			identifier, resp.StatusCode(), string(resp.Body()))
	}

	data := resp.Body()
	if strings.Contains(strings.ToLower(resp.Header().Get("Content-Encoding")), "zstd") {
		decoder, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("assemblyapi: zstd reader: %w", err)
		}
		defer decoder.Close()
		if data, err = io.ReadAll(decoder); err != nil {
			return nil, fmt.Errorf("assemblyapi: decompress: %w", err)
		}
		log.Debug().Str("identifier", identifier).Int("decompressed_size", len(data)).Msg("assembly payload decompressed")
	}

	var envelope Response[PackagedAssembly]
	if err := sonic.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("assemblyapi: unmarshal %q: %w", identifier, err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("assemblyapi: get %q: %s", identifier, envelope.Error)
	}
	return envelope.Data.Unpack()
}
