// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultRegisterFixtureImage serves the fixture files over plain HTTP.
	DefaultRegisterFixtureImage = "nginx:alpine"

	registerFixturePort = "80"
)

// RegisterFixtureContainer stands in for the GURS register's metadata
// and export endpoints during an ingestion integration test: a plain
// static file server, so the ingest pipeline's HTTP client exercises a
// real request/response round trip instead of an in-process fake.
type RegisterFixtureContainer struct {
	testcontainers.Container
	BaseURL string
}

// NewRegisterFixtureContainer starts a container serving files (relative
// path -> content) at its document root. A caller typically provides
// "metadata.json" (the register's metadata response) and "export.zip"
// (the archive the metadata response points at).
func NewRegisterFixtureContainer(ctx context.Context, files map[string][]byte) (*RegisterFixtureContainer, error) {
	hostDir, err := os.MkdirTemp("", "domogled-register-fixture-*")
	if err != nil {
		return nil, fmt.Errorf("testinfra: create fixture dir: %w", err)
	}

	containerFiles := make([]testcontainers.ContainerFile, 0, len(files))
	for name, content := range files {
		hostPath := filepath.Join(hostDir, name)
		if err := os.WriteFile(hostPath, content, 0o644); err != nil {
			return nil, fmt.Errorf("testinfra: write fixture %s: %w", name, err)
		}
		containerFiles = append(containerFiles, testcontainers.ContainerFile{
			HostFilePath:      hostPath,
			ContainerFilePath: "/usr/share/nginx/html/" + name,
			FileMode:          0o644,
		})
	}

	req := testcontainers.ContainerRequest{
		Image:        DefaultRegisterFixtureImage,
		ExposedPorts: []string{registerFixturePort + "/tcp"},
		Files:        containerFiles,
		WaitingFor:   wait.ForListeningPort(registerFixturePort + "/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("testinfra: create register fixture container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("testinfra: resolve container host: %w", err)
	}
	mappedPort, err := container.MappedPort(ctx, registerFixturePort+"/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("testinfra: resolve mapped port: %w", err)
	}

	return &RegisterFixtureContainer{
		Container: container,
		BaseURL:   fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
	}, nil
}
