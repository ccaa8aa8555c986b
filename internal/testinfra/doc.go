// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build integration

// Package testinfra uses testcontainers-go to manage Docker containers
// for integration tests tagged "integration", the way the rest of the
// ingest pipeline's own test doubles are built: real infrastructure
// instead of a mock client.
package testinfra
