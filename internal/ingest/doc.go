// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest implements the per-dataset transaction ingestion
// pipeline: download the register's yearly export, extract and stage its
// CSVs, then transform staged rows into the year's core partition.
//
// A RunIngestion call for one (dataset, year) runs its stages strictly
// in sequence - download, extract, stage, referential audit, transform,
// cleanup - each idempotent, with the core tables left untouched unless
// the transform stage's single transaction commits.
package ingest
