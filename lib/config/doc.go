// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for fieldreport.
//
// Configuration is loaded from a single file specified by either the
// FIELDREPORT_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no discovery and no search path.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production refuses the in-memory
// store backend.
//
// Path fields are expanded after loading: ${HOME},
// ${FIELDREPORT_STATE} (the resolved paths.state) and
// ${VAR:-default} patterns.
package config
