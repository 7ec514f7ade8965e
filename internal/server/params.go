// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package server

import (
	"encoding/json"
	"fmt"
)

// stringParam decodes params[i] as a required string.
func stringParam(params []json.RawMessage, i int) (string, error) {
	if i >= len(params) {
		return "", fmt.Errorf("server: missing param %d", i)
	}
	var s string
	if err := json.Unmarshal(params[i], &s); err != nil {
		return "", fmt.Errorf("server: param %d: %w", i, err)
	}
	return s, nil
}

// optionalString decodes params[i] as a string. A missing or null param is
// the empty string.
func optionalString(params []json.RawMessage, i int) (string, error) {
	if i >= len(params) || string(params[i]) == "null" {
		return "", nil
	}
	return stringParam(params, i)
}
