//go:build !pdc
// +build !pdc

package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVendorSDKNeedsTag(t *testing.T) {
	_, err := BuildServer(defaultConfig(), io.Discard)
	assert.Error(t, err)
}
