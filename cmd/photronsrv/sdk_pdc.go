//go:build pdc
// +build pdc

package main

import "github.com/nasa-jpl/photron/pdc"

func vendorSDK() (pdc.SDK, error) {
	return pdc.Library{}, nil
}
