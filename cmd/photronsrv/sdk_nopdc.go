//go:build !pdc
// +build !pdc

package main

import (
	"errors"

	"github.com/nasa-jpl/photron/pdc"
)

func vendorSDK() (pdc.SDK, error) {
	return nil, errors.New("photronsrv was built without the PDC library; rebuild with -tags pdc or set Mock: true")
}
