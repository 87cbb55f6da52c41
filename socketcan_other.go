//go:build !linux

package canex

import (
	"errors"
	"io"
)

func dialRaw(string) (io.ReadWriteCloser, error) {
	return nil, errors.New("socketcan is only available on linux")
}
