//go:build !linux

package agent

import "os"

var exitSig []os.Signal
