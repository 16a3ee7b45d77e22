//go:build !windows

package endpoint

import (
	stderrors "errors"
	"syscall"
)

func addrInUse(err error) bool {
	return stderrors.Is(err, syscall.EADDRINUSE)
}

func accessDenied(err error) bool {
	return stderrors.Is(err, syscall.EACCES)
}
