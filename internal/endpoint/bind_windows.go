//go:build windows

package endpoint

import (
	stderrors "errors"
	"syscall"

	"golang.org/x/sys/windows"
)

// addrInUse also matches the Winsock code, which syscall.EADDRINUSE does not
// cover on Windows.
func addrInUse(err error) bool {
	return stderrors.Is(err, windows.WSAEADDRINUSE) || stderrors.Is(err, syscall.EADDRINUSE)
}

func accessDenied(err error) bool {
	return stderrors.Is(err, windows.WSAEACCES) || stderrors.Is(err, syscall.EACCES)
}
