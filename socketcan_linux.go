package canex

import (
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// dialRaw opens a CAN_RAW socket bound to the named interface. The fd is set
// non-blocking before it is handed to os.NewFile so the runtime poller owns
// it and Close unblocks a pending read.
func dialRaw(name string) (io.ReadWriteCloser, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return os.NewFile(uintptr(fd), name), nil
}
