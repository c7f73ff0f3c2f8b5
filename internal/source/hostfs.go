package source

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// hostFS - нативная ФС без chroot-границы: относительные пути (включая ../)
// резолвятся от рабочего каталога.
type hostFS struct {
	osfs.ChrootOS
}

func (h *hostFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

func (h *hostFS) Root() string {
	return "/"
}

// HostFS returns the native filesystem as a billy.Filesystem.
func HostFS() billy.Filesystem {
	return &hostFS{}
}
