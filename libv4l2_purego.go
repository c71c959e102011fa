//go:build linux && (amd64 || arm64) && !nolibv4l2

package v4l2request

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

var (
	libv4l2Once    sync.Once
	libv4l2Handle  uintptr
	libv4l2InitErr error

	libcHandle uintptr
)

var (
	v4l2Ioctl       func(fd int32, request uint64, arg uintptr) int32
	libcErrnoLocate func() uintptr
)

// findLibrary searches for a shared library in the usual system locations.
// V4L2REQUEST_LIB_PATH is checked first.
func findLibrary(libName string) string {
	searchPaths := []string{
		os.Getenv("V4L2REQUEST_LIB_PATH"),
	}
	if exe, err := os.Executable(); err == nil {
		searchPaths = append(searchPaths, filepath.Dir(exe))
	}
	searchPaths = append(searchPaths,
		"/usr/local/lib",
		"/usr/lib",
		"/usr/lib64",
		"/usr/lib/x86_64-linux-gnu",
		"/usr/lib/aarch64-linux-gnu",
		"/lib/x86_64-linux-gnu",
		"/lib/aarch64-linux-gnu",
	)

	for _, p := range searchPaths {
		if p == "" {
			continue
		}
		candidate := filepath.Join(p, libName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

func initLibV4L2() error {
	libv4l2Once.Do(func() {
		libPath := findLibrary("libv4l2.so.0")
		if libPath == "" {
			libv4l2InitErr = fmt.Errorf("%w: libv4l2.so.0 not found", ErrLibV4L2Unavailable)
			return
		}

		var err error
		libv4l2Handle, err = purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			libv4l2InitErr = fmt.Errorf("%w: load %s: %w", ErrLibV4L2Unavailable, libPath, err)
			return
		}
		libcHandle, err = purego.Dlopen("libc.so.6", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			libv4l2InitErr = fmt.Errorf("%w: load libc: %w", ErrLibV4L2Unavailable, err)
			return
		}

		purego.RegisterLibFunc(&v4l2Ioctl, libv4l2Handle, "v4l2_ioctl")
		purego.RegisterLibFunc(&libcErrnoLocate, libcHandle, "__errno_location")
	})
	return libv4l2InitErr
}

// LibV4L2ControlWriter writes controls through libv4l2's v4l2_ioctl wrapper,
// loaded at runtime without cgo.
type LibV4L2ControlWriter struct{}

// NewLibV4L2ControlWriter loads libv4l2 and returns a writer backed by it.
func NewLibV4L2ControlWriter() (*LibV4L2ControlWriter, error) {
	if err := initLibV4L2(); err != nil {
		return nil, err
	}
	return &LibV4L2ControlWriter{}, nil
}

func (w *LibV4L2ControlWriter) SetControl(videoFD, requestFD int, id ControlID, payload []byte) error {
	var pinner runtime.Pinner
	defer pinner.Unpin()
	ctrls := newExtControls(&pinner, requestFD, id, payload)

	// errno is thread-local.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ret := v4l2Ioctl(int32(videoFD), vidiocSExtCtrls, uintptr(unsafe.Pointer(ctrls)))
	if ret < 0 {
		errno := unix.Errno(*(*int32)(unsafe.Pointer(libcErrnoLocate())))
		return &ControlError{ID: id, Err: errno}
	}
	return nil
}
