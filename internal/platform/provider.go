package platform

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// Provider bundles all platform backends for the current OS.
type Provider struct {
	// Name identifies the backend in diagnostics.
	Name string

	// ThreadInit and ThreadTeardown run on the dispatch thread around its
	// lifetime (COM apartment setup on Windows). Either may be nil.
	ThreadInit     func() error
	ThreadTeardown func()

	// NewAutomation creates the accessibility facade. It is called on the
	// dispatch thread after ThreadInit.
	NewAutomation func() (uia.Automation, error)

	Sender   input.Sender
	KeyState input.KeyState
	Monitors coords.Source
	Windows  WindowDirectory
	Probe    EnvironmentProbe
	OCR      OCR
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("desktop-intent has no native backend on %s/%s; supported: windows/amd64, windows/arm64 (or --backend fake): %w",
	runtime.GOOS, runtime.GOARCH, uia.ErrUnsupported)

// NewProviderFunc is set by the native platform package via init().
// See internal/platform/windows/init.go for the Windows registration.
var NewProviderFunc func() (*Provider, error)

var (
	backendsMu sync.Mutex
	backends   = map[string]func() (*Provider, error){}
)

// Register makes a named backend selectable with NewProviderNamed.
func Register(name string, fn func() (*Provider, error)) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[strings.ToLower(name)] = fn
}

// Backends lists the registered backend names plus "native".
func Backends() []string {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	names := []string{"native"}
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names[1:])
	return names
}

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}

// NewProviderNamed returns the named backend. "" and "native" select the
// current OS.
func NewProviderNamed(name string) (*Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "native" {
		return NewProvider()
	}
	backendsMu.Lock()
	fn, ok := backends[name]
	backendsMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(Backends(), ", "))
	}
	return fn()
}
