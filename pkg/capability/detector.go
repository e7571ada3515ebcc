// Package capability decides whether the current console context may drive
// a hardware tag reader.
package capability

import (
	"net/url"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// loopbackHosts are development hosts treated as secure without TLS.
var loopbackHosts = mapset.NewThreadUnsafeSet("localhost", "127.0.0.1")

// Environment describes what the host exposes to a scan attempt.
type Environment interface {
	// Origin is the URL the console is served from (or talks to, for the CLI).
	Origin() *url.URL
	// HasReader reports whether a tag-reading capability is available.
	HasReader() bool
}

// Result is the outcome of a capability check.
type Result struct {
	Secure    bool `json:"secure"`
	Supported bool `json:"supported"`
}

// Detect evaluates env. It has no side effects and is meant to be called on
// every scan attempt, since a reader may disappear between attempts.
func Detect(env Environment) Result {
	if env == nil {
		return Result{}
	}
	secure := IsSecureOrigin(env.Origin())
	return Result{
		Secure:    secure,
		Supported: secure && env.HasReader(),
	}
}

// IsSecureOrigin reports whether u uses https or points at a loopback
// development host.
func IsSecureOrigin(u *url.URL) bool {
	if u == nil {
		return false
	}
	if strings.EqualFold(u.Scheme, "https") {
		return true
	}
	return loopbackHosts.Contains(strings.ToLower(u.Hostname()))
}

// StaticEnvironment is an Environment with fixed answers.
type StaticEnvironment struct {
	OriginURL *url.URL
	Reader    bool
}

// NewStaticEnvironment parses origin and returns an Environment for it.
func NewStaticEnvironment(origin string, hasReader bool) (*StaticEnvironment, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, err
	}
	return &StaticEnvironment{OriginURL: u, Reader: hasReader}, nil
}

func (e *StaticEnvironment) Origin() *url.URL { return e.OriginURL }
func (e *StaticEnvironment) HasReader() bool  { return e.Reader }

// EnvironmentFunc adapts a pair of functions to Environment. It lets callers
// re-read reader availability on every check.
type EnvironmentFunc struct {
	OriginFn    func() *url.URL
	HasReaderFn func() bool
}

func (e EnvironmentFunc) Origin() *url.URL {
	if e.OriginFn == nil {
		return nil
	}
	return e.OriginFn()
}

func (e EnvironmentFunc) HasReader() bool {
	if e.HasReaderFn == nil {
		return false
	}
	return e.HasReaderFn()
}
