package tagoreq

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
)

// AnalysisContextEnv is set by the vendor hosting when code runs inside it.
const AnalysisContextEnv = "T_ANALYSIS_CONTEXT"

// HostContext describes where the engine is executing. It decides which
// default headers are attached to every request.
type HostContext struct {
	// Browser marks a browser-like host; cache-busting headers are sent
	// instead of a User-Agent banner.
	Browser bool
	// RunningAtTagoIO marks execution inside the vendor's own hosting.
	RunningAtTagoIO bool

	Runtime        string
	RuntimeVersion string
	Platform       string
	Arch           string
}

// DefaultHostContext inspects the running process.
func DefaultHostContext() HostContext {
	return HostContext{
		Browser:         runtime.GOOS == "js" && runtime.GOARCH == "wasm",
		RunningAtTagoIO: os.Getenv(AnalysisContextEnv) != "",
		Runtime:         "go",
		RuntimeVersion:  strings.TrimPrefix(runtime.Version(), "go"),
		Platform:        runtime.GOOS,
		Arch:            runtime.GOARCH,
	}
}

// UserAgent renders the identification banner for h.
func (h HostContext) UserAgent() string {
	if h.RunningAtTagoIO {
		return fmt.Sprintf("%s|%s (Running at TagoIO)", ProductName, Version)
	}
	return fmt.Sprintf("%s|%s (External; %s/%s %s/%s)",
		ProductName, Version, h.Runtime, h.RuntimeVersion, h.Platform, h.Arch)
}

// BuildHeaders merges the caller headers with the host defaults. Defaults
// are only added when the caller did not set the same key. The caller's
// header map is left untouched.
func BuildHeaders(caller http.Header, host HostContext) http.Header {
	headers := cloneHeader(caller)

	if host.Browser {
		setDefault(headers, "Pragma", "no-cache")
		setDefault(headers, "Cache-Control", "no-cache")
		return headers
	}

	setDefault(headers, "User-Agent", host.UserAgent())
	return headers
}

// cloneHeader copies h, folding keys that were set without canonical
// casing onto their canonical form.
func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h)+2)
	for k, v := range h {
		ck := http.CanonicalHeaderKey(k)
		out[ck] = append(out[ck], v...)
	}
	return out
}

func setDefault(h http.Header, key, value string) {
	if h.Get(key) != "" {
		return
	}
	h.Set(key, value)
}

// headerValue looks key up case-insensitively, so hand-built header maps
// with non-canonical keys are honored.
func headerValue(h http.Header, key string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, key) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
