package tagoreq

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Fingerprint identifies a call for caching and in-flight coalescing.
type Fingerprint uint64

// emptyFingerprint is returned for an empty canonical form.
const emptyFingerprint Fingerprint = 0

// DefaultIdentityHeader is the header whose value scopes fingerprints to a
// credential.
const DefaultIdentityHeader = "Token"

func (f Fingerprint) String() string {
	return strconv.FormatUint(uint64(f), 16)
}

type canonicalDescriptor struct {
	URL      string         `json:"url"`
	Identity string         `json:"identity"`
	Params   map[string]any `json:"params"`
	Body     any            `json:"body"`
	Method   string         `json:"method"`
}

// FingerprintOf derives the fingerprint of d using the value of the
// identityHeader as credential. Structurally equal descriptors always
// produce equal fingerprints.
func FingerprintOf(d Descriptor, identityHeader string) Fingerprint {
	if identityHeader == "" {
		identityHeader = DefaultIdentityHeader
	}

	c := canonicalDescriptor{
		URL:      d.URL,
		Identity: headerValue(d.Headers, identityHeader),
		Params:   canonicalParams(d.Params),
		Body:     normalizeBody(d.Body),
		Method:   d.method(),
	}

	return checksum(canonicalize(c))
}

// canonicalize renders c with map keys sorted, falling back to the Go
// syntax representation for values JSON cannot encode.
func canonicalize(c canonicalDescriptor) string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%#v", c)
	}
	return string(data)
}

func checksum(s string) Fingerprint {
	if s == "" {
		return emptyFingerprint
	}
	return Fingerprint(xxh3.HashString(s))
}

// canonicalParams drops Undefined entries from maps at any depth, so
// descriptors that serialize to the same query share a fingerprint. Slice
// positions are kept since they show up as indexes in the query.
func canonicalParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if _, skip := v.(undefined); skip {
			continue
		}
		out[k] = canonicalParam(v)
	}
	return out
}

func canonicalParam(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return canonicalParams(t)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = canonicalParam(elem)
		}
		return out
	}
	return v
}

// normalizeBody makes raw byte bodies hash like their string form.
func normalizeBody(body any) any {
	if b, ok := body.([]byte); ok {
		return string(b)
	}
	return body
}
