package tagoreq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const contentTypeJSON = "application/json"

// encodeBody prepares the payload of a non-GET request. Strings and byte
// slices are sent as-is; any other value is JSON encoded and, unless the
// caller chose one, gets a JSON Content-Type on headers.
func encodeBody(method string, body any, headers http.Header) (io.Reader, error) {
	if method == http.MethodGet || body == nil {
		return nil, nil
	}

	switch b := body.(type) {
	case string:
		return bytes.NewReader([]byte(b)), nil
	case []byte:
		return bytes.NewReader(b), nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	setDefault(headers, "Content-Type", contentTypeJSON)
	return bytes.NewReader(data), nil
}
