package tagoreq

// unwrapResult applies the API envelope convention to a decoded body:
// {"status": true, "result": ...} succeeds with result, anything else is an
// application rejection carrying message, else result, else the body.
func unwrapResult(body any, status int, statusText string) (any, error) {
	if isEmptyBody(body) {
		return nil, &ApplicationError{Value: statusText, Status: status}
	}

	envelope, ok := body.(map[string]any)
	if !ok {
		return nil, &ApplicationError{Value: body, Status: status}
	}

	if ok, _ := envelope["status"].(bool); ok {
		return envelope["result"], nil
	}

	if msg := envelope["message"]; present(msg) {
		return nil, &ApplicationError{Value: msg, Status: status}
	}
	if result := envelope["result"]; present(result) {
		return nil, &ApplicationError{Value: result, Status: status}
	}
	return nil, &ApplicationError{Value: body, Status: status}
}

func isEmptyBody(body any) bool {
	switch b := body.(type) {
	case nil:
		return true
	case string:
		return b == ""
	}
	return false
}

// present reports whether v carries information: empty strings, zero,
// false and null fall through to the next candidate.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	}
	return true
}
