package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// PageEnvelope wraps one page of a keyset-paginated listing. NextCursor is
// empty on the last page.
type PageEnvelope struct {
	Data       any    `json:"data"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
