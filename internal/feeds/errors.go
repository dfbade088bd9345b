package feeds

import "fmt"

// UnknownFormatError reports a feed format the builder does not support.
// The HTTP layer maps it to a 400 response.
type UnknownFormatError struct {
	Format string
}

func (e UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown feed format %q", e.Format)
}

// UnimplementedError reports an activity type with no registered message
// template. It aborts the whole feed render; no partial feed is emitted.
type UnimplementedError struct {
	ActivityType string
}

func (e UnimplementedError) Error() string {
	return fmt.Sprintf("no activity renderer for activity type %q", e.ActivityType)
}

// LookupError reports a snippet renderer that could not produce a value:
// either the placeholder name is not registered, or the record is missing a
// field the renderer requires. It is fatal to the request.
type LookupError struct {
	Renderer string
	Field    string
}

func (e LookupError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("no snippet renderer registered for %q", e.Renderer)
	}
	return fmt.Sprintf("snippet renderer %q: missing field %q", e.Renderer, e.Field)
}
