package admission

import "fmt"

// Authorize enforces spec.md §6's authorization rule: a caller may only
// act on behalf of viewerID if its identity matches viewerID, or it
// carries the admin flag.
func Authorize(callerID string, isAdmin bool, viewerID string) error {
	if isAdmin {
		return nil
	}
	if callerID == viewerID {
		return nil
	}
	return fmt.Errorf("caller %q is not authorized to act as viewer %q", callerID, viewerID)
}

// EndpointClass names the admission bucket family a request belongs to.
type EndpointClass string

const (
	EndpointGeneral   EndpointClass = "general"
	EndpointForYou    EndpointClass = "for_you"
	EndpointFollowing EndpointClass = "following"
	EndpointRefresh   EndpointClass = "refresh"
	EndpointEngage    EndpointClass = "engage"
	EndpointStream    EndpointClass = "stream"
)

// Key builds the sharded bucket key for one (endpoint class, caller)
// pair.
func Key(class EndpointClass, callerID string) string {
	return string(class) + ":" + callerID
}
