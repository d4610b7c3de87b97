package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ritik/timeline-core/internal/config"
)

// requestContext is the result of decoding spec.md §6's header table for
// one inbound request.
type requestContext struct {
	CallerID     string
	IsAdmin      bool
	AuthToken    string
	RateRPM      int
	Overrides    *config.RequestOverrides
	forYouCaps   bool
}

func parseRequestContext(r *http.Request, forYouCaps bool) *requestContext {
	rc := &requestContext{
		CallerID:   r.Header.Get("x-user-id"),
		IsAdmin:    isTruthy(r.Header.Get("x-admin")),
		AuthToken:  r.Header.Get("x-auth-token"),
		RateRPM:    parsePositiveInt(r.Header.Get("x-rate-rpm")),
		forYouCaps: forYouCaps,
	}
	rc.Overrides = parseOverrides(r, forYouCaps)
	return rc
}

func parseOverrides(r *http.Request, forYouCaps bool) *config.RequestOverrides {
	ov := &config.RequestOverrides{
		ABWeightFollowing:   parseOptionalFloat(r.Header.Get("x-ab-following-weight")),
		ABWeightRecommended: parseOptionalFloat(r.Header.Get("x-ab-recommended-weight")),
		ABWeightTrending:    parseOptionalFloat(r.Header.Get("x-ab-trending-weight")),
		ABWeightLists:       parseOptionalFloat(r.Header.Get("x-ab-lists-weight")),
		UseOverdrive:        isTruthy(r.Header.Get("x-use-overdrive")),
	}

	capSuffix := ""
	if forYouCaps {
		capSuffix = "-for-you"
	}
	ov.CapFollowing = parseOptionalInt(r.Header.Get("x-cap-following" + capSuffix))
	ov.CapRecommended = parseOptionalInt(r.Header.Get("x-cap-recommended" + capSuffix))
	ov.CapTrending = parseOptionalInt(r.Header.Get("x-cap-trending" + capSuffix))
	ov.CapLists = parseOptionalInt(r.Header.Get("x-cap-lists" + capSuffix))

	if forYouCaps {
		ov.DiscoveryShare = parseOptionalFloat(r.Header.Get("x-discovery-share"))
	}

	return ov
}

func isTruthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1"
}

func parsePositiveInt(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func parseOptionalFloat(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseOptionalInt(v string) *int {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
