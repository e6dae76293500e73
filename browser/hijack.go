package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to Rod protocol resource types. Scripts,
// XHR and stylesheets are never blockable: login forms need all three.
var resourceTypes = map[string]proto.NetworkResourceType{
	"image": proto.NetworkResourceTypeImage,
	"font":  proto.NetworkResourceTypeFont,
	"media": proto.NetworkResourceTypeMedia,
}

// blockedSet builds an O(1) lookup set from config names. Unknown names
// are ignored.
func blockedSet(names []string) map[proto.NetworkResourceType]struct{} {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := resourceTypes[strings.ToLower(strings.TrimSpace(name))]; ok {
			blocked[rt] = struct{}{}
		}
	}
	return blocked
}

// setupHijack installs a request interceptor on the page that fails the
// blocked resource types and lets everything else through.
//
// Returns the running HijackRouter so the session can stop it on Close.
// Returns nil if there is nothing to block.
func setupHijack(page *rod.Page, blockedTypes []string) *rod.HijackRouter {
	blocked := blockedSet(blockedTypes)
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if _, ok := blocked[h.Request.Type()]; ok {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks until router.Stop() is called.
	go router.Run()

	return router
}
