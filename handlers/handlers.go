// Package handlers is the thin HTTP boundary over the chat core: bind
// the request, call the service, map typed errors to status codes.
package handlers

import "github.com/yesuf435/im-safechat/chat"

var core *chat.Service

// Init wires the chat service in; must run before routes are served.
func Init(svc *chat.Service) {
	core = svc
}
