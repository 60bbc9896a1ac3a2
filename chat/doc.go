// Package chat is the boundary to the conversation platform.
//
// The workflow depends only on Message, Poster and UserLookup. The Slack
// implementation consists of:
//
//   - SlackClient: chat.postMessage and users.info over the Web API
//   - CachedUsers: an LRU in front of any UserLookup
//   - EventsHandler: the Events API endpoint, which verifies request
//     signatures, answers url_verification challenges, drops duplicate
//     deliveries and bot traffic, and turns the rest into Messages
package chat
