// Package notify delivers operator notifications about workflow sessions.
//
// These are separate from the replies posted to a session's thread: they
// go to whoever runs the service, through a Slack incoming webhook, a
// generic JSON webhook, or the log.
//
//	n := notify.NewMultiNotifier(
//	    notify.NewLogNotifier(logger),
//	    notify.ForURL(webhookURL),
//	)
//	n.Notify(ctx, notify.Event{Type: notify.EventConfigError, ThreadID: id, Message: msg})
package notify
