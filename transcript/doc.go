// Package transcript records every coding-agent invocation.
//
// Each invocation is written as one JSON document under the thread it
// belongs to:
//
//	<base>/<thread id>/<invocation id>.json
//
// The documents are kept for audit and debugging; nothing in the workflow
// reads them back. The featureflow CLI lists them per thread.
//
//	store, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: dir})
//	err = store.Save(&transcript.Transcript{ID: id, ThreadID: thread, ...})
//	metas, err := store.List(thread)
package transcript
