// Package store is the durable record of every feature request workflow.
//
// One row per conversation thread lives in the feature_requests table of a
// SQLite database (modernc.org/sqlite, no cgo). Rows are never deleted:
// terminal workflows stay in the table for audit after they leave memory.
//
// Core types:
//   - Record: A full row, including intermediate agent artifacts
//   - Update: A partial patch; nil fields are left untouched
//   - SQLiteStore: Create, Update, Get and ListOpen over the table
//
// Schema changes are additive. New optional columns are appended to the
// migration list; re-applying a column that already exists is ignored, and
// any other migration failure is logged without aborting start-up.
package store
