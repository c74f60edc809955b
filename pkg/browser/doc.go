// Package browser fills forms on live pages through Playwright.
//
// A live page is filled in three steps:
//
//  1. Snapshot: the page's current HTML is parsed into a dom.Document.
//  2. Fill: the autofill pipeline runs against the snapshot.
//  3. Replay: every write the pipeline applied is replayed onto the live
//     page through Playwright locators, so the page's own scripts observe
//     real input and change events.
//
// Sessions are owned by a SessionManager, which starts Playwright lazily
// and closes every browser on Shutdown.
package browser
